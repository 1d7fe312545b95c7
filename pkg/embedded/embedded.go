package embedded

import (
	_ "embed"
)

// Embed the prompt style definitions
//
//go:embed data/styles/nazrul.yaml
var NazrulStyleYAML []byte
