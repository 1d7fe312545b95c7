package prompt

import (
	"fmt"
	"strings"
)

// Builder builds the poem prompt from a Style
type Builder struct {
	style *Style
}

// NewPromptBuilder creates a new prompt builder
func NewPromptBuilder(style *Style) *Builder {
	return &Builder{style: style}
}

// BuildPoemPrompt returns the single instruction prompt for one generation.
// The seed line is embedded verbatim, quoted, as the last line.
func (b *Builder) BuildPoemPrompt(seedLine string) string {
	var sb strings.Builder

	sb.WriteString(b.style.Persona)
	sb.WriteString("\n")

	heading := b.style.RulesHeading
	if heading == "" {
		heading = "Rules:"
	}
	sb.WriteString(heading)
	sb.WriteString("\n")
	for i, rule := range b.style.Rules {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, rule))
	}

	if b.style.Instructions != "" {
		sb.WriteString("\n")
		sb.WriteString(b.style.Instructions)
		sb.WriteString("\n")
	}
	for _, line := range b.style.ExampleLines {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	if len(b.style.ExampleLines) > 0 {
		sb.WriteString("...\n")
	}

	sb.WriteString(b.style.SeedIntro)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("'%s'", seedLine))

	return sb.String()
}
