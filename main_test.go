package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterSensitiveHeaders(t *testing.T) {
	filtered := filterSensitiveHeaders(map[string]string{
		"Cookie":       "bidrohi_session=abc",
		"x-api-key":    "secret",
		"Content-Type": "application/json",
	})

	assert.Equal(t, "[REDACTED]", filtered["Cookie"])
	assert.Equal(t, "[REDACTED]", filtered["x-api-key"])
	assert.Equal(t, "application/json", filtered["Content-Type"])
}

func TestGetVersion(t *testing.T) {
	assert.Equal(t, "dev", GetVersion())
}
