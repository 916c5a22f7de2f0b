package tui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.3.0\n")
	assert.Contains(t, buf.String(), "v0.3.0")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("**Pick a template**\n\n1. Avatar Video")
	require.NoError(t, err)
	assert.Contains(t, out, "Pick a template")
	assert.Contains(t, out, "Avatar Video")
}
