package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionOutput(t *testing.T) {
	SetVersion("1.2.3")
	_ = versionCmd.Flags().Set("short", "false")

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})

	require.NoError(t, rootCmd.Execute())
	out := buf.String()
	assert.Contains(t, out, "taskboard 1.2.3")
	assert.Contains(t, out, "go1")
}

func TestVersionShort(t *testing.T) {
	SetVersion("1.2.3")
	_ = versionCmd.Flags().Set("short", "true")
	defer func() { _ = versionCmd.Flags().Set("short", "false") }()

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetArgs([]string{"version"})

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "1.2.3", strings.TrimSpace(buf.String()))
}
