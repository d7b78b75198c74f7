package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, "src"), ExpandTilde("~/src"))
	assert.Equal(t, "/absolute/path", ExpandTilde("/absolute/path"))
	assert.Equal(t, "relative/path", ExpandTilde("relative/path"))
}
