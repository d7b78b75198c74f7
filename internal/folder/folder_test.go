package folder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	valid := []string{"01-04", "00-00", "99-99", "10-19"}
	for _, name := range valid {
		assert.NoError(t, Validate(name), name)
	}

	invalid := []string{"", "01", "0104", "01_04", "1-04", "01-4", "001-04", "01-004", "ab-cd", "01-04x", " 01-04", "01-04 "}
	for _, name := range invalid {
		err := Validate(name)
		assert.ErrorIs(t, err, ErrInvalidFormat, name)
	}
}

func TestResolve(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(base, "01-04"), 0o755))

	path, err := Resolve(base, "01-04")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "01-04"), path)
}

func TestResolve_InvalidFormat(t *testing.T) {
	_, err := Resolve(t.TempDir(), "not-a-folder")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestResolve_Missing(t *testing.T) {
	_, err := Resolve(t.TempDir(), "01-04")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolve_NotADirectory(t *testing.T) {
	base := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(base, "01-04"), []byte("file"), 0o644))

	_, err := Resolve(base, "01-04")
	assert.ErrorIs(t, err, ErrNotFound)
}
