package folder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// Pattern matches a source subfolder name like "01-04": two numeric
// groups separated by a hyphen.
var Pattern = regexp.MustCompile(`^\d{2}-\d{2}$`)

var (
	// ErrInvalidFormat is returned when a subfolder name does not match Pattern.
	ErrInvalidFormat = errors.New("folder name must be in format XX-XX (e.g. 01-04)")
	// ErrNotFound is returned when the resolved subfolder does not exist
	// under the base source directory.
	ErrNotFound = errors.New("source directory does not exist")
)

// Validate checks that name matches the XX-XX subfolder pattern.
func Validate(name string) error {
	if !Pattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, name)
	}
	return nil
}

// Resolve validates name and returns the watchable path base/name.
// The path must exist and be a directory.
func Resolve(base, name string) (string, error) {
	if err := Validate(name); err != nil {
		return "", err
	}

	path := filepath.Join(base, name)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("checking source directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotFound, path)
	}

	return path, nil
}
