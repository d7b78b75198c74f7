package monitor

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camservo/filecopier/internal/config"
	"github.com/camservo/filecopier/internal/copier"
)

func testConfig(t *testing.T, subfolders ...string) *config.Config {
	t.Helper()

	base := t.TempDir()
	for _, name := range subfolders {
		require.NoError(t, os.Mkdir(filepath.Join(base, name), 0o755))
	}

	cfg := config.Default()
	cfg.BaseSourceDir = base
	cfg.DestinationDir = t.TempDir()
	cfg.Debounce = config.Duration(20 * time.Millisecond)
	return cfg
}

func waitForContent(t *testing.T, path, want string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if data, err := os.ReadFile(path); err == nil && string(data) == want {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s to contain %q", path, want)
}

func TestRun_QuitFromMenu(t *testing.T) {
	cfg := testConfig(t, "01-04")
	m := New(cfg, copier.New(cfg, nil), strings.NewReader("01-04\n\n2\n"), io.Discard)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not terminate")
	}
	assert.Equal(t, StateTerminated, m.State())
}

func TestRun_EOFTerminates(t *testing.T) {
	cfg := testConfig(t)
	m := New(cfg, copier.New(cfg, nil), strings.NewReader(""), io.Discard)

	require.NoError(t, m.Run(context.Background()))
	assert.Equal(t, StateTerminated, m.State())
}

func TestRun_InvalidFormatReprompts(t *testing.T) {
	cfg := testConfig(t, "01-04")
	var out bytes.Buffer
	m := New(cfg, copier.New(cfg, nil), strings.NewReader("bogus\n01-04\n\n2\n"), &out)

	require.NoError(t, m.Run(context.Background()))

	assert.Contains(t, out.String(), "XX-XX")
	assert.Equal(t, "01-04", m.Subfolder())
}

func TestRun_MissingFolderReprompts(t *testing.T) {
	cfg := testConfig(t, "01-04")
	var out bytes.Buffer
	m := New(cfg, copier.New(cfg, nil), strings.NewReader("02-05\n01-04\n\n2\n"), &out)

	require.NoError(t, m.Run(context.Background()))

	assert.Contains(t, out.String(), "does not exist")
	assert.Equal(t, "01-04", m.Subfolder())
}

func TestRun_ContextCancelStopsCleanly(t *testing.T) {
	cfg := testConfig(t, "01-04")
	cfg.Subfolder = "01-04"

	pr, pw := io.Pipe()
	defer pw.Close()

	m := New(cfg, copier.New(cfg, nil), pr, io.Discard)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not terminate on cancel")
	}
}

// Full walkthrough of the watch-copy-menu-switch-quit flow.
func TestRun_FullScenario(t *testing.T) {
	cfg := testConfig(t, "01-04", "02-05")
	cop := copier.New(cfg, nil)

	firstSub := filepath.Join(cfg.BaseSourceDir, "01-04")
	secondSub := filepath.Join(cfg.BaseSourceDir, "02-05")
	dest := cfg.DestinationDir

	pr, pw := io.Pipe()
	defer pw.Close()
	var out bytes.Buffer

	m := New(cfg, cop, pr, &out)

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	writeLine := func(s string) {
		t.Helper()
		_, err := io.WriteString(pw, s+"\n")
		require.NoError(t, err)
	}

	// Invalid format first, then a valid folder.
	writeLine("nope")
	writeLine("01-04")
	time.Sleep(100 * time.Millisecond)

	// Created file is copied.
	require.NoError(t, os.WriteFile(filepath.Join(firstSub, "report.txt"), []byte("hello"), 0o644))
	waitForContent(t, filepath.Join(dest, "report.txt"), "hello")

	// Modified file overwrites, not appends.
	require.NoError(t, os.WriteFile(filepath.Join(firstSub, "report.txt"), []byte("hello world"), 0o644))
	waitForContent(t, filepath.Join(dest, "report.txt"), "hello world")

	// Enter opens the menu and stops the watcher before anything else.
	writeLine("")
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(firstSub, "late.txt"), []byte("late"), 0o644))

	// Switch to the second folder.
	writeLine("1")
	writeLine("02-05")
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(secondSub, "other.txt"), []byte("second"), 0o644))
	waitForContent(t, filepath.Join(dest, "other.txt"), "second")

	// Quit.
	writeLine("")
	writeLine("2")

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not terminate")
	}

	// The file written while the menu was open never produced a copy.
	assert.NoFileExists(t, filepath.Join(dest, "late.txt"))
	assert.Equal(t, "02-05", m.Subfolder())
}
