package copier

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/camservo/filecopier/internal/config"
	"github.com/camservo/filecopier/internal/excluder"
	"github.com/camservo/filecopier/internal/utils"
)

var (
	// ErrSourceVanished is returned when the source file disappeared
	// between the filesystem event and the copy.
	ErrSourceVanished = errors.New("source file vanished before copy")
	// ErrDestinationMissing is returned when the destination directory is
	// absent at copy time.
	ErrDestinationMissing = errors.New("destination directory does not exist")
)

// stabilityProbe is the window used to detect a file still being written.
const stabilityProbe = 100 * time.Millisecond

// Copier copies changed files into the destination directory, overwriting
// any existing file of the same name.
type Copier struct {
	destDir string
	delay   time.Duration
	dryRun  bool
	notify  bool
	ex      *excluder.Excluder
}

// New creates a Copier from the configuration. ex may be nil when no
// exclude patterns are configured.
func New(cfg *config.Config, ex *excluder.Excluder) *Copier {
	return &Copier{
		destDir: cfg.DestinationDir,
		delay:   cfg.Delay.Std(),
		dryRun:  cfg.DryRun,
		notify:  cfg.Notifications,
		ex:      ex,
	}
}

// DestDir returns the destination directory files are copied into.
func (c *Copier) DestDir() string { return c.destDir }

// Process handles one file event end to end: exclusion, settle delay,
// copy, logging, and notification. Errors are consumed here so a failed
// copy never terminates the watch loop.
func (c *Copier) Process(path string) {
	filename := filepath.Base(path)

	if c.ex != nil && c.ex.IsExcluded(path) {
		log.Debugf("Excluded: %s", path)
		return
	}

	if c.delay > 0 {
		time.Sleep(c.delay)
		if !c.settled(path) {
			// Still being written; the next write event retries.
			log.Debugf("File still being written, skipping: %s", path)
			return
		}
	}

	prettyPath := func(p string) string { return filepath.ToSlash(p) }
	destPath := filepath.Join(c.destDir, filename)

	if c.dryRun {
		log.Infof("[dry run] Would copy %s -> %s", prettyPath(path), prettyPath(destPath))
		return
	}

	err := c.Copy(path)
	switch {
	case errors.Is(err, ErrSourceVanished):
		log.Warnf("Skipping %s: %v", filename, err)
	case err != nil:
		out := fmt.Sprintf("Error copying %s: %v", filename, err)
		log.Error(out)
		utils.SendNotification(c.notify, "filecopier", out)
	default:
		out := fmt.Sprintf("Copied %s -> %s", prettyPath(path), prettyPath(destPath))
		log.Info(out)
		utils.SendNotification(c.notify, "filecopier", out)
	}
}

// Copy copies the file at src into the destination directory, preserving
// the source modification time. An existing destination file of the same
// name is overwritten unconditionally.
func (c *Copier) Copy(src string) error {
	info, err := os.Stat(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceVanished, src)
		}
		return fmt.Errorf("stat source: %w", err)
	}

	destInfo, err := os.Stat(c.destDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrDestinationMissing, c.destDir)
		}
		return fmt.Errorf("stat destination: %w", err)
	}
	if !destInfo.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDestinationMissing, c.destDir)
	}

	in, err := os.Open(src)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrSourceVanished, src)
		}
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	destPath := filepath.Join(c.destDir, filepath.Base(src))

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy bytes: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	// Preserve the source modification time; best effort only.
	if err := os.Chtimes(destPath, time.Now(), info.ModTime()); err != nil {
		log.Debugf("Could not preserve modification time for %s: %v", destPath, err)
	}

	return nil
}

// settled reports whether the file size stayed constant over the probe
// window. A vanished file counts as settled; Copy classifies it.
func (c *Copier) settled(path string) bool {
	first, err := os.Stat(path)
	if err != nil {
		return true
	}

	time.Sleep(stabilityProbe)

	second, err := os.Stat(path)
	if err != nil {
		return true
	}

	return first.Size() == second.Size()
}
