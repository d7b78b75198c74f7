// Package daemon runs the watch-and-copy pipeline headless: no prompts,
// no menu, one fixed subfolder until the process is signalled.
package daemon

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	log "github.com/sirupsen/logrus"

	"github.com/camservo/filecopier/internal/config"
	"github.com/camservo/filecopier/internal/copier"
	"github.com/camservo/filecopier/internal/excluder"
	"github.com/camservo/filecopier/internal/folder"
	"github.com/camservo/filecopier/internal/watcher"
)

// Run watches the configured subfolder and copies changed files; it
// blocks until SIGINT/SIGTERM or context cancellation. The subfolder must
// be set in the configuration since there is no prompt to fall back to.
func Run(ctx context.Context, cfg *config.Config) error {
	if cfg.Subfolder == "" {
		return fmt.Errorf("subfolder is required in daemon mode")
	}

	dir, err := folder.Resolve(cfg.BaseSourceDir, cfg.Subfolder)
	if err != nil {
		return fmt.Errorf("resolving watch subfolder: %w", err)
	}

	ex, err := excluder.New(cfg.Exclude)
	if err != nil {
		return fmt.Errorf("compiling exclude patterns: %w", err)
	}

	cop := copier.New(cfg, ex)

	w, err := watcher.New(dir, watcher.Options{
		Recursive: cfg.Recursive,
		Debounce:  cfg.Debounce.Std(),
		Handler:   cop.Process,
	})
	if err != nil {
		return err
	}
	defer w.Stop()

	log.Infof("Monitoring started: %s -> %s", dir, cfg.DestinationDir)

	// Signal handling for graceful shutdown
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case sig := <-signals:
		log.Infof("Received signal: %s, shutting down...", sig)
	case <-ctx.Done():
		log.Info("Monitoring stopped")
		return ctx.Err()
	}

	log.Info("Monitoring stopped")
	return nil
}
