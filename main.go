package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sevlyar/go-daemon"
	log "github.com/sirupsen/logrus"
	altsrc "github.com/urfave/cli-altsrc/v3"
	yamlsrc "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/camservo/filecopier/internal/config"
	"github.com/camservo/filecopier/internal/copier"
	headless "github.com/camservo/filecopier/internal/daemon"
	"github.com/camservo/filecopier/internal/excluder"
	"github.com/camservo/filecopier/internal/monitor"
	"github.com/camservo/filecopier/internal/utils"
)

// Set at build time: go build -ldflags "-X main.version=1.2.3"
var version = "dev"

func main() {
	var configPath string

	app := &cli.Command{
		Name:    "filecopier",
		Usage:   "watches a source subfolder and copies changed files to a destination",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("FILECOPIER_CONFIG"),
				Value:       ".filecopier.yaml",
				Destination: &configPath,
			},
			&cli.StringFlag{
				Name:    "base-source-dir",
				Usage:   "base directory containing the XX-XX subfolders",
				Sources: cli.EnvVars("FILECOPIER_BASE_SOURCE_DIR"),
			},
			&cli.StringFlag{
				Name:    "destination-dir",
				Usage:   "directory files are copied into",
				Sources: cli.EnvVars("FILECOPIER_DESTINATION_DIR"),
			},
			&cli.StringFlag{
				Name:  "subfolder",
				Usage: "initial XX-XX subfolder to watch (skips the prompt)",
				Sources: cli.NewValueSourceChain(
					cli.EnvVar("FILECOPIER_SUBFOLDER"),
					yamlsrc.YAML("subfolder", altsrc.NewStringPtrSourcer(&configPath)),
				),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "logging level: debug, info, warn, error",
				Sources: cli.EnvVars("FILECOPIER_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "append-only log file (empty disables)",
				Sources: cli.EnvVars("FILECOPIER_LOG_FILE"),
			},
			&cli.BoolFlag{
				Name:    "daemonize",
				Usage:   "run headless as a daemon (requires subfolder)",
				Sources: cli.EnvVars("FILECOPIER_DAEMONIZE"),
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Usage:   "dry run mode",
				Sources: cli.EnvVars("FILECOPIER_DRY_RUN"),
			},
			&cli.BoolFlag{
				Name:    "recursive",
				Usage:   "watch nested directories of the subfolder",
				Sources: cli.EnvVars("FILECOPIER_RECURSIVE"),
			},
			&cli.BoolFlag{
				Name:    "notifications",
				Usage:   "send desktop notifications on copy results",
				Sources: cli.EnvVars("FILECOPIER_NOTIFICATIONS"),
			},
			&cli.StringSliceFlag{
				Name:    "exclude",
				Usage:   "glob patterns to exclude (repeat or comma-separated)",
				Sources: cli.EnvVars("FILECOPIER_EXCLUDE"),
			},
			&cli.DurationFlag{
				Name:    "delay",
				Usage:   "settle time before copying changed files",
				Sources: cli.EnvVars("FILECOPIER_DELAY"),
				Value:   0,
			},
			&cli.DurationFlag{
				Name:    "debounce",
				Usage:   "quiet period coalescing duplicate events per file",
				Sources: cli.EnvVars("FILECOPIER_DEBOUNCE"),
			},
		},
		Action: run,
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	var cfg *config.Config
	configPath := cmd.String("config")

	// Only load config if the file exists; a missing explicit --config is fatal.
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	} else if cmd.IsSet("config") {
		log.Fatalf("Config file not found: %s", configPath)
	} else {
		cfg = config.Default()
	}

	// Override config with flags if set
	if cmd.IsSet("base-source-dir") {
		cfg.BaseSourceDir = cmd.String("base-source-dir")
	}
	if cmd.IsSet("destination-dir") {
		cfg.DestinationDir = cmd.String("destination-dir")
	}
	if cmd.IsSet("subfolder") {
		cfg.Subfolder = cmd.String("subfolder")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if cmd.IsSet("log-file") {
		cfg.LogFile = cmd.String("log-file")
	}
	if cmd.IsSet("daemonize") {
		cfg.Daemonize = cmd.Bool("daemonize")
	}
	if cmd.IsSet("dry-run") {
		cfg.DryRun = cmd.Bool("dry-run")
	}
	if cmd.IsSet("recursive") {
		cfg.Recursive = cmd.Bool("recursive")
	}
	if cmd.IsSet("notifications") {
		cfg.Notifications = cmd.Bool("notifications")
	}
	if cmd.IsSet("exclude") {
		exclude := cmd.StringSlice("exclude")
		var merged []string
		for _, e := range exclude {
			merged = append(merged, strings.Split(e, ",")...)
		}
		cfg.Exclude = merged
	}
	if cmd.IsSet("delay") {
		cfg.Delay = config.Duration(cmd.Duration("delay"))
	}
	if cmd.IsSet("debounce") {
		cfg.Debounce = config.Duration(cmd.Duration("debounce"))
	}

	// Set log level from config
	switch cfg.LogLevel {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	// Append to the log file and keep the console stream.
	if cfg.LogFile != "" {
		f, err := os.OpenFile(utils.ExpandTilde(cfg.LogFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, f))
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Only daemonize if config says so
	if cfg.Daemonize {
		daemonCtx := &daemon.Context{
			PidFileName: "filecopier.pid",
			PidFilePerm: 0644,
			LogFileName: "filecopier.daemon.log",
			LogFilePerm: 0640,
			WorkDir:     "./",
			Umask:       027,
			Args:        []string{"[filecopier-daemon]"},
		}

		d, err := daemonCtx.Reborn()
		if err != nil {
			log.Fatalf("Unable to run: %s", err)
		}
		if d != nil {
			return nil // Parent process exits
		}
		defer daemonCtx.Release()
		log.Info("Daemon started")

		return headless.Run(ctx, cfg)
	}

	log.Info("Running in foreground (not daemonized)")

	ex, err := excluder.New(cfg.Exclude)
	if err != nil {
		log.Fatalf("Failed to compile exclude patterns: %v", err)
	}
	cop := copier.New(cfg, ex)

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := monitor.New(cfg, cop, os.Stdin, os.Stdout)
	return m.Run(sigCtx)
}
