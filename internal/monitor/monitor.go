// Package monitor drives the interactive session: it prompts for the
// XX-XX subfolder to watch, starts and stops the watcher, and handles the
// Enter-key menu for switching folders or quitting. It owns the current
// subfolder and is the only component that starts or stops watchers.
package monitor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/camservo/filecopier/internal/config"
	"github.com/camservo/filecopier/internal/copier"
	"github.com/camservo/filecopier/internal/folder"
	"github.com/camservo/filecopier/internal/watcher"
)

// State is the control-loop state.
type State int

const (
	// StatePrompting reads a subfolder name until one resolves.
	StatePrompting State = iota
	// StateWatching has an active watcher; Enter opens the menu.
	StateWatching
	// StateMenuOpen presents {change source folder, quit}; no copy side
	// effects occur while the menu is open.
	StateMenuOpen
	// StateTerminated is terminal; Run returns.
	StateTerminated
)

// Monitor owns the interactive control loop.
type Monitor struct {
	cfg *config.Config
	cop *copier.Copier
	in  io.Reader
	out io.Writer

	lines     chan string
	w         *watcher.Watcher
	subfolder string
	state     State
}

// New creates a Monitor reading keyboard input from in and writing
// prompts to out.
func New(cfg *config.Config, cop *copier.Copier, in io.Reader, out io.Writer) *Monitor {
	return &Monitor{
		cfg: cfg,
		cop: cop,
		in:  in,
		out: out,
	}
}

// State returns the current control-loop state.
func (m *Monitor) State() State { return m.state }

// Subfolder returns the currently selected subfolder name.
func (m *Monitor) Subfolder() string { return m.subfolder }

// Run executes the control loop until the user quits, input reaches EOF,
// or ctx is cancelled. Keyboard input is consumed on its own goroutine so
// the watcher and the menu never share a thread of control.
func (m *Monitor) Run(ctx context.Context) error {
	m.lines = make(chan string)
	go m.readInput()

	if m.cfg.Subfolder != "" {
		if err := m.startWatching(m.cfg.Subfolder); err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}

	for {
		switch m.state {
		case StatePrompting:
			m.promptForFolder(ctx)
		case StateWatching:
			m.watchUntilInterrupt(ctx)
		case StateMenuOpen:
			m.runMenu(ctx)
		case StateTerminated:
			m.stopWatcher()
			return nil
		}
	}
}

// promptForFolder reads subfolder names until one starts watching.
// Format and path errors re-prompt; EOF or cancellation terminates.
func (m *Monitor) promptForFolder(ctx context.Context) {
	for m.state == StatePrompting {
		fmt.Fprint(m.out, "Enter the folder name (e.g. 01-04): ")

		line, ok := m.readLine(ctx)
		if !ok {
			m.state = StateTerminated
			return
		}

		if err := m.startWatching(line); err != nil {
			fmt.Fprintf(m.out, "Error: %v\n", err)
		}
	}
}

// watchUntilInterrupt blocks while the watcher runs. Any complete input
// line opens the menu; the watcher is fully stopped before the state
// changes so no event from the old path can race reconfiguration.
func (m *Monitor) watchUntilInterrupt(ctx context.Context) {
	select {
	case <-ctx.Done():
		m.state = StateTerminated
	case _, ok := <-m.lines:
		m.stopWatcher()
		if !ok {
			m.state = StateTerminated
			return
		}
		m.state = StateMenuOpen
	}
}

func (m *Monitor) runMenu(ctx context.Context) {
	fmt.Fprintln(m.out)
	fmt.Fprintln(m.out, "Select an option:")
	fmt.Fprintln(m.out, "  1. Change source folder")
	fmt.Fprintln(m.out, "  2. Quit")
	fmt.Fprint(m.out, "Enter your choice (1 or 2): ")

	line, ok := m.readLine(ctx)
	if !ok {
		m.state = StateTerminated
		return
	}

	switch line {
	case "1":
		m.state = StatePrompting
	case "2":
		m.state = StateTerminated
	default:
		fmt.Fprintf(m.out, "Invalid choice: %q\n", line)
	}
}

// startWatching resolves name under the base source directory and starts
// a watcher on it. The previous watcher, if any, is already stopped.
func (m *Monitor) startWatching(name string) error {
	dir, err := folder.Resolve(m.cfg.BaseSourceDir, name)
	if err != nil {
		return err
	}

	w, err := watcher.New(dir, watcher.Options{
		Recursive: m.cfg.Recursive,
		Debounce:  m.cfg.Debounce.Std(),
		Handler:   m.cop.Process,
	})
	if err != nil {
		return err
	}

	m.w = w
	m.subfolder = name
	m.state = StateWatching

	log.Infof("Monitoring started: %s -> %s", dir, m.cop.DestDir())
	fmt.Fprintln(m.out, "Press Enter to open the menu")

	return nil
}

func (m *Monitor) stopWatcher() {
	if m.w == nil {
		return
	}
	m.w.Stop()
	m.w = nil
	log.Info("Monitoring stopped")
}

// readLine waits for the next input line. ok is false on EOF or context
// cancellation.
func (m *Monitor) readLine(ctx context.Context) (line string, ok bool) {
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-m.lines:
		return line, ok
	}
}

func (m *Monitor) readInput() {
	scanner := bufio.NewScanner(m.in)
	for scanner.Scan() {
		m.lines <- strings.TrimSpace(scanner.Text())
	}
	close(m.lines)
}
