// Command termcap-probe runs the capability detector against the
// terminal emulator termcap-probe itself is attached to: it puts the
// controlling TTY into raw mode, writes the probe battery to stdout, and
// reads stdin for the interleaved replies (and any stray keystrokes),
// then prints the resolved fingerprint and capability set.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	termcap "github.com/danielgatis/go-termcap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var timeout time.Duration
	var verbose bool

	cmd := &cobra.Command{
		Use:   "termcap-probe",
		Short: "Detect the capabilities of the attached terminal",
		Long: `termcap-probe puts the controlling terminal into raw mode, sends
the fixed capability probe battery, and reports the resolved terminal
fingerprint and capability set.`,
		Example: `  # Probe the current terminal:
  $ termcap-probe

  # Probe with a longer grace period for a slow connection:
  $ termcap-probe --timeout 2s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(timeout, verbose)
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 500*time.Millisecond, "how long to wait for replies after the last byte read")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every probe write and reply")

	return cmd
}

// stdoutSink writes probe and glitch-repair bytes straight to the
// controlling terminal. It never goes bad (short writes to a live TTY
// are not distinguishable from "the terminal hung up" without a deeper
// ioctl check this demo doesn't need).
type stdoutSink struct {
	logger  *log.Logger
	verbose bool
}

func (s *stdoutSink) Write(p []byte) (int, error) {
	if s.verbose {
		s.logger.Debug("probe write", "bytes", fmt.Sprintf("%q", p))
	}
	return os.Stdout.Write(p)
}

func (s *stdoutSink) Flush() error { return nil }

func (s *stdoutSink) IsBad() bool { return false }

type logEvents struct {
	logger *log.Logger
}

func (e *logEvents) OnEvent(ev termcap.Event) {
	switch ev.Kind {
	case termcap.EventAutoDetectFinished:
		e.logger.Debug("detection finished", "failed", ev.Failed, "partialRepair", ev.PartialRepair)
	case termcap.EventUserInput:
		e.logger.Debug("unattributed input", "bytes", fmt.Sprintf("%q", ev.Data))
	}
}

func run(timeout time.Duration, verbose bool) error {
	logger := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.WarnLevel)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("stdin is not a terminal")
	}

	width, height := 80, 24
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		width, height = w, h
	}

	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}
	defer term.Restore(int(os.Stdin.Fd()), oldState)

	sink := &stdoutSink{logger: logger, verbose: verbose}
	d := termcap.New(
		termcap.WithSink(sink),
		termcap.WithEventSink(&logEvents{logger: logger}),
		termcap.WithScreenSize(width, height),
	)

	// Disable autowrap for the probe/repair window: glitch repair
	// assumes a non-scrolling, non-wrapping cursor model (see the
	// scroll-on-wrap open question), and a real terminal's own DECAWM
	// wrapping would otherwise race the repair pass's own wrap staging.
	os.Stdout.WriteString("\033[?7l")
	defer os.Stdout.WriteString("\033[?7h")

	d.Start()
	logger.Debug("probe battery sent")

	buf := make([]byte, 4096)
	deadline := time.Now().Add(5 * time.Second)
	for d.State() != termcap.StateDone && time.Now().Before(deadline) {
		os.Stdin.SetReadDeadline(time.Now().Add(timeout))
		n, err := os.Stdin.Read(buf)
		if n > 0 {
			d.AddInput(buf[:n])
		}
		if err != nil {
			// A read timeout (or any other error) with no sentinel seen
			// yet: give up waiting rather than hang forever on a terminal
			// that never answers.
			break
		}
	}
	if d.State() != termcap.StateDone {
		d.Cancel()
	}

	result := d.Result()
	term.Restore(int(os.Stdin.Fd()), oldState)

	if result.Cancelled {
		fmt.Println("detection did not complete before the timeout")
		return nil
	}

	fmt.Println(result.Descriptor)
	for _, c := range result.Capabilities.List() {
		fmt.Println("  " + c.String())
	}
	if result.PartialRepair {
		fmt.Println("warning: glitch repair was incomplete; consider a full redraw")
	}
	return nil
}
