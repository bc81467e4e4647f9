package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"circle-to-search/src/config"
	"circle-to-search/src/eventloop"
	"circle-to-search/src/hotkey"
	"circle-to-search/src/logutil"
	"circle-to-search/src/notification"
	"circle-to-search/src/popup"
	"circle-to-search/src/runtimeinit"
	"circle-to-search/src/session"
	"circle-to-search/src/singleinstance"
	"circle-to-search/src/tray"
)

const (
	appTitle         = "Circle to Search"
	flushTimeout     = 3 * time.Second
	preflightTimeout = 5 * time.Second
)

type mainOptions struct {
	runOnce    bool
	stdout     bool
	apiKeyPath string
	mode       string
	selector   string
}

func (o *mainOptions) loadOptions() config.LoadOptions {
	return config.LoadOptions{
		APIKeyPathOverride:  o.apiKeyPath,
		DefaultModeOverride: o.mode,
		SelectorOverride:    o.selector,
	}
}

type runOnceClient interface {
	TryRunOnce(ctx context.Context, outputToStdout bool) (bool, string, error)
}

var errSilentExit = errors.New("silent exit")

// exitStatusOverlayFailed tells the parent selector that the overlay could not
// run at all. Status 1 is reserved for a user cancel.
const exitStatusOverlayFailed = 2

type exitStatusError struct {
	status int
	err    error
}

func (e *exitStatusError) Error() string { return e.err.Error() }
func (e *exitStatusError) Unwrap() error { return e.err }

func exitStatus(err error) int {
	if err == nil {
		return 0
	}
	var se *exitStatusError
	if errors.As(err, &se) {
		return se.status
	}
	return 1
}

func main() {
	enableDPIAwareness()

	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, errSilentExit) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitStatus(err))
	}
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "circle-to-search",
		Short:         "Select a screen region and search it",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.runOnce {
				return handleRunOnceWithDelegation(opts, singleinstance.NewClient(), func() error {
					return runStandalone(opts)
				})
			}
			return runResident(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.runOnce, "run-once", false, "Search once and exit (delegates to a running instance when present)")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "With --run-once, print the result URL instead of notifying")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to OpenRouter API key file (highest precedence)")
	cmd.Flags().StringVar(&opts.mode, "mode", "", "Selection mode: rectangle or lasso")
	cmd.Flags().StringVar(&opts.selector, "selector", "", "Region selector: auto, slurp, slop or overlay")

	cmd.AddCommand(newOverlayCmd())
	return cmd
}

// normalizeLegacyArgs maps single-dash long flags (-run-once, -mode=x) to their
// double-dash form so old scripts keep working under cobra.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	long := []string{"run-once", "stdout", "api-key-path", "mode", "selector", "color"}
	normalized := make([]string, len(args))
	copy(normalized, args)
	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name := strings.TrimPrefix(arg, "-")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name = name[:eq]
		}
		for _, l := range long {
			if name == l {
				normalized[i] = "-" + arg
				break
			}
		}
	}
	return normalized
}

// handleRunOnceWithDelegation asks a resident to run the search. Only a
// missing or unreachable resident falls back to a standalone run; answers from
// a resident are final.
func handleRunOnceWithDelegation(opts *mainOptions, client runOnceClient, fallback func() error) error {
	// Load .env early so SINGLEINSTANCE_PORT_* are applied before the scan.
	_, _ = config.LoadWithOptions(opts.loadOptions())

	delegated, url, err := client.TryRunOnce(context.Background(), opts.stdout)
	var remote *singleinstance.RemoteError
	switch {
	case errors.Is(err, singleinstance.ErrCancelled):
		log.Printf("Delegated run cancelled by user")
		return nil
	case errors.Is(err, singleinstance.ErrBusy):
		return errors.New("a search is already in progress")
	case errors.As(err, &remote):
		return remote
	case err != nil:
		log.Printf("Delegation error: %v; falling back to standalone", err)
		return fallback()
	case !delegated:
		log.Printf("No resident detected (not delegated), running standalone")
		return fallback()
	}
	log.Printf("Delegated to resident")
	if opts.stdout && url != "" {
		fmt.Println(url)
	}
	return nil
}

func runStandalone(opts *mainOptions) error {
	ctx, cancel := signalContext()
	defer cancel()

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:        opts.loadOptions(),
		SetupLogging:       logutil.Setup,
		ShowBlockingErrors: !opts.stdout,
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	ctrl, err := rt.Controller()
	if err != nil {
		return err
	}

	var target session.ResultTarget = session.PopupTarget{}
	if opts.stdout {
		target = session.StdoutTarget{}
	}
	_, err = ctrl.Execute(ctx, target)
	notification.Flush(flushTimeout)
	switch {
	case err == nil, errors.Is(err, session.ErrSelectionCancelled):
		return nil
	case opts.stdout:
		return errors.New(session.UserMessage(err))
	default:
		return errSilentExit
	}
}

// ensureNoResident refuses to start a second resident while one answers PING.
func ensureNoResident(ctx context.Context, detect func(context.Context) (int, bool)) error {
	if port, ok := detect(ctx); ok {
		log.Printf("Pre-flight: resident already answering on port %d", port)
		return fmt.Errorf("already running on port %d", port)
	}
	log.Printf("Pre-flight: no resident found")
	return nil
}

func runResident(opts *mainOptions) error {
	// Load .env early so SINGLEINSTANCE_PORT_* are available for pre-flight.
	_, _ = config.LoadWithOptions(opts.loadOptions())
	preflightCtx, cancelPreflight := context.WithTimeout(context.Background(), preflightTimeout)
	err := ensureNoResident(preflightCtx, singleinstance.DetectResidentPort)
	cancelPreflight()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	rt, err := runtimeinit.Bootstrap(ctx, runtimeinit.Options{
		LoadOptions:        opts.loadOptions(),
		SetupLogging:       logutil.Setup,
		ShowBlockingErrors: true,
	})
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg := rt.Config

	ctrl, err := rt.Controller()
	if err != nil {
		return err
	}

	log.Printf("%s initialized", appTitle)
	log.Printf("Hotkey: %s", cfg.Hotkey)
	log.Printf("OCR engine: %s, deadline %ds", rt.Recognizer.EngineName(), cfg.OCRDeadlineSec)
	log.Printf("Capture backend: %s", rt.Capturer.BackendName())

	tooltip := fmt.Sprintf("%s - Press %s to search", appTitle, cfg.Hotkey)
	tray.SetAboutHotkey(cfg.Hotkey)

	loop := eventloop.New(ctrl, singleinstance.NewServer())
	loop.SetDefaultTooltip(tooltip)

	trayIcon, err := tray.New(tray.Config{
		Title:     appTitle,
		Tooltip:   tooltip,
		Color:     cfg.SelectionColor,
		OnCapture: loop.Trigger,
		OnQuit:    cancel,
	})
	if err != nil {
		log.Printf("Tray unavailable: %v", err)
	} else {
		go trayIcon.Run()
		defer trayIcon.Destroy()
	}

	if err := loop.StartHotkey(cfg.Hotkey); err != nil {
		log.Printf("Hotkey disabled: %v", err)
		_ = popup.Show(fmt.Sprintf("Hotkey %q is invalid, use the tray menu", cfg.Hotkey))
	}
	defer hotkey.Stop()

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("event loop stopped: %w", err)
	}
	log.Printf("Shutting down")
	return nil
}

// signalContext is cancelled on SIGINT/SIGTERM, which also kills a running selector.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
