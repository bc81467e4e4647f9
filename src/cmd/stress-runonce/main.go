package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"circle-to-search/src/singleinstance"
)

type stressOptions struct {
	n        int
	mode     string
	deadline time.Duration
	// detect finds the resident to aim at. Defaults to a PING scan of the port range.
	detect func(ctx context.Context) (int, bool)
}

type tally struct {
	ok, busy, cancelled, timeout, notDelegated, failed atomic.Int32
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-runonce",
		Short:         "Fire concurrent run-once requests at a resident to exercise the busy path",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.mode != "std" && opts.mode != "notify" {
				return fmt.Errorf("unknown mode %q (want std or notify)", opts.mode)
			}
			detect := opts.detect
			if detect == nil {
				detect = singleinstance.DetectResidentPort
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), opts.deadline)
			port, ok := detect(ctx)
			cancel()
			if !ok {
				start, end := singleinstance.PortRange()
				return fmt.Errorf("no resident answering on ports %d-%d", start, end)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Resident on port %d, launching %d clients (%s)\n", port, opts.n, opts.mode)

			t := launch(*opts, singleinstance.NewClient())
			report(cmd.OutOrStdout(), opts.n, t)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", "std", "std|notify: URL on stdout or desktop notification")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func launch(opts stressOptions, client singleinstance.Client) *tally {
	var wg sync.WaitGroup
	t := &tally{}
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := client.TryRunOnce(ctx, opts.mode == "std")
			classify(t, delegated, err)
		}()
	}
	wg.Wait()
	return t
}

func classify(t *tally, delegated bool, err error) {
	switch {
	case errors.Is(err, singleinstance.ErrBusy):
		t.busy.Add(1)
	case errors.Is(err, singleinstance.ErrCancelled):
		t.cancelled.Add(1)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, os.ErrDeadlineExceeded):
		t.timeout.Add(1)
	case err != nil:
		t.failed.Add(1)
	case !delegated:
		t.notDelegated.Add(1)
	default:
		t.ok.Add(1)
	}
}

func report(w io.Writer, launched int, t *tally) {
	fmt.Fprintf(w, "launched=%d ok=%d busy=%d cancelled=%d timeout=%d not_delegated=%d err=%d\n",
		launched, t.ok.Load(), t.busy.Load(), t.cancelled.Load(), t.timeout.Load(), t.notDelegated.Load(), t.failed.Load())
}
