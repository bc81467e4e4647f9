package main

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"circle-to-search/src/singleinstance"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"circle-to-search", "-run-once", "-api-key-path", "/tmp/key"},
			out:  []string{"circle-to-search", "--run-once", "--api-key-path", "/tmp/key"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"circle-to-search", "-run-once=true", "-mode=lasso"},
			out:  []string{"circle-to-search", "--run-once=true", "--mode=lasso"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"circle-to-search", "--run-once", "--other", "-x", "overlay"},
			out:  []string{"circle-to-search", "--run-once", "--other", "-x", "overlay"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeLegacyArgs(tt.in); !reflect.DeepEqual(got, tt.out) {
				t.Fatalf("normalizeLegacyArgs(%v) = %v, want %v", tt.in, got, tt.out)
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--run-once", "--stdout", "--api-key-path", "/tmp/key", "--mode", "lasso", "--selector", "slurp"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.runOnce || !opts.stdout {
		t.Fatal("Expected runOnce and stdout")
	}
	lo := opts.loadOptions()
	if lo.APIKeyPathOverride != "/tmp/key" || lo.DefaultModeOverride != "lasso" || lo.SelectorOverride != "slurp" {
		t.Fatalf("loadOptions = %+v", lo)
	}
}

func TestOverlaySubcommandRegistered(t *testing.T) {
	cmd := newRootCmd(&mainOptions{})
	sub, _, err := cmd.Find([]string{"overlay"})
	if err != nil || sub.Name() != "overlay" {
		t.Fatalf("overlay subcommand not found: %v", err)
	}
	if !sub.Hidden {
		t.Error("overlay subcommand should be hidden")
	}
}

type fakeClient struct {
	delegated bool
	url       string
	err       error
	called    bool
}

func (f *fakeClient) TryRunOnce(ctx context.Context, outputToStdout bool) (bool, string, error) {
	f.called = true
	return f.delegated, f.url, f.err
}

func TestHandleRunOnceWithDelegation(t *testing.T) {
	tests := []struct {
		name         string
		client       *fakeClient
		wantFallback bool
		wantErr      bool
	}{
		{"delegated", &fakeClient{delegated: true}, false, false},
		{"no resident", &fakeClient{}, true, false},
		{"unreachable resident", &fakeClient{err: errors.New("connect to resident: refused")}, true, false},
		{"cancelled", &fakeClient{delegated: true, err: singleinstance.ErrCancelled}, false, false},
		{"busy", &fakeClient{delegated: true, err: singleinstance.ErrBusy}, false, true},
		{"remote failure", &fakeClient{delegated: true, err: &singleinstance.RemoteError{Msg: "Capture: no backend"}}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallbackCalled := false
			err := handleRunOnceWithDelegation(&mainOptions{}, tt.client, func() error {
				fallbackCalled = true
				return nil
			})
			if !tt.client.called {
				t.Fatal("Expected client.TryRunOnce to be called")
			}
			if fallbackCalled != tt.wantFallback {
				t.Errorf("fallback called = %v, want %v", fallbackCalled, tt.wantFallback)
			}
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExitStatus(t *testing.T) {
	overlayFailed := &exitStatusError{status: exitStatusOverlayFailed, err: errors.New("no desktop")}
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, 0},
		{"cancel", errSilentExit, 1},
		{"generic failure", errors.New("boom"), 1},
		{"overlay failure", overlayFailed, exitStatusOverlayFailed},
		{"wrapped overlay failure", fmt.Errorf("run: %w", overlayFailed), exitStatusOverlayFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitStatus(tt.err); got != tt.want {
				t.Fatalf("exitStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestOverlayFlagErrorIsNotACancel(t *testing.T) {
	cmd := newRootCmd(&mainOptions{})
	cmd.SetArgs([]string{"overlay", "--no-such-flag"})
	err := cmd.Execute()
	if err == nil {
		t.Fatal("expected flag error")
	}
	if got := exitStatus(err); got != exitStatusOverlayFailed {
		t.Fatalf("exitStatus = %d, want %d", got, exitStatusOverlayFailed)
	}
}

func TestEnsureNoResident(t *testing.T) {
	none := func(context.Context) (int, bool) { return 0, false }
	if err := ensureNoResident(context.Background(), none); err != nil {
		t.Fatalf("ensureNoResident with no resident: %v", err)
	}

	found := func(context.Context) (int, bool) { return 49607, true }
	err := ensureNoResident(context.Background(), found)
	if err == nil || err.Error() != "already running on port 49607" {
		t.Fatalf("ensureNoResident = %v, want already running on port 49607", err)
	}
}
