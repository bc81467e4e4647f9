package overlay

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"circle-to-search/src/screenshot"
)

const (
	SelectorSlurp   = "slurp"
	SelectorSlop    = "slop"
	SelectorOverlay = "overlay"
)

// ErrNoDisplay means no selector can run because there is no display server.
var ErrNoDisplay = errors.New("no display server available for region selection")

// Selector defines a blocking region-selection API.
// Returns (region, cancelled, error). If cancelled is true, region is undefined and err is nil.
// Cancelling ctx terminates the selector and returns ctx.Err().
type Selector interface {
	Select(ctx context.Context) (screenshot.Region, bool, error)
}

// Options drive selector probing.
type Options struct {
	// Preference is auto, slurp, slop or overlay.
	Preference string
	// Mode is the built-in overlay's starting mode (rectangle or lasso).
	Mode  string
	Color string
	// Executable is the binary that hosts the overlay subcommand. Defaults to os.Executable.
	Executable string
}

type runResult struct {
	stdout   []byte
	stderr   string
	exitCode int
}

type commandRunner func(ctx context.Context, name string, args ...string) (runResult, error)

func runCommand(ctx context.Context, name string, args ...string) (runResult, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	msg := strings.TrimSpace(stderr.String())
	if msg != "" {
		log.Printf("Selector %s stderr: %s", name, msg)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return runResult{stdout: stdout.Bytes(), stderr: msg, exitCode: exitErr.ExitCode()}, nil
	}
	if err != nil {
		return runResult{}, fmt.Errorf("%s: %w", name, err)
	}
	return runResult{stdout: stdout.Bytes()}, nil
}

// commandSelector runs an external selector process that speaks the
// "x,y wxh" stdout contract.
type commandSelector struct {
	name string
	path string
	args []string
	run  commandRunner
}

func (c *commandSelector) Name() string { return c.name }

func (c *commandSelector) Select(ctx context.Context) (screenshot.Region, bool, error) {
	for {
		res, err := c.run(ctx, c.path, c.args...)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return screenshot.Region{}, false, ctxErr
		}
		if err != nil {
			return screenshot.Region{}, false, err
		}

		out := strings.TrimSpace(string(res.stdout))
		if res.exitCode != 0 {
			if res.exitCode == 1 && out == "" {
				log.Printf("Selector %s: cancelled", c.name)
				return screenshot.Region{}, true, nil
			}
			if res.stderr != "" {
				return screenshot.Region{}, false, fmt.Errorf("%s exited with status %d: %s", c.name, res.exitCode, lastLine(res.stderr))
			}
			return screenshot.Region{}, false, fmt.Errorf("%s exited with status %d", c.name, res.exitCode)
		}
		if out == "" {
			log.Printf("Selector %s: no output, treating as cancel", c.name)
			return screenshot.Region{}, true, nil
		}

		region, err := ParseSelection(out)
		if err != nil {
			return screenshot.Region{}, false, fmt.Errorf("%s: %w", c.name, err)
		}
		if region.Empty() {
			log.Printf("Selector %s: zero-area selection %s, selecting again", c.name, region)
			continue
		}
		log.Printf("Selector %s: region %s", c.name, region)
		return region, false, nil
	}
}

type probeEnv struct {
	goos     string
	lookPath func(string) (string, error)
	getenv   func(string) string
}

// NewSelector probes once for a selector. Lasso mode prefers the built-in
// overlay because slurp and slop only draw rectangles.
func NewSelector(opts Options) (Selector, error) {
	env := probeEnv{goos: runtime.GOOS, lookPath: exec.LookPath, getenv: os.Getenv}
	if opts.Executable == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		opts.Executable = exe
	}
	return newSelector(opts, env, runCommand)
}

func newSelector(opts Options, env probeEnv, run commandRunner) (Selector, error) {
	wayland := env.getenv("WAYLAND_DISPLAY") != ""
	x11 := env.getenv("DISPLAY") != ""
	hasDisplay := wayland || x11 || env.goos == "windows" || env.goos == "darwin"
	if !hasDisplay {
		return nil, ErrNoDisplay
	}

	mode := strings.ToLower(strings.TrimSpace(opts.Mode))
	if mode == "" {
		mode = "rectangle"
	}
	builtin := &commandSelector{
		name: SelectorOverlay,
		path: opts.Executable,
		args: []string{"overlay", "--mode", mode, "--color", opts.Color},
		run:  run,
	}
	slurp := func() Selector {
		return &commandSelector{name: SelectorSlurp, path: "slurp", args: []string{"-f", "%x,%y %wx%h"}, run: run}
	}
	slop := func() Selector {
		return &commandSelector{name: SelectorSlop, path: "slop", args: []string{"-f", "%x,%y %wx%h"}, run: run}
	}
	has := func(bin string) bool {
		_, err := env.lookPath(bin)
		return err == nil
	}

	pref := strings.ToLower(strings.TrimSpace(opts.Preference))
	switch pref {
	case SelectorSlurp:
		if !has("slurp") {
			return nil, fmt.Errorf("selector slurp not found in PATH")
		}
		return slurp(), nil
	case SelectorSlop:
		if !has("slop") {
			return nil, fmt.Errorf("selector slop not found in PATH")
		}
		return slop(), nil
	case SelectorOverlay:
		return builtin, nil
	}

	if mode == "lasso" {
		log.Printf("Selector: lasso mode, using built-in overlay")
		return builtin, nil
	}
	switch {
	case wayland && has("slurp"):
		log.Printf("Selector: using slurp")
		return slurp(), nil
	case x11 && has("slop"):
		log.Printf("Selector: using slop")
		return slop(), nil
	default:
		log.Printf("Selector: using built-in overlay")
		return builtin, nil
	}
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}

// Name reports which selector implementation s is, for logs and the tray tooltip.
func Name(s Selector) string {
	if n, ok := s.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "custom"
}
