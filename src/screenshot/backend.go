package screenshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/kbinani/screenshot"
)

const (
	BackendGrim = "grim"
	BackendMaim = "maim"
	BackendX11  = "x11"
)

// Backend is one platform screenshot mechanism. Implementations are chosen
// once at startup by Probe and never swapped during a run.
type Backend interface {
	Name() string
	// Bounds reports the current virtual-screen rectangle.
	Bounds(ctx context.Context) (image.Rectangle, error)
	Capture(ctx context.Context, rect image.Rectangle) (image.Image, error)
}

// ErrNoBackend is returned by Probe when nothing on the host can take screenshots.
var ErrNoBackend = errors.New("no screenshot backend available")

type commandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return stdout.Bytes(), nil
}

// probeEnv isolates host lookups so probing can be tested.
type probeEnv struct {
	lookPath    func(string) (string, error)
	getenv      func(string) string
	numDisplays func() int
}

func hostEnv() probeEnv {
	return probeEnv{
		lookPath:    exec.LookPath,
		getenv:      os.Getenv,
		numDisplays: screenshot.NumActiveDisplays,
	}
}

// Probe selects the first available backend in fixed priority order
// (grim, maim, x11). A non-auto preference restricts probing to that backend.
func Probe(preference string) (Backend, error) {
	return probe(preference, hostEnv(), runCommand)
}

func probe(preference string, env probeEnv, run commandRunner) (Backend, error) {
	candidates := []struct {
		name      string
		available func() bool
		build     func() Backend
	}{
		{
			name: BackendGrim,
			available: func() bool {
				return env.getenv("WAYLAND_DISPLAY") != "" && hasBinary(env, "grim")
			},
			build: func() Backend { return &grimBackend{run: run} },
		},
		{
			name: BackendMaim,
			available: func() bool {
				return env.getenv("DISPLAY") != "" && hasBinary(env, "maim") && env.numDisplays() > 0
			},
			build: func() Backend { return &maimBackend{run: run} },
		},
		{
			name:      BackendX11,
			available: func() bool { return env.numDisplays() > 0 },
			build:     func() Backend { return nativeBackend{} },
		},
	}

	pref := strings.ToLower(strings.TrimSpace(preference))
	for _, c := range candidates {
		if pref != "" && pref != "auto" && pref != c.name {
			continue
		}
		if c.available() {
			log.Printf("Screenshot: using %s backend", c.name)
			return c.build(), nil
		}
		log.Printf("Screenshot: %s backend unavailable", c.name)
	}
	return nil, ErrNoBackend
}

func hasBinary(env probeEnv, name string) bool {
	_, err := env.lookPath(name)
	return err == nil
}

// grimBackend shells out to grim on wlroots-style Wayland compositors.
type grimBackend struct {
	run commandRunner
}

func (g *grimBackend) Name() string { return BackendGrim }

// Bounds reads the output layout from the compositor, so outputs left of or
// above the primary keep their negative coordinates. Without swaymsg it falls
// back to the size of a full grim shot anchored at the origin.
func (g *grimBackend) Bounds(ctx context.Context) (image.Rectangle, error) {
	layout, err := g.outputLayout(ctx)
	if err == nil {
		return layout, nil
	}
	log.Printf("Screenshot: output layout unavailable (%v), measuring a full grim shot", err)

	out, err := g.run(ctx, "grim", "-s", "1", "-l", "0", "-")
	if err != nil {
		return image.Rectangle{}, err
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("grim: decode layout: %w", err)
	}
	return image.Rect(0, 0, cfg.Width, cfg.Height), nil
}

type swayOutput struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
	Rect   struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"rect"`
}

// outputLayout is the union of the active outputs reported by swaymsg.
func (g *grimBackend) outputLayout(ctx context.Context) (image.Rectangle, error) {
	out, err := g.run(ctx, "swaymsg", "-r", "-t", "get_outputs")
	if err != nil {
		return image.Rectangle{}, err
	}
	var outputs []swayOutput
	if err := json.Unmarshal(out, &outputs); err != nil {
		return image.Rectangle{}, fmt.Errorf("swaymsg: decode outputs: %w", err)
	}
	var union image.Rectangle
	for _, o := range outputs {
		if !o.Active || o.Rect.Width <= 0 || o.Rect.Height <= 0 {
			continue
		}
		union = union.Union(image.Rect(o.Rect.X, o.Rect.Y, o.Rect.X+o.Rect.Width, o.Rect.Y+o.Rect.Height))
	}
	if union.Empty() {
		return image.Rectangle{}, errors.New("swaymsg: no active outputs")
	}
	return union, nil
}

func (g *grimBackend) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	geometry := fmt.Sprintf("%d,%d %dx%d", rect.Min.X, rect.Min.Y, rect.Dx(), rect.Dy())
	out, err := g.run(ctx, "grim", "-s", "1", "-l", "0", "-g", geometry, "-")
	if err != nil {
		return nil, err
	}
	return decode("grim", out)
}

// maimBackend shells out to maim on X11 sessions.
type maimBackend struct {
	run commandRunner
}

func (m *maimBackend) Name() string { return BackendMaim }

func (m *maimBackend) Bounds(ctx context.Context) (image.Rectangle, error) {
	return displayUnion()
}

func (m *maimBackend) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	geometry := fmt.Sprintf("%dx%d+%d+%d", rect.Dx(), rect.Dy(), rect.Min.X, rect.Min.Y)
	out, err := m.run(ctx, "maim", "-u", "-f", "png", "-g", geometry)
	if err != nil {
		return nil, err
	}
	return decode("maim", out)
}

// nativeBackend captures in-process through kbinani/screenshot. It covers
// plain X11 as well as Windows and macOS.
type nativeBackend struct{}

func (nativeBackend) Name() string { return BackendX11 }

func (nativeBackend) Bounds(ctx context.Context) (image.Rectangle, error) {
	return displayUnion()
}

func (nativeBackend) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := screenshot.CaptureRect(rect)
	if err != nil {
		return nil, fmt.Errorf("failed to capture region: %w", err)
	}
	return img, nil
}

// displayUnion computes the union of all active display bounds.
func displayUnion() (image.Rectangle, error) {
	n := screenshot.NumActiveDisplays()
	if n == 0 {
		return image.Rectangle{}, fmt.Errorf("no active displays found")
	}
	union := screenshot.GetDisplayBounds(0)
	for i := 1; i < n; i++ {
		union = union.Union(screenshot.GetDisplayBounds(i))
	}
	return union, nil
}

func decode(tool string, data []byte) (image.Image, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: decode output: %w", tool, err)
	}
	return img, nil
}
