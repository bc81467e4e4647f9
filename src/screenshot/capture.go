package screenshot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/disintegration/imaging"
)

// Reason classifies a capture failure.
type Reason int

const (
	ReasonNoBackend Reason = iota + 1
	ReasonOutOfBounds
	ReasonInvalidRegion
	ReasonBackend
)

func (r Reason) String() string {
	switch r {
	case ReasonNoBackend:
		return "no backend"
	case ReasonOutOfBounds:
		return "out of bounds"
	case ReasonInvalidRegion:
		return "invalid region"
	case ReasonBackend:
		return "backend error"
	default:
		return "unknown"
	}
}

type CaptureError struct {
	Reason Reason
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return "capture failed: " + e.Reason.String()
	}
	return fmt.Sprintf("capture failed: %s: %v", e.Reason, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// IsReason reports whether err is a CaptureError with the given reason.
func IsReason(err error, reason Reason) bool {
	var ce *CaptureError
	return errors.As(err, &ce) && ce.Reason == reason
}

// Capturer produces exactly-sized images of screen regions using the backend
// picked at startup. A nil backend makes every capture fail with ReasonNoBackend.
type Capturer struct {
	backend Backend
}

func NewCapturer(backend Backend) *Capturer {
	return &Capturer{backend: backend}
}

// BackendName returns the selected backend, or "" when none was found.
func (c *Capturer) BackendName() string {
	if c == nil || c.backend == nil {
		return ""
	}
	return c.backend.Name()
}

// Capture grabs region from the screen. The returned image is Width x Height
// pixels, never scaled.
func (c *Capturer) Capture(ctx context.Context, region Region) (*Image, error) {
	if region.Empty() {
		return nil, &CaptureError{
			Reason: ReasonInvalidRegion,
			Err:    fmt.Errorf("invalid region dimensions: width=%d, height=%d", region.Width, region.Height),
		}
	}
	if c == nil || c.backend == nil {
		return nil, &CaptureError{Reason: ReasonNoBackend, Err: ErrNoBackend}
	}

	bounds, err := c.backend.Bounds(ctx)
	if err != nil {
		return nil, &CaptureError{Reason: ReasonBackend, Err: fmt.Errorf("display bounds: %w", err)}
	}
	rect := region.Rect()
	if !rect.In(bounds) {
		return nil, &CaptureError{
			Reason: ReasonOutOfBounds,
			Err:    fmt.Errorf("region %s outside display %v", region, bounds),
		}
	}

	start := time.Now()
	raw, err := c.backend.Capture(ctx, rect)
	if err != nil {
		return nil, &CaptureError{Reason: ReasonBackend, Err: err}
	}

	pix := imaging.Clone(raw)
	if pix.Rect.Dx() != region.Width || pix.Rect.Dy() != region.Height {
		return nil, &CaptureError{
			Reason: ReasonBackend,
			Err: fmt.Errorf("%s returned %dx%d, want %dx%d",
				c.backend.Name(), pix.Rect.Dx(), pix.Rect.Dy(), region.Width, region.Height),
		}
	}

	if len(region.Polygon) >= 3 {
		applyPolygonMask(pix, region)
	}

	log.Printf("Screenshot: captured %s via %s in %v", region, c.backend.Name(), time.Since(start))
	return &Image{pix: pix}, nil
}
