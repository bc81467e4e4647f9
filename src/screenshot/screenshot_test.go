package screenshot

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
)

type fakeBackend struct {
	bounds    image.Rectangle
	boundsErr error
	// scale multiplies the returned image size to simulate HiDPI backends.
	scale    int
	captures int
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) Bounds(ctx context.Context) (image.Rectangle, error) {
	return f.bounds, f.boundsErr
}

func (f *fakeBackend) Capture(ctx context.Context, rect image.Rectangle) (image.Image, error) {
	f.captures++
	scale := f.scale
	if scale == 0 {
		scale = 1
	}
	// Offset origin like real backends that keep screen coordinates.
	img := image.NewRGBA(image.Rect(rect.Min.X, rect.Min.Y, rect.Min.X+rect.Dx()*scale, rect.Min.Y+rect.Dy()*scale))
	for y := img.Rect.Min.Y; y < img.Rect.Max.Y; y++ {
		for x := img.Rect.Min.X; x < img.Rect.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	return img, nil
}

func TestRegionFromPointsNormalizes(t *testing.T) {
	tests := []struct {
		name string
		a, b image.Point
		want Region
	}{
		{"down-right", image.Pt(10, 20), image.Pt(110, 70), Region{X: 10, Y: 20, Width: 100, Height: 50}},
		{"up-left", image.Pt(110, 70), image.Pt(10, 20), Region{X: 10, Y: 20, Width: 100, Height: 50}},
		{"up-right", image.Pt(10, 70), image.Pt(110, 20), Region{X: 10, Y: 20, Width: 100, Height: 50}},
		{"zero", image.Pt(5, 5), image.Pt(5, 40), Region{X: 5, Y: 5, Width: 0, Height: 35}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RegionFromPoints(tt.a, tt.b)
			if got.X != tt.want.X || got.Y != tt.want.Y || got.Width != tt.want.Width || got.Height != tt.want.Height {
				t.Fatalf("RegionFromPoints = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCaptureExactDimensions(t *testing.T) {
	backend := &fakeBackend{bounds: image.Rect(0, 0, 1920, 1080)}
	c := NewCapturer(backend)

	regions := []Region{
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 100, Y: 200, Width: 320, Height: 40},
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1919, Y: 1079, Width: 1, Height: 1},
	}
	for _, r := range regions {
		img, err := c.Capture(context.Background(), r)
		if err != nil {
			t.Fatalf("Capture(%v) failed: %v", r, err)
		}
		if img.Width() != r.Width || img.Height() != r.Height {
			t.Fatalf("Capture(%v) returned %dx%d", r, img.Width(), img.Height())
		}
		if len(img.Bytes()) != r.Width*r.Height*4 {
			t.Fatalf("Capture(%v) returned %d bytes", r, len(img.Bytes()))
		}
	}
}

func TestCaptureRejectsDegenerateRegion(t *testing.T) {
	backend := &fakeBackend{bounds: image.Rect(0, 0, 100, 100)}
	for _, c := range []*Capturer{NewCapturer(backend), NewCapturer(nil)} {
		for _, r := range []Region{{Width: 0, Height: 10}, {Width: 10, Height: 0}, {Width: -5, Height: 5}} {
			_, err := c.Capture(context.Background(), r)
			if !IsReason(err, ReasonInvalidRegion) {
				t.Fatalf("Capture(%v) error = %v, want invalid region", r, err)
			}
		}
	}
	if backend.captures != 0 {
		t.Fatalf("backend invoked %d times for degenerate regions", backend.captures)
	}
}

func TestCaptureWithoutBackend(t *testing.T) {
	_, err := NewCapturer(nil).Capture(context.Background(), Region{Width: 10, Height: 10})
	if !IsReason(err, ReasonNoBackend) {
		t.Fatalf("expected no backend error, got %v", err)
	}
	if !errors.Is(err, ErrNoBackend) {
		t.Fatalf("expected error to wrap ErrNoBackend, got %v", err)
	}
}

func TestCaptureOutOfBounds(t *testing.T) {
	backend := &fakeBackend{bounds: image.Rect(0, 0, 800, 600)}
	c := NewCapturer(backend)

	for _, r := range []Region{
		{X: 700, Y: 0, Width: 200, Height: 10},
		{X: -1, Y: 0, Width: 10, Height: 10},
		{X: 0, Y: 590, Width: 10, Height: 20},
	} {
		_, err := c.Capture(context.Background(), r)
		if !IsReason(err, ReasonOutOfBounds) {
			t.Fatalf("Capture(%v) error = %v, want out of bounds", r, err)
		}
	}
	if backend.captures != 0 {
		t.Fatalf("backend invoked for out-of-bounds regions")
	}
}

func TestCaptureRejectsScaledBackendOutput(t *testing.T) {
	c := NewCapturer(&fakeBackend{bounds: image.Rect(0, 0, 800, 600), scale: 2})
	_, err := c.Capture(context.Background(), Region{X: 10, Y: 10, Width: 50, Height: 50})
	if !IsReason(err, ReasonBackend) {
		t.Fatalf("expected backend error for scaled output, got %v", err)
	}
}

func TestCaptureBoundsFailure(t *testing.T) {
	c := NewCapturer(&fakeBackend{boundsErr: errors.New("compositor gone")})
	_, err := c.Capture(context.Background(), Region{Width: 5, Height: 5})
	if !IsReason(err, ReasonBackend) {
		t.Fatalf("expected backend error, got %v", err)
	}
}

func TestCaptureMasksLasso(t *testing.T) {
	c := NewCapturer(&fakeBackend{bounds: image.Rect(0, 0, 100, 100)})
	region := Region{
		X: 10, Y: 10, Width: 20, Height: 20,
		Polygon: []Point{{X: 15, Y: 15}, {X: 25, Y: 15}, {X: 25, Y: 25}, {X: 15, Y: 25}},
	}
	img, err := c.Capture(context.Background(), region)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	raw := img.Image()
	if r, _, _, _ := raw.At(0, 0).RGBA(); r>>8 != 255 {
		t.Fatalf("expected corner outside lasso to be white")
	}
	if r, _, _, _ := raw.At(10, 10).RGBA(); r>>8 != 10 {
		t.Fatalf("expected pixel inside lasso to keep captured colour")
	}
}

func TestImageAccessorsCopy(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img := NewImage(src)

	b := img.Bytes()
	b[0] = 99
	if img.Bytes()[0] == 99 {
		t.Fatal("Bytes exposed the internal buffer")
	}
	src.Pix[0] = 42
	if img.Bytes()[0] == 42 {
		t.Fatal("NewImage kept a reference to the source")
	}
	if img.Format() != "NRGBA" {
		t.Fatalf("unexpected format %q", img.Format())
	}

	data, err := img.PNG()
	if err != nil {
		t.Fatalf("PNG failed: %v", err)
	}
	if len(data) < 8 || string(data[1:4]) != "PNG" {
		t.Fatalf("PNG output missing signature")
	}
}
