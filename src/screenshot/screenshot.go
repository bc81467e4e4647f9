package screenshot

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Region represents a screen region to capture
type Region struct {
	X      int
	Y      int
	Width  int
	Height int
	// Polygon is optional and, when present, is expressed in absolute
	// virtual-screen coordinates. Capture uses it to mask pixels
	// outside the polygon while still returning a rectangular image.
	Polygon []Point
}

type Point struct {
	X int
	Y int
}

// RegionFromPoints builds a region from two drag corners in any order.
func RegionFromPoints(a, b image.Point) Region {
	r := image.Rectangle{Min: a, Max: b}.Canon()
	return Region{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

func (r Region) String() string {
	return fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height)
}

// Image is an owned capture raster. The pixel buffer is never shared with the
// backend that produced it, and accessors hand out copies.
type Image struct {
	pix *image.NRGBA
}

// NewImage copies src into a new buffer anchored at the origin.
func NewImage(src image.Image) *Image {
	return &Image{pix: imaging.Clone(src)}
}

func (i *Image) Width() int  { return i.pix.Rect.Dx() }
func (i *Image) Height() int { return i.pix.Rect.Dy() }

// Format names the pixel layout of Bytes.
func (i *Image) Format() string { return "NRGBA" }

// Bytes returns a copy of the raw pixel data, 4 bytes per pixel, row major.
func (i *Image) Bytes() []byte {
	out := make([]byte, len(i.pix.Pix))
	copy(out, i.pix.Pix)
	return out
}

// Image returns a copy of the raster for consumers that need image.Image.
func (i *Image) Image() image.Image {
	return imaging.Clone(i.pix)
}

func (i *Image) PNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, i.pix, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image as PNG: %w", err)
	}
	return buf.Bytes(), nil
}
