package gui

import (
	"image"
	"strings"

	"circle-to-search/src/screenshot"
)

type Mode int

const (
	ModeRectangle Mode = iota
	ModeLasso
)

const (
	minSelectionSpan         = 5
	lassoMinPoints           = 8
	lassoCloseDistance       = 14
	lassoMinPointSeparation2 = 4
	lassoMinArea             = 100
)

func ParseMode(value string) Mode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lasso":
		return ModeLasso
	default:
		return ModeRectangle
	}
}

func (m Mode) String() string {
	if m == ModeLasso {
		return "lasso"
	}
	return "rectangle"
}

// Selection tracks one pointer gesture in overlay pixel coordinates. Regions it
// emits are translated by origin into virtual-screen coordinates.
type Selection struct {
	mode   Mode
	origin image.Point
	active bool
	start  screenshot.Point
	end    screenshot.Point
	points []screenshot.Point
}

func NewSelection(mode Mode, origin image.Point) *Selection {
	return &Selection{mode: mode, origin: origin}
}

func (s *Selection) Mode() Mode   { return s.mode }
func (s *Selection) Active() bool { return s.active }

// Toggle switches between rectangle and lasso. It is ignored mid-drag.
func (s *Selection) Toggle() Mode {
	if s.active {
		return s.mode
	}
	if s.mode == ModeLasso {
		s.mode = ModeRectangle
	} else {
		s.mode = ModeLasso
	}
	s.points = nil
	return s.mode
}

func (s *Selection) Press(p screenshot.Point) {
	s.active = true
	s.start, s.end = p, p
	s.points = nil
	if s.mode == ModeLasso {
		s.points = []screenshot.Point{p}
	}
}

func (s *Selection) Move(p screenshot.Point) {
	if !s.active {
		return
	}
	s.end = p
	if s.mode == ModeLasso {
		s.addPoint(p)
	}
}

// Release finishes the gesture. ok is false when the gesture is too small or
// the lasso was not closed; the selection is then reset and ready for another try.
func (s *Selection) Release(p screenshot.Point) (region screenshot.Region, ok bool) {
	if !s.active {
		return screenshot.Region{}, false
	}
	s.active = false
	s.end = p

	if s.mode == ModeLasso {
		s.addPoint(p)
		points := s.points
		s.points = nil
		return s.lassoRegion(points)
	}

	local := screenshot.RegionFromPoints(image.Pt(s.start.X, s.start.Y), image.Pt(s.end.X, s.end.Y))
	if local.Width <= minSelectionSpan || local.Height <= minSelectionSpan {
		return screenshot.Region{}, false
	}
	local.X += s.origin.X
	local.Y += s.origin.Y
	return local, true
}

// Rect returns the rubber-band rectangle in overlay pixels.
func (s *Selection) Rect() image.Rectangle {
	return image.Rect(s.start.X, s.start.Y, s.end.X, s.end.Y).Canon()
}

// Points returns the lasso path in overlay pixels.
func (s *Selection) Points() []screenshot.Point {
	return s.points
}

func (s *Selection) addPoint(p screenshot.Point) {
	if len(s.points) == 0 {
		s.points = append(s.points, p)
		return
	}
	if pointDistanceSquared(s.points[len(s.points)-1], p) >= lassoMinPointSeparation2 {
		s.points = append(s.points, p)
	}
}

func (s *Selection) lassoRegion(points []screenshot.Point) (screenshot.Region, bool) {
	if !lassoHasValidClosure(points) {
		return screenshot.Region{}, false
	}
	bounds := polygonBounds(points)
	if bounds.Dx() <= minSelectionSpan || bounds.Dy() <= minSelectionSpan || polygonArea(points) < lassoMinArea {
		return screenshot.Region{}, false
	}

	polygon := make([]screenshot.Point, len(points))
	for i, p := range points {
		polygon[i] = screenshot.Point{X: p.X + s.origin.X, Y: p.Y + s.origin.Y}
	}
	return screenshot.Region{
		X:       bounds.Min.X + s.origin.X,
		Y:       bounds.Min.Y + s.origin.Y,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Polygon: polygon,
	}, true
}

func pointDistanceSquared(a, b screenshot.Point) int {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

func lassoHasValidClosure(points []screenshot.Point) bool {
	if len(points) < lassoMinPoints {
		return false
	}
	start := points[0]
	end := points[len(points)-1]
	return pointDistanceSquared(start, end) <= lassoCloseDistance*lassoCloseDistance
}

func polygonBounds(points []screenshot.Point) image.Rectangle {
	if len(points) == 0 {
		return image.Rectangle{}
	}
	r := image.Rect(points[0].X, points[0].Y, points[0].X, points[0].Y)
	for _, p := range points[1:] {
		r.Min.X = min(r.Min.X, p.X)
		r.Min.Y = min(r.Min.Y, p.Y)
		r.Max.X = max(r.Max.X, p.X)
		r.Max.Y = max(r.Max.Y, p.Y)
	}
	return r
}

func polygonArea(points []screenshot.Point) int {
	if len(points) < 3 {
		return 0
	}

	var area2 int64
	for i := 0; i < len(points); i++ {
		j := (i + 1) % len(points)
		area2 += int64(points[i].X*points[j].Y - points[j].X*points[i].Y)
	}
	if area2 < 0 {
		area2 = -area2
	}
	return int(area2 / 2)
}
