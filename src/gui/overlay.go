package gui

import (
	"errors"
	"image"
	"image/color"
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"
	"github.com/kbinani/screenshot"
	"github.com/lucasb-eyer/go-colorful"

	shot "circle-to-search/src/screenshot"
)

const selectionHint = "Drag to select. Tab toggles lasso. Esc cancels."

var errNoDesktop = errors.New("fyne driver has no desktop support")

// OverlayOptions configures the built-in selection overlay.
type OverlayOptions struct {
	Mode  Mode
	Color string
}

// RunOverlay shows a full-screen selection overlay over the primary display and
// blocks until the user confirms or cancels. It owns the process main thread,
// so it is only called from the dedicated overlay subcommand.
func RunOverlay(opts OverlayOptions) (shot.Region, bool, error) {
	a := app.NewWithID("circle-to-search.overlay")
	drv, ok := a.Driver().(desktop.Driver)
	if !ok {
		return shot.Region{}, false, errNoDesktop
	}

	bounds := image.Rectangle{}
	var background image.Image
	if screenshot.NumActiveDisplays() > 0 {
		bounds = screenshot.GetDisplayBounds(0)
		img, err := screenshot.CaptureRect(bounds)
		if err != nil {
			log.Printf("OVERLAY: background snapshot failed: %v", err)
		} else {
			background = img
		}
	}

	w := drv.CreateSplashWindow()
	w.SetPadded(false)

	var (
		result    shot.Region
		confirmed bool
	)
	finish := func() {
		w.Close()
		a.Quit()
	}

	area := newSelectionArea(NewSelection(opts.Mode, bounds.Min), parseSelectionColor(opts.Color), background)
	area.scale = func() float32 { return w.Canvas().Scale() }
	area.onSelected = func(region shot.Region) {
		log.Printf("OVERLAY: selected %s (points=%d)", region, len(region.Polygon))
		result, confirmed = region, true
		finish()
	}

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeyEscape:
			log.Printf("OVERLAY: cancelled")
			finish()
		case fyne.KeyTab, fyne.KeySpace:
			log.Printf("OVERLAY: mode %s", area.selection.Toggle())
			area.Refresh()
		}
	})

	w.SetContent(area)
	w.SetFullScreen(true)
	w.RequestFocus()
	w.ShowAndRun()

	if !confirmed {
		return shot.Region{}, true, nil
	}
	return result, false, nil
}

func parseSelectionColor(hex string) colorful.Color {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex("#1a73e8")
	}
	return c
}

// selectionArea is the interactive layer: screen snapshot, dim shade, the
// rubber band and lasso path.
type selectionArea struct {
	widget.BaseWidget

	selection  *Selection
	scale      func() float32
	onSelected func(shot.Region)

	shade *canvas.Rectangle
	band  *canvas.Rectangle
	path  *fyne.Container
	hint  *canvas.Text
	root  *fyne.Container
	tint  color.NRGBA
}

func newSelectionArea(sel *Selection, accent colorful.Color, background image.Image) *selectionArea {
	r, g, b := accent.RGB255()
	s := &selectionArea{
		selection: sel,
		scale:     func() float32 { return 1 },
		tint:      color.NRGBA{R: r, G: g, B: b, A: 255},
	}

	s.shade = canvas.NewRectangle(color.NRGBA{A: 90})
	s.band = canvas.NewRectangle(color.NRGBA{R: r, G: g, B: b, A: 40})
	s.band.StrokeColor = s.tint
	s.band.StrokeWidth = 2
	s.band.Hide()
	s.path = container.NewWithoutLayout()
	s.hint = canvas.NewText(selectionHint, color.White)
	s.hint.TextStyle = fyne.TextStyle{Bold: true}
	s.hint.Move(fyne.NewPos(16, 16))
	s.hint.Resize(s.hint.MinSize())

	layers := []fyne.CanvasObject{}
	if background != nil {
		bg := canvas.NewImageFromImage(background)
		bg.FillMode = canvas.ImageFillStretch
		bg.ScaleMode = canvas.ImageScalePixels
		layers = append(layers, bg)
	}
	layers = append(layers, s.shade, container.NewWithoutLayout(s.band, s.path, s.hint))
	s.root = container.NewStack(layers...)

	s.ExtendBaseWidget(s)
	return s
}

func (s *selectionArea) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.root)
}

func (s *selectionArea) toPixels(pos fyne.Position) shot.Point {
	scale := s.scale()
	return shot.Point{X: int(pos.X * scale), Y: int(pos.Y * scale)}
}

func (s *selectionArea) toCanvas(p shot.Point) fyne.Position {
	scale := s.scale()
	return fyne.NewPos(float32(p.X)/scale, float32(p.Y)/scale)
}

func (s *selectionArea) MouseDown(ev *desktop.MouseEvent) {
	if ev.Button != desktop.MouseButtonPrimary {
		return
	}
	s.selection.Press(s.toPixels(ev.Position))
	s.path.RemoveAll()
	s.redraw()
}

func (s *selectionArea) Dragged(ev *fyne.DragEvent) {
	s.selection.Move(s.toPixels(ev.Position))
	s.redraw()
}

func (s *selectionArea) DragEnd() {}

func (s *selectionArea) MouseUp(ev *desktop.MouseEvent) {
	if !s.selection.Active() {
		return
	}
	region, ok := s.selection.Release(s.toPixels(ev.Position))
	if !ok {
		log.Printf("OVERLAY: selection rejected, waiting for another drag")
		s.band.Hide()
		s.path.RemoveAll()
		s.Refresh()
		return
	}
	s.onSelected(region)
}

func (s *selectionArea) redraw() {
	if !s.selection.Active() {
		return
	}
	if s.selection.Mode() == ModeLasso {
		s.band.Hide()
		points := s.selection.Points()
		for i := len(s.path.Objects) + 1; i < len(points); i++ {
			line := canvas.NewLine(s.tint)
			line.StrokeWidth = 2
			line.Position1 = s.toCanvas(points[i-1])
			line.Position2 = s.toCanvas(points[i])
			s.path.Add(line)
		}
		return
	}

	r := s.selection.Rect()
	s.band.Move(s.toCanvas(shot.Point{X: r.Min.X, Y: r.Min.Y}))
	scale := s.scale()
	s.band.Resize(fyne.NewSize(float32(r.Dx())/scale, float32(r.Dy())/scale))
	s.band.Show()
	canvas.Refresh(s.band)
}
