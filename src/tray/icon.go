package tray

import (
	"bytes"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

const iconSize = 32

// renderIcon draws the tray glyph: a loop with a short handle, the gesture
// the app is named after.
func renderIcon(accentHex string) *image.NRGBA {
	accent, err := colorful.Hex(accentHex)
	if err != nil {
		accent, _ = colorful.Hex("#1a73e8")
	}
	r, g, b := accent.RGB255()
	ink := color.NRGBA{R: r, G: g, B: b, A: 255}

	img := imaging.New(iconSize, iconSize, color.NRGBA{})
	const (
		cx, cy = 13.5, 13.5
		radius = 10.0
		stroke = 2.6
	)
	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			px, py := float64(x)+0.5, float64(y)+0.5
			d := math.Hypot(px-cx, py-cy)
			onRing := math.Abs(d-radius) <= stroke/2
			onHandle := px > 20 && py > 20 && math.Abs((px-cx)-(py-cy)) <= stroke/1.2 && px < 30 && py < 30
			if onRing || onHandle {
				img.SetNRGBA(x, y, ink)
			}
		}
	}
	return img
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
