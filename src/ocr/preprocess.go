package ocr

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

const (
	medianRadius = 1 // 3x3 window
	blockSize    = 11
	blockSigma   = 2.0 // 0.3*((blockSize-1)/2-1)+0.8
	thresholdC   = 2
)

// blockKernel is the normalized 1-d Gaussian over the adaptive block. It is
// applied once per axis.
var blockKernel = func() convolution.Matrix {
	k := convolution.NewKernel(blockSize, 1)
	r := blockSize / 2
	for i := range k.Matrix {
		x := float64(i - r)
		k.Matrix[i] = math.Exp(-x * x / (2 * blockSigma * blockSigma))
	}
	return k.Normalized()
}()

// localMean is the Gaussian-weighted mean of each pixel's blockSize x blockSize
// neighbourhood, with edges extended.
func localMean(img image.Image) *image.RGBA {
	opts := &convolution.Options{KeepAlpha: true}
	horizontal := convolution.Convolve(img, blockKernel, opts)
	return convolution.Convolve(horizontal, blockKernel.Transposed(), opts)
}

// Preprocess binarizes img for OCR: grayscale, median denoise, then an
// adaptive threshold against the Gaussian-weighted local mean minus C.
func Preprocess(img image.Image) (*image.Gray, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	gray := imaging.Grayscale(img)
	denoised := effect.Median(gray, medianRadius)
	local := localMean(denoised)

	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	db := denoised.Bounds()
	lb := local.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			v := int(denoised.RGBAAt(db.Min.X+x, db.Min.Y+y).R)
			mean := int(local.RGBAAt(lb.Min.X+x, lb.Min.Y+y).R)
			if v > mean-thresholdC {
				out.SetGray(x, y, color.Gray{Y: 255})
			} else {
				out.SetGray(x, y, color.Gray{Y: 0})
			}
		}
	}
	return out, nil
}
