package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine runs Tesseract through gosseract with a uniform-block page
// layout (psm 6).
type TesseractEngine struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func NewTesseractEngine(languages []string) *TesseractEngine {
	if len(languages) == 0 {
		languages = []string{"eng"}
	}
	return &TesseractEngine{languages: languages, clientFactory: gosseract.NewClient}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// Available checks that tesseract is installed with every configured language.
func (e *TesseractEngine) Available() error {
	langs, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("tesseract unavailable: %w", err)
	}
	have := make(map[string]bool, len(langs))
	for _, l := range langs {
		have[l] = true
	}
	var missing []string
	for _, l := range e.languages {
		if !have[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("tesseract language data missing: %s", strings.Join(missing, ","))
	}
	return nil
}

func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) (Recognition, error) {
	if err := ctx.Err(); err != nil {
		return Recognition{}, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Recognition{}, fmt.Errorf("encode image: %w", err)
	}

	c := e.clientFactory()
	defer c.Close()

	if err := c.SetLanguage(e.languages...); err != nil {
		return Recognition{}, fmt.Errorf("set languages: %w", err)
	}
	if err := c.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return Recognition{}, fmt.Errorf("set page segmentation: %w", err)
	}
	if err := c.SetImageFromBytes(buf.Bytes()); err != nil {
		return Recognition{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Recognition{}, fmt.Errorf("recognize text: %w", err)
	}
	return Recognition{Text: text, Confidence: meanWordConfidence(c)}, nil
}

func meanWordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	n := 0
	for _, b := range boxes {
		if strings.TrimSpace(b.Word) == "" {
			continue
		}
		sum += b.Confidence / 100.0
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
