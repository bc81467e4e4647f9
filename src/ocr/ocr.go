package ocr

import (
	"context"
	"image"
	"log"
	"time"
	"unicode"

	"circle-to-search/src/logutil"
	"circle-to-search/src/screenshot"
)

// Kind tags which variant a Result holds.
type Kind int

const (
	KindText Kind = iota + 1
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// Result is the outcome of recognition: either text or the capture itself.
// Exactly one of Text and Image is set, according to Kind.
type Result struct {
	Kind       Kind
	Text       string
	Image      *screenshot.Image
	Confidence float64
	Engine     string
	// Degraded records an engine failure that forced the image fallback.
	Degraded error
}

// Recognition is the raw engine output before the text/image decision.
type Recognition struct {
	Text string
	// Confidence is the mean word confidence in [0,1].
	Confidence float64
}

// Engine is an OCR backend. Implementations should be pure: the same image
// yields the same Recognition.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (Recognition, error)
}

type Options struct {
	MinConfidence float64
	MinAlnum      int
	Preprocess    bool
}

func DefaultOptions() Options {
	return Options{MinConfidence: 0.6, MinAlnum: 3, Preprocess: true}
}

type Recognizer struct {
	engine Engine
	opts   Options
}

// NewRecognizer wraps engine. A nil engine makes every result an image.
func NewRecognizer(engine Engine, opts Options) *Recognizer {
	return &Recognizer{engine: engine, opts: opts}
}

func (r *Recognizer) EngineName() string {
	if r.engine == nil {
		return "none"
	}
	return r.engine.Name()
}

// Recognize never fails: when no usable text is found, or the engine errors,
// the result falls back to the image.
func (r *Recognizer) Recognize(ctx context.Context, img *screenshot.Image) Result {
	imageResult := func(conf float64, degraded error) Result {
		return Result{Kind: KindImage, Image: img, Confidence: conf, Engine: r.EngineName(), Degraded: degraded}
	}
	if r.engine == nil {
		return imageResult(0, nil)
	}

	var input image.Image = img.Image()
	if r.opts.Preprocess {
		if processed, err := Preprocess(input); err != nil {
			log.Printf("OCR: preprocessing failed, using original image: %v", err)
		} else {
			input = processed
		}
	}

	start := time.Now()
	rec, err := r.engine.Recognize(ctx, input)
	if err != nil {
		log.Printf("OCR: %s failed after %v: %v", r.engine.Name(), time.Since(start), err)
		return imageResult(0, err)
	}

	text := NormalizeText(rec.Text)
	log.Printf("OCR: %s returned %d chars, confidence %.2f in %v: %s",
		r.engine.Name(), len(text), rec.Confidence, time.Since(start), logutil.Sanitize(text))

	if !HasUsableText(text, r.opts.MinAlnum) || rec.Confidence < r.opts.MinConfidence {
		return imageResult(rec.Confidence, nil)
	}
	return Result{Kind: KindText, Text: text, Confidence: rec.Confidence, Engine: r.engine.Name()}
}

// HasUsableText reports whether text holds at least minAlnum letters or digits.
func HasUsableText(text string, minAlnum int) bool {
	if text == "" {
		return false
	}
	if minAlnum < 1 {
		minAlnum = 1
	}
	n := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			n++
			if n >= minAlnum {
				return true
			}
		}
	}
	return false
}
