package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"circle-to-search/src/llm"
)

// VisionClient is the slice of the OpenRouter client the engine needs.
type VisionClient interface {
	QueryVision(ctx context.Context, pngData []byte) (string, error)
}

// LLMEngine uses a vision model as OCR. The model gives no per-word scores,
// so text counts as fully confident and "no text" as zero.
type LLMEngine struct {
	client VisionClient
}

func NewLLMEngine(client VisionClient) *LLMEngine {
	return &LLMEngine{client: client}
}

func (e *LLMEngine) Name() string { return "openrouter" }

func (e *LLMEngine) Recognize(ctx context.Context, img image.Image) (Recognition, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return Recognition{}, fmt.Errorf("encode image: %w", err)
	}
	text, err := e.client.QueryVision(ctx, buf.Bytes())
	if errors.Is(err, llm.ErrNoText) {
		return Recognition{}, nil
	}
	if err != nil {
		return Recognition{}, err
	}
	return Recognition{Text: text, Confidence: 1}, nil
}
