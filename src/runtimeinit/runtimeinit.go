package runtimeinit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"circle-to-search/src/clipboard"
	"circle-to-search/src/config"
	"circle-to-search/src/llm"
	"circle-to-search/src/logutil"
	"circle-to-search/src/notification"
	"circle-to-search/src/ocr"
	"circle-to-search/src/overlay"
	"circle-to-search/src/screenshot"
	"circle-to-search/src/search"
	"circle-to-search/src/session"
	"circle-to-search/src/worker"
)

const (
	EngineTesseract  = "tesseract"
	EngineOpenRouter = "openrouter"

	pingTimeout = 10 * time.Second
)

type Options struct {
	LoadOptions  config.LoadOptions
	SetupLogging func(bool)
	// ShowBlockingErrors surfaces fatal startup faults as desktop notifications.
	ShowBlockingErrors bool
	// SkipSelector is set by tools that read images from files.
	SkipSelector bool
}

// Runtime holds the components chosen once at startup.
type Runtime struct {
	Config     *config.Config
	Selector   overlay.Selector
	Capturer   *screenshot.Capturer
	Recognizer *ocr.Recognizer
	Dispatcher *search.Dispatcher
	Pool       *worker.Pool

	copyText bool
}

// Bootstrap loads configuration and probes every backend. A missing display
// is fatal; a missing capture backend or OCR engine is not.
func Bootstrap(ctx context.Context, opts Options) (*Runtime, error) {
	cfg, err := config.LoadWithOptions(opts.LoadOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.SetupLogging != nil {
		opts.SetupLogging(cfg.EnableFileLogging)
	}

	rt := &Runtime{Config: cfg}

	if !opts.SkipSelector {
		rt.Selector, err = overlay.NewSelector(overlay.Options{
			Preference: cfg.Selector,
			Mode:       cfg.DefaultMode,
			Color:      cfg.SelectionColor,
		})
		if err != nil {
			if opts.ShowBlockingErrors && errors.Is(err, overlay.ErrNoDisplay) {
				notification.ShowBlockingError("Circle to Search", "No display server found. A graphical session is required.")
			}
			return nil, fmt.Errorf("region selector: %w", err)
		}
		log.Printf("Selector: %s", overlay.Name(rt.Selector))

		backend, err := screenshot.Probe(cfg.CaptureBackend)
		if err != nil {
			log.Printf("Screenshot: %v; captures will fail until a backend is installed", err)
		}
		rt.Capturer = screenshot.NewCapturer(backend)
	}

	rt.Recognizer = NewRecognizer(ctx, cfg)
	rt.Dispatcher = NewDispatcher(cfg)
	rt.Pool = worker.New(0)

	if cfg.CopyText {
		if err := clipboard.Init(); err != nil {
			log.Printf("Clipboard unavailable, COPY_TEXT disabled: %v", err)
		} else {
			rt.copyText = true
		}
	}
	return rt, nil
}

// Controller builds the pipeline controller over the runtime's components.
func (rt *Runtime) Controller() (*session.Controller, error) {
	opts := session.Options{
		Selector:      rt.Selector,
		Capturer:      rt.Capturer,
		Recognizer:    rt.Recognizer,
		Dispatcher:    rt.Dispatcher,
		Pool:          rt.Pool,
		Deadline:      time.Duration(rt.Config.OCRDeadlineSec) * time.Second,
		MaxQueryChars: rt.Config.MaxQueryChars,
	}
	if rt.copyText {
		opts.OnText = func(text string) {
			if err := clipboard.Write(text); err != nil {
				log.Printf("Clipboard write failed: %v", err)
			}
		}
	}
	return session.NewController(opts)
}

func (rt *Runtime) Close() {
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

// NewRecognizer picks the OCR engine named by OCR_ENGINE, or the first one
// available when auto. With no engine every result falls back to image search.
func NewRecognizer(ctx context.Context, cfg *config.Config) *ocr.Recognizer {
	return selectRecognizer(ctx, cfg, hostEngines{})
}

type engineSource interface {
	tesseract(cfg *config.Config) (ocr.Engine, error)
	openrouter(ctx context.Context, cfg *config.Config) (ocr.Engine, error)
}

type hostEngines struct{}

func (hostEngines) tesseract(cfg *config.Config) (ocr.Engine, error) {
	e := ocr.NewTesseractEngine(cfg.OCRLanguages)
	if err := e.Available(); err != nil {
		return nil, err
	}
	return e, nil
}

func (hostEngines) openrouter(ctx context.Context, cfg *config.Config) (ocr.Engine, error) {
	client, err := llm.New(llm.Config{APIKey: cfg.APIKey, Model: cfg.Model, Providers: cfg.Providers})
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("openrouter ping (key %s): %w", logutil.RedactKey(cfg.APIKey), err)
	}
	return ocr.NewLLMEngine(client), nil
}

func selectRecognizer(ctx context.Context, cfg *config.Config, src engineSource) *ocr.Recognizer {
	opts := ocr.Options{MinConfidence: cfg.OCRMinConfidence, MinAlnum: cfg.OCRMinAlnum}

	pref := cfg.OCREngine
	if pref == EngineTesseract || pref == config.BackendAuto || pref == "" {
		e, err := src.tesseract(cfg)
		if err == nil {
			log.Printf("OCR: using tesseract (%v)", cfg.OCRLanguages)
			opts.Preprocess = true
			return ocr.NewRecognizer(e, opts)
		}
		log.Printf("OCR: tesseract unavailable: %v", err)
	}
	if pref == EngineOpenRouter || pref == config.BackendAuto || pref == "" {
		e, err := src.openrouter(ctx, cfg)
		if err == nil {
			log.Printf("OCR: using openrouter model %s", cfg.Model)
			return ocr.NewRecognizer(e, opts)
		}
		log.Printf("OCR: openrouter unavailable: %v", err)
	}
	log.Printf("OCR: no engine available, every search will use the image")
	return ocr.NewRecognizer(nil, opts)
}

// NewDispatcher builds the search dispatcher for IMAGE_SEARCH_MODE.
func NewDispatcher(cfg *config.Config) *search.Dispatcher {
	provider := search.Provider{
		TextURL:   cfg.SearchURL,
		UploadURL: cfg.ImageUploadURL,
		UserAgent: cfg.UserAgent,
	}
	var uploader search.Uploader
	if cfg.ImageSearchMode == config.ImageSearchBrowser {
		uploader = search.NewBrowserUploader(provider, cfg.BrowserPath, cfg.BrowserHeadless)
	} else {
		uploader = search.NewHTTPUploader(provider)
	}
	log.Printf("Search: text %s, images via %s upload", cfg.SearchURL, uploader.Name())
	return search.NewDispatcher(search.Options{
		Provider: provider,
		Uploader: uploader,
		Timeout:  time.Duration(cfg.DispatchTimeoutSec) * time.Second,
	})
}
