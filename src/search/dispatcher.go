package search

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"circle-to-search/src/logutil"
	"circle-to-search/src/ocr"
)

const DefaultTimeout = 30 * time.Second

// Outcome describes a dispatched search.
type Outcome struct {
	Kind ocr.Kind
	URL  string
}

type Options struct {
	Provider Provider
	Uploader Uploader
	Opener   Opener
	Timeout  time.Duration
}

// Dispatcher sends queries to the provider. Each call is bounded by Timeout
// and never retried.
type Dispatcher struct {
	provider Provider
	uploader Uploader
	opener   Opener
	timeout  time.Duration
}

func NewDispatcher(opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Uploader == nil {
		opts.Uploader = NewHTTPUploader(opts.Provider)
	}
	if opts.Opener == nil {
		opts.Opener = NewBrowserOpener()
	}
	return &Dispatcher{provider: opts.Provider, uploader: opts.Uploader, opener: opts.Opener, timeout: opts.Timeout}
}

func (d *Dispatcher) Dispatch(ctx context.Context, q Query) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	start := time.Now()
	outcome, err := d.dispatch(ctx, q)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = &DispatchError{Reason: ReasonTimeout, Err: fmt.Errorf("no result within %v: %w", d.timeout, err)}
		}
		log.Printf("Search: %s dispatch failed after %v: %v", q.Kind, time.Since(start), err)
		return Outcome{}, err
	}
	log.Printf("Search: %s dispatch opened %s in %v", q.Kind, outcome.URL, time.Since(start))
	return outcome, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, q Query) (Outcome, error) {
	var target string
	switch q.Kind {
	case ocr.KindText:
		target = d.provider.SearchURL(q.Text)
		log.Printf("Search: text query %q", logutil.Sanitize(q.Text))
	case ocr.KindImage:
		if q.Image == nil {
			return Outcome{}, &DispatchError{Reason: ReasonProvider, Err: errors.New("image query without image")}
		}
		data, err := q.Image.PNG()
		if err != nil {
			return Outcome{}, &DispatchError{Reason: ReasonProvider, Err: err}
		}
		log.Printf("Search: uploading %dx%d image via %s", q.Image.Width(), q.Image.Height(), d.uploader.Name())
		target, err = d.uploader.Upload(ctx, data)
		if err != nil {
			return Outcome{}, classify(err, ReasonProvider)
		}
	default:
		return Outcome{}, &DispatchError{Reason: ReasonProvider, Err: fmt.Errorf("unsupported query kind %v", q.Kind)}
	}

	if err := d.open(ctx, target); err != nil {
		return Outcome{}, err
	}
	return Outcome{Kind: q.Kind, URL: target}, nil
}

// open runs the opener off the caller's goroutine so a hung launcher cannot
// outlive the dispatch deadline. Nothing is launched once ctx is done; a
// launcher already started when the deadline fires is abandoned, not killed,
// and may still show its tab.
func (d *Dispatcher) open(ctx context.Context, target string) error {
	if err := ctx.Err(); err != nil {
		return classify(err, ReasonTimeout)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- d.opener.Open(target) }()
	select {
	case err := <-errCh:
		if err != nil {
			return &DispatchError{Reason: ReasonBrowserLaunch, Err: err}
		}
		return nil
	case <-ctx.Done():
		return classify(ctx.Err(), ReasonTimeout)
	}
}
