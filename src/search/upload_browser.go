package search

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const uploadFormScript = `(() => {
	const form = document.createElement('form');
	form.id = 'c2s-upload';
	form.method = 'POST';
	form.enctype = 'multipart/form-data';
	form.action = %q;
	const input = document.createElement('input');
	input.type = 'file';
	input.name = 'encoded_image';
	input.id = 'c2s-file';
	form.appendChild(input);
	document.body.appendChild(form);
	return true;
})()`

// BrowserUploader drives a fresh Chrome session per upload: it fills the
// provider's upload form with the capture, submits it and reports the URL the
// browser lands on. The session is torn down before Upload returns.
type BrowserUploader struct {
	uploadURL string
	userAgent string
	execPath  string
	headless  bool
}

func NewBrowserUploader(p Provider, execPath string, headless bool) *BrowserUploader {
	return &BrowserUploader{uploadURL: p.UploadURL, userAgent: p.UserAgent, execPath: execPath, headless: headless}
}

func (u *BrowserUploader) Name() string { return "browser" }

func (u *BrowserUploader) Upload(ctx context.Context, pngData []byte) (string, error) {
	tmp, err := os.CreateTemp("", "circle-to-search-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(pngData); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", u.headless),
	)
	if u.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(u.userAgent))
	}
	if u.execPath != "" {
		opts = append(opts, chromedp.ExecPath(u.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Printf))
	defer cancelBrowser()

	start := time.Now()
	if err := chromedp.Run(browserCtx); err != nil {
		if ctx.Err() != nil {
			return "", classify(ctx.Err(), ReasonTimeout)
		}
		return "", &DispatchError{Reason: ReasonBrowserLaunch, Err: err}
	}
	log.Printf("Search: browser session started in %v", time.Since(start))

	var resultURL string
	err = chromedp.Run(browserCtx,
		chromedp.Navigate("about:blank"),
		chromedp.Evaluate(fmt.Sprintf(uploadFormScript, u.uploadURL), nil),
		chromedp.SetUploadFiles("#c2s-file", []string{tmp.Name()}, chromedp.ByID),
		chromedp.Submit("#c2s-upload", chromedp.ByID),
		waitForResults(&resultURL),
	)
	if err != nil {
		if ctx.Err() != nil {
			return "", classify(ctx.Err(), ReasonTimeout)
		}
		return "", classify(err, ReasonProvider)
	}
	if !strings.HasPrefix(resultURL, "http://") && !strings.HasPrefix(resultURL, "https://") {
		return "", &DispatchError{Reason: ReasonProvider, Err: fmt.Errorf("unexpected result location %q", resultURL)}
	}
	return resultURL, nil
}

// waitForResults polls the page location until the browser has left the
// local upload form.
func waitForResults(out *string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(200 * time.Millisecond)
		defer ticker.Stop()
		for {
			var loc string
			if err := chromedp.Location(&loc).Do(ctx); err == nil {
				if strings.HasPrefix(loc, "chrome-error://") {
					return fmt.Errorf("navigation failed: net::ERR_FAILED")
				}
				if loc != "" && loc != "about:blank" {
					*out = loc
					return nil
				}
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
		}
	})
}
