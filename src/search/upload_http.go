package search

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Uploader submits an image to the provider's image search and returns the
// results page URL.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, pngData []byte) (string, error)
}

// HTTPUploader posts the capture as multipart form data and follows nothing:
// the provider answers with a redirect whose Location is the results page.
type HTTPUploader struct {
	uploadURL string
	userAgent string
	client    *http.Client
}

func NewHTTPUploader(p Provider) *HTTPUploader {
	return &HTTPUploader{
		uploadURL: p.UploadURL,
		userAgent: p.UserAgent,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (u *HTTPUploader) Name() string { return "http" }

func (u *HTTPUploader) Upload(ctx context.Context, pngData []byte) (string, error) {
	endpoint, err := url.Parse(u.uploadURL)
	if err != nil {
		return "", &DispatchError{Reason: ReasonProvider, Err: fmt.Errorf("bad upload URL: %w", err)}
	}
	q := endpoint.Query()
	q.Set("stcs", strconv.FormatInt(time.Now().UnixMilli(), 10))
	endpoint.RawQuery = q.Encode()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("encoded_image", "capture.png")
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(pngData); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if u.userAgent != "" {
		req.Header.Set("User-Agent", u.userAgent)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return "", classify(err, ReasonNetwork)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return "", &DispatchError{Reason: ReasonProvider, Err: fmt.Errorf("upload returned status %d, expected a redirect", resp.StatusCode)}
	}
	loc, err := resp.Location()
	if err != nil {
		return "", &DispatchError{Reason: ReasonProvider, Err: fmt.Errorf("redirect without location: %w", err)}
	}
	return loc.String(), nil
}
