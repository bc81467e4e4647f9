package search

import (
	"io"

	"github.com/pkg/browser"
)

// Opener shows a results URL to the user.
type Opener interface {
	Open(url string) error
}

// BrowserOpener hands URLs to the desktop's default browser. The page stays
// open under the user's control.
type BrowserOpener struct{}

func NewBrowserOpener() BrowserOpener {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	return BrowserOpener{}
}

func (BrowserOpener) Open(url string) error {
	return browser.OpenURL(url)
}
