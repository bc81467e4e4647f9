package popup

import (
	"fmt"
	"log"
	"runtime"

	"circle-to-search/src/logutil"
	"circle-to-search/src/notification"
)

const title = "Circle to Search"

var show = notification.Show

// Show displays a short informational popup. It returns immediately.
func Show(text string) error {
	_, file, line, ok := runtime.Caller(1)
	if ok {
		log.Printf("Popup.Show called from %s:%d with %d characters: %q", file, line, len(text), logutil.Sanitize(text))
	} else {
		log.Printf("Popup.Show called with %d characters: %q", len(text), logutil.Sanitize(text))
	}
	show(title, text)
	return nil
}

// Failure reports an aborted run as "<stage>: <reason>".
func Failure(stage, reason string) error {
	msg := FailureMessage(stage, reason)
	log.Printf("Popup.Failure: %s", logutil.Sanitize(msg))
	show(title+" failed", msg)
	return nil
}

// Busy tells the user a trigger was ignored because a run is in flight.
func Busy() error {
	log.Printf("Popup.Busy called")
	show(title, "A search is already in progress")
	return nil
}

func FailureMessage(stage, reason string) string {
	if reason == "" {
		return stage + " failed"
	}
	return fmt.Sprintf("%s: %s", stage, reason)
}
