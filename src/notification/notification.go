package notification

import (
	"log"
	"sync"
	"time"
	"unicode/utf8"
)

const (
	appName      = "Circle to Search"
	maxBodyRunes = 200
	expireMillis = 4000
)

var pending sync.WaitGroup

// Show displays a transient desktop notification. Delivery is best effort:
// failures are logged and never surface to the pipeline.
func Show(title, body string) {
	body = truncate(body, maxBodyRunes)
	pending.Add(1)
	go func() {
		defer pending.Done()
		if err := deliver(title, body); err != nil {
			log.Printf("Notification: delivery failed, falling back to log: %v", err)
			log.Printf("%s: %s", title, body)
		}
	}()
}

// Flush waits up to timeout for in-flight notifications. Short-lived
// processes call it before exiting.
func Flush(timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		pending.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		log.Printf("Notification: flush timed out after %v", timeout)
	}
}

// ShowBlockingError shows an error synchronously. Used during startup, before
// the tray exists to carry messages.
func ShowBlockingError(title, message string) {
	log.Printf("%s: %s", title, message)
	if err := deliver(title, truncate(message, maxBodyRunes)); err != nil {
		log.Printf("Notification: delivery failed: %v", err)
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}
