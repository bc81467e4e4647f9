//go:build !linux && !windows

package notification

import "log"

func deliver(title, body string) error {
	log.Printf("%s: %s", title, body)
	return nil
}
