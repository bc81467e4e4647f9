package search

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Reason classifies a dispatch failure.
type Reason int

const (
	ReasonNetwork Reason = iota + 1
	ReasonProvider
	ReasonTimeout
	ReasonBrowserLaunch
)

func (r Reason) String() string {
	switch r {
	case ReasonNetwork:
		return "network error"
	case ReasonProvider:
		return "provider error"
	case ReasonTimeout:
		return "timeout"
	case ReasonBrowserLaunch:
		return "browser launch error"
	default:
		return "unknown"
	}
}

type DispatchError struct {
	Reason Reason
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Err == nil {
		return "dispatch failed: " + e.Reason.String()
	}
	return fmt.Sprintf("dispatch failed: %s: %v", e.Reason, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// IsReason reports whether err is a DispatchError with the given reason.
func IsReason(err error, reason Reason) bool {
	var de *DispatchError
	return errors.As(err, &de) && de.Reason == reason
}

// classify wraps err into a DispatchError, keeping an existing reason.
func classify(err error, fallback Reason) error {
	if err == nil {
		return nil
	}
	var de *DispatchError
	if errors.As(err, &de) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &DispatchError{Reason: ReasonTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &DispatchError{Reason: ReasonTimeout, Err: err}
		}
		return &DispatchError{Reason: ReasonNetwork, Err: err}
	}
	if strings.Contains(err.Error(), "net::ERR_") {
		return &DispatchError{Reason: ReasonNetwork, Err: err}
	}
	return &DispatchError{Reason: fallback, Err: err}
}
