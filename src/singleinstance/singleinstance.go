package singleinstance

// This file defines the API for single-instance ownership and run-once delegation.

import (
	"context"
	"errors"
)

var (
	// ErrCancelled is returned by the client when the resident's user cancelled selection.
	ErrCancelled = errors.New("selection cancelled")
	// ErrBusy is returned by the client when the resident is already running a search.
	ErrBusy = errors.New("resident is busy")
)

// RemoteError carries a failure message reported by the resident.
type RemoteError struct {
	Msg string
}

func (e *RemoteError) Error() string { return e.Msg }

// Server owns the TCP endpoint and answers run-once requests.
type Server interface {
	// Start begins listening on the start port of the configured range.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	Request() Request
	// RespondSuccess sends success with the opened result URL (may be empty).
	RespondSuccess(url string) error
	RespondCancelled() error
	RespondBusy() error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	Close() error
}

// Request represents a single run-once client request.
type Request struct {
	// OutputToStdout asks for the result URL back instead of a desktop notification.
	OutputToStdout bool
}

// Client attempts to delegate run-once invocation to a resident server.
type Client interface {
	// TryRunOnce scans the configured port range, performs handshake, and delegates to resident.
	// If no resident is found, returns delegated=false, err=nil.
	TryRunOnce(ctx context.Context, outputToStdout bool) (delegated bool, url string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
