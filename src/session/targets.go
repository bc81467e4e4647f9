package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"circle-to-search/src/popup"
	"circle-to-search/src/singleinstance"
)

// ResultTarget receives the outcome of one run.
type ResultTarget interface {
	OnSuccess(rep Report) error
	OnFailure(err error) error
}

// Execute runs the pipeline once and hands the outcome to target.
func (c *Controller) Execute(ctx context.Context, target ResultTarget) (Report, error) {
	if target == nil {
		return Report{}, errors.New("Target is required")
	}
	rep, err := c.Run(ctx)
	if err != nil {
		_ = target.OnFailure(err)
		return rep, err
	}
	if err := target.OnSuccess(rep); err != nil {
		return rep, err
	}
	return rep, nil
}

// UserMessage renders err for a notification: "<stage>: <reason>".
func UserMessage(err error) string {
	var se *StageError
	if errors.As(err, &se) {
		return popup.FailureMessage(StageName(se.Stage), se.Err.Error())
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// PopupTarget reports through desktop notifications. Used for hotkey and tray
// triggers where the opened browser tab is the success signal.
type PopupTarget struct{}

func (PopupTarget) OnSuccess(rep Report) error {
	if rep.Degraded != nil {
		return popup.Show("No readable text, searched by image")
	}
	return nil
}

func (PopupTarget) OnFailure(err error) error {
	switch {
	case errors.Is(err, ErrSelectionCancelled):
		return nil
	case errors.Is(err, ErrBusy):
		return popup.Busy()
	}
	var se *StageError
	if errors.As(err, &se) {
		return popup.Failure(StageName(se.Stage), se.Err.Error())
	}
	return popup.Failure("Search", err.Error())
}

// StdoutTarget prints the opened URL, one per line.
type StdoutTarget struct {
	Writer io.Writer
}

func (t StdoutTarget) OnSuccess(rep Report) error {
	w := t.Writer
	if w == nil {
		w = os.Stdout
	}
	_, err := fmt.Fprintln(w, rep.URL)
	return err
}

func (t StdoutTarget) OnFailure(err error) error {
	return nil
}

// DelegatedTarget answers a run-once client over its connection. In notify
// mode failures also surface locally, since the client exits silently.
type DelegatedTarget struct {
	Conn           singleinstance.Conn
	OutputToStdout bool
}

func (t DelegatedTarget) OnSuccess(rep Report) error {
	if t.Conn == nil {
		return errors.New("delegated target missing connection")
	}
	if t.OutputToStdout {
		return t.Conn.RespondSuccess(rep.URL)
	}
	_ = PopupTarget{}.OnSuccess(rep)
	return t.Conn.RespondSuccess("")
}

func (t DelegatedTarget) OnFailure(err error) error {
	if t.Conn == nil {
		return nil
	}
	if !t.OutputToStdout {
		_ = PopupTarget{}.OnFailure(err)
	}
	switch {
	case errors.Is(err, ErrSelectionCancelled):
		return t.Conn.RespondCancelled()
	case errors.Is(err, ErrBusy):
		return t.Conn.RespondBusy()
	case err == nil:
		return t.Conn.RespondError("unknown session error")
	}
	return t.Conn.RespondError(UserMessage(err))
}
