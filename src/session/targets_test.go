package session

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"circle-to-search/src/search"
	"circle-to-search/src/singleinstance"
)

type recordingConn struct {
	req       singleinstance.Request
	responses []string
}

func (c *recordingConn) Request() singleinstance.Request { return c.req }

func (c *recordingConn) RespondSuccess(url string) error {
	c.responses = append(c.responses, "SUCCESS "+url)
	return nil
}

func (c *recordingConn) RespondCancelled() error {
	c.responses = append(c.responses, "CANCELLED")
	return nil
}

func (c *recordingConn) RespondBusy() error {
	c.responses = append(c.responses, "BUSY")
	return nil
}

func (c *recordingConn) RespondError(msg string) error {
	c.responses = append(c.responses, "ERROR "+msg)
	return nil
}

func (c *recordingConn) Close() error { return nil }

func TestDelegatedTargetResponses(t *testing.T) {
	dispatchErr := &StageError{
		Stage: StateDispatching,
		Err:   &search.DispatchError{Reason: search.ReasonNetwork, Err: errors.New("connection refused")},
	}
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"cancelled", ErrSelectionCancelled, "CANCELLED"},
		{"busy", ErrBusy, "BUSY"},
		{"stage failure", dispatchErr, "ERROR " + UserMessage(dispatchErr)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := &recordingConn{}
			target := DelegatedTarget{Conn: conn, OutputToStdout: true}
			if err := target.OnFailure(tt.err); err != nil {
				t.Fatalf("OnFailure: %v", err)
			}
			if len(conn.responses) != 1 || conn.responses[0] != tt.want {
				t.Errorf("responses = %v, want [%s]", conn.responses, tt.want)
			}
		})
	}
}

func TestDelegatedTargetSuccess(t *testing.T) {
	conn := &recordingConn{}
	rep := Report{URL: "https://www.google.com/search?q=abc"}
	if err := (DelegatedTarget{Conn: conn, OutputToStdout: true}).OnSuccess(rep); err != nil {
		t.Fatalf("OnSuccess: %v", err)
	}
	if conn.responses[0] != "SUCCESS "+rep.URL {
		t.Errorf("responses = %v", conn.responses)
	}
	if err := (DelegatedTarget{}).OnSuccess(rep); err == nil {
		t.Error("expected error without connection")
	}
}

func TestStdoutTarget(t *testing.T) {
	var buf bytes.Buffer
	if err := (StdoutTarget{Writer: &buf}).OnSuccess(Report{URL: "https://example.com"}); err != nil {
		t.Fatalf("OnSuccess: %v", err)
	}
	if buf.String() != "https://example.com\n" {
		t.Errorf("wrote %q", buf.String())
	}
}

func TestUserMessage(t *testing.T) {
	err := &StageError{Stage: StateCapturing, Err: errors.New("out of bounds")}
	if got := UserMessage(err); got != "Capture: out of bounds" {
		t.Errorf("UserMessage = %q", got)
	}
	if got := UserMessage(nil); got != "" {
		t.Errorf("UserMessage(nil) = %q", got)
	}
}

func TestExecuteRequiresTarget(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	if _, err := h.ctrl.Execute(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil target")
	}
	if h.selector.calls.Load() != 0 {
		t.Error("selector ran without a target")
	}
}
