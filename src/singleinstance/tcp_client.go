package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

func (c *tcpClient) TryRunOnce(ctx context.Context, outputToStdout bool) (bool, string, error) {
	timeout := probeTimeout(ctx, 2*time.Second)
	port, ok := scanResident(ctx, timeout)
	if !ok {
		return false, "", nil
	}
	url, err := request(ctx, residentAddr(port), timeout, outputToStdout)
	return true, url, err
}

// request sends one run request and blocks until the resident answers. The
// resident waits on the user, so only the dial is time-bounded.
func request(ctx context.Context, addr string, dialTimeout time.Duration, outputToStdout bool) (string, error) {
	d := net.Dialer{Timeout: dialTimeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("connect to resident: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	line := notifyRequest
	if outputToStdout {
		line = stdoutRequest
	}
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(line); err != nil {
		return "", err
	}
	if err := w.Flush(); err != nil {
		return "", err
	}

	br := bufio.NewReader(conn)
	status, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read resident status: %w", err)
	}
	switch status {
	case statusSuccess:
		b, _ := io.ReadAll(br)
		return strings.TrimSpace(string(b)), nil
	case statusCancelled:
		return "", ErrCancelled
	case statusBusy:
		return "", ErrBusy
	case statusError:
		msg, _ := io.ReadAll(br)
		return "", &RemoteError{Msg: string(msg)}
	default:
		return "", fmt.Errorf("unexpected resident status %q", strings.TrimSpace(status))
	}
}
