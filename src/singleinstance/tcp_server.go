package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"
)

const (
	residentHost = "127.0.0.1"
	pingRequest  = "PING\n"
	pongResponse = "PONG\n"

	stdoutRequest = "STDOUT\n"
	notifyRequest = "NOTIFY\n"

	statusSuccess   = "SUCCESS\n"
	statusCancelled = "CANCELLED\n"
	statusBusy      = "BUSY\n"
	statusError     = "ERROR\n"
)

var errServerClosed = errors.New("singleinstance: server closed")

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu        sync.Mutex
	lis       net.Listener
	incoming  chan *tcpConn
	done      chan struct{}
	closeOnce sync.Once
	port      int
}

func newTcpServer() Server {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds ONLY the start port of the configured range. If occupied, fail.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	start, _ := getPortRange()
	addr := fmt.Sprintf("%s:%d", residentHost, start)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		log.Printf("singleinstance: failed to bind %s: %v", addr, err)
		return err
	}
	s.lis = lis
	s.port = start
	log.Printf("singleinstance: listening on %s", addr)
	go s.acceptLoop(ctx, lis)
	return nil
}

// Port returns the bound port (0 if not started).
func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) acceptLoop(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		tc, ok := s.handshake(c)
		if !ok {
			continue
		}
		select {
		case s.incoming <- tc:
		case <-s.done:
			_ = c.Close()
			return
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}

// handshake reads the first line. PING is answered inline; anything else is a run request.
func (s *tcpServer) handshake(c net.Conn) (*tcpConn, bool) {
	remote := c.RemoteAddr().String()
	_ = c.SetDeadline(time.Now().Add(3 * time.Second))
	br := bufio.NewReader(c)
	line, err := br.ReadString('\n')
	if err != nil {
		log.Printf("singleinstance: read from %s failed: %v", remote, err)
		_ = c.Close()
		return nil, false
	}
	bw := bufio.NewWriter(c)
	switch line {
	case pingRequest:
		log.Printf("singleinstance: PING from %s -> PONG", remote)
		_, _ = bw.WriteString(pongResponse)
		_ = bw.Flush()
		_ = c.Close()
		return nil, false
	case stdoutRequest, notifyRequest:
	default:
		log.Printf("singleinstance: unknown request %q from %s", line, remote)
		_, _ = bw.WriteString(statusError + "unknown request")
		_ = bw.Flush()
		_ = c.Close()
		return nil, false
	}
	_ = c.SetDeadline(time.Time{})
	req := Request{OutputToStdout: line == stdoutRequest}
	log.Printf("singleinstance: request from %s stdout=%v", remote, req.OutputToStdout)
	return &tcpConn{c: c, r: req, w: bw}, true
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, errServerClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		if s.lis != nil {
			_ = s.lis.Close()
			s.lis = nil
		}
		s.mu.Unlock()
	})
	return nil
}

type tcpConn struct {
	c net.Conn
	r Request
	w *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) RespondSuccess(url string) error {
	return tc.write(statusSuccess + url)
}

func (tc *tcpConn) RespondCancelled() error { return tc.write(statusCancelled) }

func (tc *tcpConn) RespondBusy() error { return tc.write(statusBusy) }

func (tc *tcpConn) RespondError(msg string) error {
	return tc.write(statusError + msg)
}

func (tc *tcpConn) write(s string) error {
	if _, err := tc.w.WriteString(s); err != nil {
		return err
	}
	return tc.w.Flush()
}

func (tc *tcpConn) Close() error { return tc.c.Close() }
