package singleinstance

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"time"
)

const defaultProbeTimeout = 300 * time.Millisecond

// DetectResidentPort returns the first port in the configured range whose
// listener answers PING, if any.
func DetectResidentPort(ctx context.Context) (int, bool) {
	return scanResident(ctx, probeTimeout(ctx, defaultProbeTimeout))
}

// probeTimeout caps max by the time left on ctx.
func probeTimeout(ctx context.Context, max time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 && d < max {
			return d
		}
	}
	return max
}

func scanResident(ctx context.Context, timeout time.Duration) (int, bool) {
	start, end := getPortRange()
	for port := start; port <= end; port++ {
		if ctx.Err() != nil {
			return 0, false
		}
		if ping(residentAddr(port), timeout) {
			return port, true
		}
	}
	return 0, false
}

func residentAddr(port int) string {
	return net.JoinHostPort(residentHost, strconv.Itoa(port))
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := conn.Write([]byte(pingRequest)); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
