package singleinstance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49600
	defaultPortEnd   = 49650

	portStartEnvVar = "SINGLEINSTANCE_PORT_START"
	portEndEnvVar   = "SINGLEINSTANCE_PORT_END"
)

// getPortRange returns the inclusive loopback port range, clamped to [1024, 65535].
// The resident binds only the start port; clients scan the whole range.
func getPortRange() (int, int) {
	start := envInt(portStartEnvVar, defaultPortStart)
	end := envInt(portEndEnvVar, defaultPortEnd)
	if start < 1024 {
		start = 1024
	}
	if end > 65535 {
		end = 65535
	}
	if end < start {
		start, end = end, start
	}
	return start, end
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// PortRange exposes the effective port range for logging and the startup pre-check.
func PortRange() (int, int) { return getPortRange() }
