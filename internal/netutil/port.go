// Package netutil probes port availability and implements msaada's
// bounded port auto-switch, grounded in the original implementation's
// network.rs resolve_port/find_available_port algorithm.
package netutil

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"msaada/internal/metrics"
)

const (
	// scanWindow is the offset added to the scan's starting port; the
	// resulting window [start, start+scanWindow] spans 100 ports.
	scanWindow   = 99
	probeTimeout = 200 * time.Millisecond
)

// PortError reports a port-resolution failure at startup.
type PortError struct {
	Message string
}

func (e *PortError) Error() string { return e.Message }

// IsReachable reports whether a TCP connection to host:port succeeds,
// which msaada treats as "port occupied".
func IsReachable(host string, port uint16) bool {
	addr := net.JoinHostPort(host, strconv.Itoa(int(port)))
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// FindAvailablePort scans the 100-port window [start, min(start+99,
// 65535)] and returns the first port nothing answers on.
func FindAvailablePort(host string, start uint16) (uint16, error) {
	end := uint32(start) + scanWindow
	if end > 65535 {
		end = 65535
	}
	for p := uint32(start); p <= end; p++ {
		if !IsReachable(host, uint16(p)) {
			return uint16(p), nil
		}
	}
	return 0, &PortError{Message: fmt.Sprintf("no available port found in [%d, %d]", start, end)}
}

// ResolvePort implements spec.md §4.8: if requested is free, use it;
// else, if switching is disallowed, error citing --no-port-switching;
// else scan forward from requested+1, erroring on overflow at 65535 or
// an exhausted scan window.
func ResolvePort(host string, requested uint16, allowSwitching bool) (uint16, error) {
	if !IsReachable(host, requested) {
		return requested, nil
	}

	if !allowSwitching {
		return 0, &PortError{Message: fmt.Sprintf(
			"port %d is already in use; pass --no-port-switching=false or choose a different port", requested)}
	}

	if requested == 65535 {
		return 0, &PortError{Message: "port 65535 is in use and no higher ports are available"}
	}

	next := requested + 1
	found, err := FindAvailablePort(host, next)
	if err != nil {
		end := uint32(next) + scanWindow
		if end > 65535 {
			end = 65535
		}
		return 0, &PortError{Message: fmt.Sprintf(
			"port %d is in use and no available port was found in [%d, %d]", requested, next, end)}
	}
	metrics.RecordPortSwitch()
	return found, nil
}
