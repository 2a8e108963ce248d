package stub

import (
	"context"
	"fmt"
	"net"
	"time"
)

// ProbeResult describes whether a debug stub port accepts connections.
type ProbeResult struct {
	// Address is the host:port that was probed
	Address string
	// Reachable is true if a TCP connection was established
	Reachable bool
	// Latency is the time taken to connect
	Latency time.Duration
	// Message provides additional context (error message or success info)
	Message string
	// Error contains the underlying error if the probe failed
	Error error
}

// Probe checks that something is listening on the stub port. No packet is
// sent, so a running session on the target is not disturbed.
func Probe(ctx context.Context, host string, port int, timeout time.Duration) ProbeResult {
	address := net.JoinHostPort(host, fmt.Sprint(port))
	result := ProbeResult{Address: address}

	dialer := net.Dialer{Timeout: timeout}
	start := time.Now()
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		result.Error = err
		result.Message = fmt.Sprintf("Cannot connect to debug stub at %s\n"+
			"Make sure st-util is running: st-util -p %d", address, port)
		return result
	}
	conn.Close()

	result.Reachable = true
	result.Latency = time.Since(start)
	result.Message = fmt.Sprintf("Debug stub accepting connections at %s", address)
	return result
}
