package client

import "time"

// Stats is a point-in-time snapshot of a transport's accounting. Counters
// accumulate across reconnects until ResetStats; Uptime is derived from the
// most recent successful connect and reads zero while disconnected.
type Stats struct {
	SignalsSent          uint64
	BinaryFramesSent     uint64
	DirectivesReceived   uint64
	BinaryFramesReceived uint64
	Errors               uint64
	ReconnectAttempts    uint64

	Connected bool
	Uptime    time.Duration
}

type counters struct {
	signalsSent          uint64
	binaryFramesSent     uint64
	directivesReceived   uint64
	binaryFramesReceived uint64
	errors               uint64
	reconnectAttempts    uint64
}

// Stats returns a snapshot; it never blocks the event path for long.
func (t *Transport) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		SignalsSent:          t.counters.signalsSent,
		BinaryFramesSent:     t.counters.binaryFramesSent,
		DirectivesReceived:   t.counters.directivesReceived,
		BinaryFramesReceived: t.counters.binaryFramesReceived,
		Errors:               t.counters.errors,
		ReconnectAttempts:    t.counters.reconnectAttempts,
		Connected:            t.state == stateConnected,
	}
	if s.Connected {
		s.Uptime = time.Since(t.connectedAt)
	}
	return s
}

// ResetStats zeroes all counters. Connection state and the reconnect policy
// are unaffected.
func (t *Transport) ResetStats() {
	t.mu.Lock()
	t.counters = counters{}
	t.mu.Unlock()
}
