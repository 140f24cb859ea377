package client

import "context"

// Conn is the write side of an established connection. Implementations must
// be safe for concurrent writes.
type Conn interface {
	WriteText(data []byte) error
	WriteBinary(data []byte) error
	Close(code int, reason string) error
}

// ConnEvents receives events from the connection primitive. Callbacks are
// invoked from the connection's own read goroutine; OnClose fires exactly
// once, after the last OnText/OnBinary.
type ConnEvents struct {
	OnText   func(data []byte)
	OnBinary func(data []byte)
	OnError  func(err error)
	OnClose  func(code int, reason string)
}

// Dialer opens the underlying connection to the platform. Dial blocks until
// the connection is open or the context is done.
type Dialer interface {
	Dial(ctx context.Context, rawURL string, events ConnEvents) (Conn, error)
}
