package client

import (
	"github.com/receptorhq/receptor-go/proto"
	"github.com/receptorhq/receptor-go/status"
)

// Handler signatures, one per event category.
type (
	ConnectionHandler func(connected bool, errorMessage string)
	DirectiveHandler  func(d *proto.Directive)
	BinaryDataHandler func(data []byte)
	ErrorHandler      func(code status.Code, message string)
	CloseHandler      func(code int, reason string)
)

// handlers is the transport's dispatch table: at most one handler per
// category, most recently set wins.
type handlers struct {
	connection ConnectionHandler
	directive  DirectiveHandler
	binary     BinaryDataHandler
	err        ErrorHandler
	close      CloseHandler
}

// OnConnection installs the connection handler, replacing any previous one.
func (t *Transport) OnConnection(h ConnectionHandler) {
	t.mu.Lock()
	t.handlers.connection = h
	t.mu.Unlock()
}

func (t *Transport) OnDirective(h DirectiveHandler) {
	t.mu.Lock()
	t.handlers.directive = h
	t.mu.Unlock()
}

func (t *Transport) OnBinaryData(h BinaryDataHandler) {
	t.mu.Lock()
	t.handlers.binary = h
	t.mu.Unlock()
}

func (t *Transport) OnError(h ErrorHandler) {
	t.mu.Lock()
	t.handlers.err = h
	t.mu.Unlock()
}

func (t *Transport) OnClose(h CloseHandler) {
	t.mu.Lock()
	t.handlers.close = h
	t.mu.Unlock()
}

func (t *Transport) dispatchConnection(connected bool, errorMessage string) {
	t.mu.Lock()
	h := t.handlers.connection
	t.mu.Unlock()
	if h != nil {
		h(connected, errorMessage)
	}
}

func (t *Transport) dispatchDirective(d *proto.Directive) {
	t.mu.Lock()
	h := t.handlers.directive
	t.mu.Unlock()
	if h != nil {
		h(d)
	}
}

func (t *Transport) dispatchBinary(data []byte) {
	t.mu.Lock()
	h := t.handlers.binary
	t.mu.Unlock()
	if h != nil {
		h(data)
	}
}

func (t *Transport) dispatchClose(code int, reason string) {
	t.mu.Lock()
	h := t.handlers.close
	t.mu.Unlock()
	if h != nil {
		h(code, reason)
	}
}

// reportError counts the error and fans it out to the error handler. Every
// surfaced error goes through here so the error counter stays exact.
func (t *Transport) reportError(code status.Code, message string) {
	t.mu.Lock()
	t.counters.errors++
	h := t.handlers.err
	t.mu.Unlock()
	if h != nil {
		h(code, message)
	}
}
