// Package sdk manages a fleet of terminals, each backed by its own
// connection transport, with fleet-wide callback fan-out and concurrent
// batch operations.
package sdk

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/receptorhq/receptor-go/client"
	"github.com/receptorhq/receptor-go/proto"
	"github.com/receptorhq/receptor-go/status"
)

// Global handler signatures: the per-terminal categories with the terminal
// id prepended.
type (
	GlobalConnectionHandler func(terminalID string, connected bool, errorMessage string)
	GlobalDirectiveHandler  func(terminalID string, d *proto.Directive)
	GlobalBinaryDataHandler func(terminalID string, data []byte)
	GlobalErrorHandler      func(terminalID string, code status.Code, message string)
	GlobalCloseHandler      func(terminalID string, code int, reason string)
)

type globalHandlers struct {
	connection GlobalConnectionHandler
	directive  GlobalDirectiveHandler
	binary     GlobalBinaryDataHandler
	err        GlobalErrorHandler
	close      GlobalCloseHandler
}

// SDK is the terminal registry. It exclusively owns the registered
// transports; the mapping is mutated only by Register/Unregister.
type SDK struct {
	mu        sync.RWMutex
	terminals map[string]*client.Transport
	global    globalHandlers

	errMu   sync.Mutex
	lastErr string
}

func New() *SDK {
	return &SDK{terminals: make(map[string]*client.Transport)}
}

// TerminalOption customizes a terminal at registration time.
type TerminalOption func(*client.Transport)

// WithDialer swaps the connection primitive, e.g. for an environment that
// provides its own negotiated WebSocket capability.
func WithDialer(d client.Dialer) TerminalOption {
	return func(t *client.Transport) { t.SetDialer(d) }
}

// RegisterTerminal creates a transport for the config and stores it under
// id. Fails with AlreadyInitialized on a duplicate id, leaving the first
// registration untouched. Any global handlers set earlier are installed on
// the new terminal.
func (s *SDK) RegisterTerminal(id string, cfg client.Config, opts ...TerminalOption) error {
	if id == "" {
		return s.fail(status.New(status.InvalidParameter, "terminal id is required"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.terminals[id]; exists {
		return s.fail(status.Errorf(status.AlreadyInitialized, "terminal %s is already registered", id))
	}

	t, err := client.NewTransport(cfg)
	if err != nil {
		return s.fail(err)
	}
	for _, opt := range opts {
		opt(t)
	}
	s.installGlobalsLocked(id, t)
	s.terminals[id] = t

	slog.Info("Terminal registered", "terminal", id, "device", cfg.DeviceID)
	return nil
}

// UnregisterTerminal disconnects the terminal if needed and removes it.
func (s *SDK) UnregisterTerminal(id string) error {
	s.mu.Lock()
	t, ok := s.terminals[id]
	if ok {
		delete(s.terminals, id)
	}
	s.mu.Unlock()

	if !ok {
		return s.fail(status.Errorf(status.TerminalNotFound, "terminal %s is not registered", id))
	}

	t.Disconnect()
	slog.Info("Terminal unregistered", "terminal", id)
	return nil
}

// Terminals returns the registered ids in stable order.
func (s *SDK) Terminals() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.terminals))
	for id := range s.terminals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Transport exposes a registered terminal's transport for direct use.
func (s *SDK) Transport(id string) (*client.Transport, error) {
	return s.resolve(id)
}

// ---------- per-terminal operations ---------- //

func (s *SDK) Connect(id, traceID string) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	return s.failOn(t.Connect(traceID))
}

func (s *SDK) Disconnect(id string) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	return s.failOn(t.Disconnect())
}

func (s *SDK) IsConnected(id string) (bool, error) {
	t, err := s.resolve(id)
	if err != nil {
		return false, err
	}
	return t.IsConnected(), nil
}

func (s *SDK) SendSignal(id string, sig *proto.Signal) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	return s.failOn(t.SendSignal(sig))
}

func (s *SDK) SendBinaryData(id, dataType string, payload []byte) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	return s.failOn(t.SendBinaryData(dataType, payload))
}

func (s *SDK) Stats(id string) (client.Stats, error) {
	t, err := s.resolve(id)
	if err != nil {
		return client.Stats{}, err
	}
	return t.Stats(), nil
}

func (s *SDK) ResetStats(id string) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	t.ResetStats()
	return nil
}

// ---------- per-terminal handlers ---------- //

// Per-terminal setters override any earlier global installation on that
// terminal; a terminal carries at most one handler per category, whichever
// was set most recently.

func (s *SDK) SetConnectionHandler(id string, h client.ConnectionHandler) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	t.OnConnection(h)
	return nil
}

func (s *SDK) SetDirectiveHandler(id string, h client.DirectiveHandler) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	t.OnDirective(h)
	return nil
}

func (s *SDK) SetBinaryDataHandler(id string, h client.BinaryDataHandler) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	t.OnBinaryData(h)
	return nil
}

func (s *SDK) SetErrorHandler(id string, h client.ErrorHandler) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	t.OnError(h)
	return nil
}

func (s *SDK) SetCloseHandler(id string, h client.CloseHandler) error {
	t, err := s.resolve(id)
	if err != nil {
		return err
	}
	t.OnClose(h)
	return nil
}

// ---------- global handlers ---------- //

// Global setters wrap the handler with each terminal's id and install it on
// every currently-registered terminal; terminals registered afterwards get
// it at registration time.

func (s *SDK) SetGlobalConnectionHandler(h GlobalConnectionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.connection = h
	for id, t := range s.terminals {
		t.OnConnection(func(connected bool, errorMessage string) { h(id, connected, errorMessage) })
	}
}

func (s *SDK) SetGlobalDirectiveHandler(h GlobalDirectiveHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.directive = h
	for id, t := range s.terminals {
		t.OnDirective(func(d *proto.Directive) { h(id, d) })
	}
}

func (s *SDK) SetGlobalBinaryDataHandler(h GlobalBinaryDataHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.binary = h
	for id, t := range s.terminals {
		t.OnBinaryData(func(data []byte) { h(id, data) })
	}
}

func (s *SDK) SetGlobalErrorHandler(h GlobalErrorHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.err = h
	for id, t := range s.terminals {
		t.OnError(func(code status.Code, message string) { h(id, code, message) })
	}
}

func (s *SDK) SetGlobalCloseHandler(h GlobalCloseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.global.close = h
	for id, t := range s.terminals {
		t.OnClose(func(code int, reason string) { h(id, code, reason) })
	}
}

func (s *SDK) installGlobalsLocked(id string, t *client.Transport) {
	if h := s.global.connection; h != nil {
		t.OnConnection(func(connected bool, errorMessage string) { h(id, connected, errorMessage) })
	}
	if h := s.global.directive; h != nil {
		t.OnDirective(func(d *proto.Directive) { h(id, d) })
	}
	if h := s.global.binary; h != nil {
		t.OnBinaryData(func(data []byte) { h(id, data) })
	}
	if h := s.global.err; h != nil {
		t.OnError(func(code status.Code, message string) { h(id, code, message) })
	}
	if h := s.global.close; h != nil {
		t.OnClose(func(code int, reason string) { h(id, code, reason) })
	}
}

// ---------- last error ---------- //

// LastError returns the message of the most recent failed operation.
// Process-local convenience only; every operation also returns its error,
// which is the reliable channel under concurrency.
func (s *SDK) LastError() string {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.lastErr
}

func (s *SDK) resolve(id string) (*client.Transport, error) {
	s.mu.RLock()
	t, ok := s.terminals[id]
	s.mu.RUnlock()
	if !ok {
		return nil, s.fail(status.Errorf(status.TerminalNotFound, "terminal %s is not registered", id))
	}
	return t, nil
}

func (s *SDK) fail(err error) error {
	s.errMu.Lock()
	s.lastErr = err.Error()
	s.errMu.Unlock()
	return err
}

func (s *SDK) failOn(err error) error {
	if err == nil {
		return nil
	}
	return s.fail(err)
}
