package sdk

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/receptorhq/receptor-go/client"
	"github.com/receptorhq/receptor-go/proto"
	"github.com/receptorhq/receptor-go/status"
)

// fakeConn implements client.Conn for registry testing.
type fakeConn struct {
	mu     sync.Mutex
	events client.ConnEvents
	texts  [][]byte
	closed bool
}

func (c *fakeConn) WriteText(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.texts = append(c.texts, append([]byte(nil), data...))
	return nil
}

func (c *fakeConn) WriteBinary(data []byte) error { return nil }

func (c *fakeConn) Close(code int, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) serverText(data []byte) { c.events.OnText(data) }

// fakeDialer refuses endpoints containing "unreachable" and records every
// opened connection by URL.
type fakeDialer struct {
	mu    sync.Mutex
	conns map[string]*fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[string]*fakeConn)}
}

func (d *fakeDialer) Dial(ctx context.Context, rawURL string, events client.ConnEvents) (client.Conn, error) {
	if strings.Contains(rawURL, "unreachable") {
		return nil, errors.New("dial refused")
	}
	conn := &fakeConn{events: events}
	d.mu.Lock()
	d.conns[rawURL] = conn
	d.mu.Unlock()
	return conn, nil
}

func (d *fakeDialer) connFor(substr string) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	for u, c := range d.conns {
		if strings.Contains(u, substr) {
			return c
		}
	}
	return nil
}

func terminalConfig(path string) client.Config {
	return client.Config{
		DeviceID:   "dev-" + path,
		DeviceType: "sensor",
		Endpoint:   "ws://platform.local/" + path,
		TenantID:   "t1",
		ProductID:  "p1",
		ProductKey: "k1",
		// keep background machinery quiet during tests
		HeartbeatInterval:     time.Hour,
		MaxReconnectAttempts:  1,
		BaseReconnectInterval: time.Hour,
	}
}

func newTestSDK(t *testing.T, ids ...string) (*SDK, *fakeDialer) {
	t.Helper()
	s := New()
	dialer := newFakeDialer()
	for _, id := range ids {
		if err := s.RegisterTerminal(id, terminalConfig(id), WithDialer(dialer)); err != nil {
			t.Fatalf("RegisterTerminal(%s) failed: %v", id, err)
		}
	}
	return s, dialer
}

func TestSDK_RegisterTerminal_Duplicate(t *testing.T) {
	s, dialer := newTestSDK(t, "term-a")

	first, err := s.Transport("term-a")
	if err != nil {
		t.Fatalf("Transport failed: %v", err)
	}

	err = s.RegisterTerminal("term-a", terminalConfig("other"), WithDialer(dialer))
	if status.CodeOf(err) != status.AlreadyInitialized {
		t.Fatalf("Expected AlreadyInitialized, got %v", err)
	}

	// First registration untouched.
	after, _ := s.Transport("term-a")
	if after != first {
		t.Error("Expected original transport to survive the duplicate registration")
	}
}

func TestSDK_RegisterTerminal_InvalidConfig(t *testing.T) {
	s := New()

	err := s.RegisterTerminal("term-a", client.Config{DeviceID: "dev"})
	if status.CodeOf(err) != status.InvalidConfig {
		t.Errorf("Expected InvalidConfig, got %v", err)
	}
}

func TestSDK_UnregisterTerminal(t *testing.T) {
	s, dialer := newTestSDK(t, "term-a")

	if err := s.Connect("term-a", ""); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	if err := s.UnregisterTerminal("term-a"); err != nil {
		t.Fatalf("UnregisterTerminal failed: %v", err)
	}

	// Unregistration disconnects first.
	if conn := dialer.connFor("term-a"); conn == nil || !conn.isClosed() {
		t.Error("Expected the underlying connection to be closed")
	}

	err := s.Connect("term-a", "")
	if status.CodeOf(err) != status.TerminalNotFound {
		t.Errorf("Expected TerminalNotFound after unregistration, got %v", err)
	}

	if err := s.UnregisterTerminal("term-a"); status.CodeOf(err) != status.TerminalNotFound {
		t.Errorf("Expected TerminalNotFound on double unregistration, got %v", err)
	}
}

func TestSDK_TerminalNotFound(t *testing.T) {
	s, _ := newTestSDK(t)

	if err := s.SendSignal("ghost", proto.NewSignal("telemetry")); status.CodeOf(err) != status.TerminalNotFound {
		t.Errorf("Expected TerminalNotFound, got %v", err)
	}
	if _, err := s.Stats("ghost"); status.CodeOf(err) != status.TerminalNotFound {
		t.Errorf("Expected TerminalNotFound, got %v", err)
	}
	if err := s.SetDirectiveHandler("ghost", nil); status.CodeOf(err) != status.TerminalNotFound {
		t.Errorf("Expected TerminalNotFound, got %v", err)
	}

	if !strings.Contains(s.LastError(), "ghost") {
		t.Errorf("Expected lastError to mention the terminal, got %q", s.LastError())
	}
}

func TestSDK_ConnectAll_PartialFailure(t *testing.T) {
	s, _ := newTestSDK(t, "term-a", "term-b")
	dialer := newFakeDialer()

	cfg := terminalConfig("term-c")
	cfg.Endpoint = "ws://unreachable.local/term-c"
	if err := s.RegisterTerminal("term-c", cfg, WithDialer(dialer)); err != nil {
		t.Fatalf("RegisterTerminal failed: %v", err)
	}

	results := s.ConnectAll("")

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}

	var failures int
	for id, err := range results {
		if err != nil {
			failures++
			if id != "term-c" {
				t.Errorf("Unexpected failure for %s: %v", id, err)
			}
		}
	}
	if failures != 1 {
		t.Errorf("Expected exactly one failing result, got %d", failures)
	}

	// The failing terminal does not cancel the others.
	for _, id := range []string{"term-a", "term-b"} {
		connected, err := s.IsConnected(id)
		if err != nil || !connected {
			t.Errorf("Expected %s connected, got connected=%v err=%v", id, connected, err)
		}
	}
}

func TestSDK_DisconnectAll(t *testing.T) {
	s, _ := newTestSDK(t, "term-a", "term-b")

	for id, err := range s.ConnectAll("") {
		if err != nil {
			t.Fatalf("ConnectAll(%s) failed: %v", id, err)
		}
	}

	for id, err := range s.DisconnectAll() {
		if err != nil {
			t.Errorf("DisconnectAll(%s) failed: %v", id, err)
		}
		if connected, _ := s.IsConnected(id); connected {
			t.Errorf("Expected %s disconnected", id)
		}
	}
}

func TestSDK_SendSignalsBatch(t *testing.T) {
	s, _ := newTestSDK(t, "term-a", "term-b")

	if err := s.Connect("term-a", ""); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	// term-b stays disconnected on purpose.

	results := s.SendSignalsBatch([]BatchSignal{
		{TerminalID: "term-a", Signal: proto.NewSignal("telemetry")},
		{TerminalID: "term-b", Signal: proto.NewSignal("telemetry")},
		{TerminalID: "ghost", Signal: proto.NewSignal("telemetry")},
	})

	if len(results) != 3 {
		t.Fatalf("Expected 3 results, got %d", len(results))
	}
	if results[0] != nil {
		t.Errorf("Expected index 0 to succeed, got %v", results[0])
	}
	if status.CodeOf(results[1]) != status.NotConnected {
		t.Errorf("Expected NotConnected at index 1, got %v", results[1])
	}
	if status.CodeOf(results[2]) != status.TerminalNotFound {
		t.Errorf("Expected TerminalNotFound at index 2, got %v", results[2])
	}
}

func TestSDK_GlobalDirectiveHandler(t *testing.T) {
	s, dialer := newTestSDK(t, "term-a")

	var mu sync.Mutex
	seen := make(map[string]string)
	s.SetGlobalDirectiveHandler(func(terminalID string, d *proto.Directive) {
		mu.Lock()
		seen[terminalID] = d.Name
		mu.Unlock()
	})

	// Registered after the global handler was set; it still gets it.
	if err := s.RegisterTerminal("term-b", terminalConfig("term-b"), WithDialer(dialer)); err != nil {
		t.Fatalf("RegisterTerminal failed: %v", err)
	}

	for id, err := range s.ConnectAll("") {
		if err != nil {
			t.Fatalf("ConnectAll(%s) failed: %v", id, err)
		}
	}

	dialer.connFor("term-a").serverText([]byte(`{"id":"d1","name":"reboot","parameters":{}}`))
	dialer.connFor("term-b").serverText([]byte(`{"id":"d2","name":"shutdown","parameters":{}}`))

	mu.Lock()
	defer mu.Unlock()
	if seen["term-a"] != "reboot" || seen["term-b"] != "shutdown" {
		t.Errorf("Expected fan-out to both terminals, got %v", seen)
	}
}

func TestSDK_PerTerminalOverridesGlobal(t *testing.T) {
	s, dialer := newTestSDK(t, "term-a", "term-b")

	var mu sync.Mutex
	var globalCalls, specificCalls int
	s.SetGlobalDirectiveHandler(func(terminalID string, d *proto.Directive) {
		mu.Lock()
		globalCalls++
		mu.Unlock()
	})

	// Set after the global one, so it wins on term-a.
	err := s.SetDirectiveHandler("term-a", func(d *proto.Directive) {
		mu.Lock()
		specificCalls++
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("SetDirectiveHandler failed: %v", err)
	}

	for id, err := range s.ConnectAll("") {
		if err != nil {
			t.Fatalf("ConnectAll(%s) failed: %v", id, err)
		}
	}

	directive := []byte(`{"id":"d1","name":"reboot","parameters":{}}`)
	dialer.connFor("term-a").serverText(directive)
	dialer.connFor("term-b").serverText(directive)

	mu.Lock()
	defer mu.Unlock()
	if specificCalls != 1 {
		t.Errorf("Expected the terminal-specific handler on term-a, got %d calls", specificCalls)
	}
	if globalCalls != 1 {
		t.Errorf("Expected the global handler only on term-b, got %d calls", globalCalls)
	}
}

func TestSDK_GlobalConnectionHandler(t *testing.T) {
	s, _ := newTestSDK(t, "term-a")

	var mu sync.Mutex
	var events []string
	s.SetGlobalConnectionHandler(func(terminalID string, connected bool, errorMessage string) {
		mu.Lock()
		if connected {
			events = append(events, terminalID+":up")
		} else {
			events = append(events, terminalID+":down")
		}
		mu.Unlock()
	})

	if err := s.Connect("term-a", ""); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := s.Disconnect("term-a"); err != nil {
		t.Fatalf("Disconnect failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 2 || events[0] != "term-a:up" || events[1] != "term-a:down" {
		t.Errorf("Expected up then down, got %v", events)
	}
}

func TestSDK_Terminals(t *testing.T) {
	s, _ := newTestSDK(t, "term-b", "term-a")

	ids := s.Terminals()
	if len(ids) != 2 || ids[0] != "term-a" || ids[1] != "term-b" {
		t.Errorf("Expected sorted ids, got %v", ids)
	}
}
