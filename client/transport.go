package client

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/receptorhq/receptor-go/proto"
	"github.com/receptorhq/receptor-go/status"
)

type connState int

const (
	stateDisconnected connState = iota
	stateConnecting
	stateConnected
)

// Transport owns one terminal's connection lifecycle: the connect/disconnect
// state machine, the heartbeat monitor, the reconnect policy and the
// per-terminal statistics. All mutable state is guarded by a single mutex;
// timers and connection events carry an epoch so a task firing after
// teardown observes a stale epoch and returns.
type Transport struct {
	cfg    Config
	dialer Dialer

	mu    sync.Mutex
	state connState
	conn  Conn
	epoch uint64

	shouldReconnect   bool
	reconnectAttempts int
	reconnectTimer    *time.Timer
	heartbeatTimer    *time.Timer

	connectedAt  time.Time
	lastActivity time.Time

	handlers handlers
	counters counters
}

// NewTransport resolves defaults, validates the config and returns a
// disconnected transport backed by the WebSocket dialer.
func NewTransport(cfg Config) (*Transport, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Transport{
		cfg:    cfg,
		dialer: &WebSocketDialer{ReadLimit: int64(cfg.MaxMessageSize)},
	}, nil
}

// SetDialer swaps the connection primitive. Only valid while disconnected.
func (t *Transport) SetDialer(d Dialer) {
	t.mu.Lock()
	t.dialer = d
	t.mu.Unlock()
}

// Config returns the resolved per-terminal configuration.
func (t *Transport) Config() Config {
	return t.cfg
}

// IsConnected reflects only the Connected state, not the presence of an
// underlying socket object.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state == stateConnected
}

// Connect opens the connection, blocking until the handshake settles or the
// connect timeout expires. A connect that fails here is not retried
// automatically; only post-connect drops trigger the reconnect policy.
func (t *Transport) Connect(traceID string) error {
	t.mu.Lock()
	switch t.state {
	case stateConnected:
		t.mu.Unlock()
		return status.Errorf(status.AlreadyConnected, "terminal %s is already connected", t.cfg.DeviceID)
	case stateConnecting:
		t.mu.Unlock()
		return status.Errorf(status.AlreadyConnected, "terminal %s has a connect in flight", t.cfg.DeviceID)
	}
	t.state = stateConnecting
	t.shouldReconnect = true
	t.mu.Unlock()

	if err := t.dial(traceID); err != nil {
		t.dispatchConnection(false, err.Error())
		return err
	}
	return nil
}

// dial performs one connect attempt. It reports failures through the error
// callback and leaves reconnect scheduling to the caller.
func (t *Transport) dial(traceID string) error {
	t.mu.Lock()
	t.epoch++
	ep := t.epoch
	dialer := t.dialer
	t.mu.Unlock()

	events := ConnEvents{
		OnText:   func(data []byte) { t.handleText(ep, data) },
		OnBinary: func(data []byte) { t.handleBinary(ep, data) },
		OnError:  func(err error) { t.handleConnError(ep, err) },
		OnClose:  func(code int, reason string) { t.handleConnClose(ep, code, reason) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.cfg.ConnectTimeout)
	defer cancel()

	conn, err := dialer.Dial(ctx, t.connectURL(traceID), events)
	if err != nil {
		code := status.ConnectionFailed
		if ctx.Err() == context.DeadlineExceeded {
			code = status.ConnectionTimeout
		}
		t.mu.Lock()
		t.state = stateDisconnected
		t.mu.Unlock()
		slog.Warn("Connect attempt failed", "device", t.cfg.DeviceID, "error", err)
		t.reportError(code, err.Error())
		return status.Errorf(code, "connect %s: %v", t.cfg.DeviceID, err)
	}

	t.mu.Lock()
	if ep != t.epoch {
		// Disconnect raced the dial; its result is discarded.
		t.mu.Unlock()
		conn.Close(websocket.CloseNormalClosure, "superseded")
		return status.Errorf(status.ConnectionFailed, "terminal %s was disconnected during dial", t.cfg.DeviceID)
	}
	t.conn = conn
	t.state = stateConnected
	t.reconnectAttempts = 0
	t.connectedAt = time.Now()
	t.lastActivity = t.connectedAt
	t.scheduleHeartbeatLocked(ep)
	t.mu.Unlock()

	slog.Info("Terminal connected", "device", t.cfg.DeviceID, "endpoint", t.cfg.Endpoint)
	t.dispatchConnection(true, "")
	return nil
}

// Disconnect is caller-initiated: it clears the reconnect flag, cancels the
// heartbeat and reconnect timers, and closes the connection with a normal
// closure. Safe to call when already disconnected.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	t.shouldReconnect = false
	t.epoch++
	t.stopTimersLocked()
	conn := t.conn
	t.conn = nil
	wasDisconnected := t.state == stateDisconnected
	t.state = stateDisconnected
	t.mu.Unlock()

	if conn != nil {
		conn.Close(websocket.CloseNormalClosure, "client disconnect")
	}
	if !wasDisconnected {
		slog.Info("Terminal disconnected", "device", t.cfg.DeviceID)
		t.dispatchClose(websocket.CloseNormalClosure, "client disconnect")
		t.dispatchConnection(false, "")
	}
	return nil
}

// SendSignal serializes and sends an uplink signal, auto-filling the source
// descriptor from the terminal when absent. Oversized signals are rejected
// before any write attempt.
func (t *Transport) SendSignal(sig *proto.Signal) error {
	if sig == nil {
		return status.New(status.InvalidSignal, "signal is nil")
	}

	t.mu.Lock()
	if t.state != stateConnected {
		t.mu.Unlock()
		return status.Errorf(status.NotConnected, "terminal %s is not connected", t.cfg.DeviceID)
	}
	conn := t.conn
	t.mu.Unlock()

	if sig.Source.ReceptorID == "" {
		sig.Source.ReceptorID = t.cfg.DeviceID
	}
	if sig.Source.ReceptorTopic == "" {
		sig.Source.ReceptorTopic = t.cfg.DeviceType
	}
	if sig.Source.GeneratedTime == "" {
		sig.Source.GeneratedTime = sig.Timestamp
	}

	data, err := sig.Encode()
	if err != nil {
		return status.Errorf(status.InvalidSignal, "encode signal %s: %v", sig.UUID, err)
	}
	if len(data) > t.cfg.MaxMessageSize {
		return status.Errorf(status.SignalTooLarge,
			"signal %s is %d bytes, limit is %d", sig.UUID, len(data), t.cfg.MaxMessageSize)
	}

	if err := conn.WriteText(data); err != nil {
		t.reportError(status.SendFailed, err.Error())
		return status.Errorf(status.SendFailed, "send signal %s: %v", sig.UUID, err)
	}

	t.mu.Lock()
	t.counters.signalsSent++
	t.lastActivity = time.Now()
	t.mu.Unlock()

	slog.Debug("Signal sent", "device", t.cfg.DeviceID, "uuid", sig.UUID, "type", sig.Type, "size", len(data))
	return nil
}

// SendBinaryData frames and sends a masked binary media payload.
func (t *Transport) SendBinaryData(dataType string, payload []byte) error {
	t.mu.Lock()
	if t.state != stateConnected {
		t.mu.Unlock()
		return status.Errorf(status.NotConnected, "terminal %s is not connected", t.cfg.DeviceID)
	}
	conn := t.conn
	t.mu.Unlock()

	frame, err := proto.EncodeFrame(dataType, payload)
	if err != nil {
		return err
	}

	if err := conn.WriteBinary(frame); err != nil {
		t.reportError(status.SendFailed, err.Error())
		return status.Errorf(status.SendFailed, "send binary frame: %v", err)
	}

	t.mu.Lock()
	t.counters.binaryFramesSent++
	t.lastActivity = time.Now()
	t.mu.Unlock()

	slog.Debug("Binary frame sent", "device", t.cfg.DeviceID, "dataType", dataType, "size", len(payload))
	return nil
}

// ---------- inbound events ---------- //

func (t *Transport) handleText(ep uint64, data []byte) {
	t.mu.Lock()
	if ep != t.epoch {
		t.mu.Unlock()
		return
	}
	t.lastActivity = time.Now()
	receiveDirectives := *t.cfg.EnableDirectiveReceiving
	t.mu.Unlock()

	if !receiveDirectives {
		slog.Debug("Directive receiving disabled, dropping text frame", "device", t.cfg.DeviceID, "size", len(data))
		return
	}

	d, ok, err := proto.DecodeDirective(data)
	if err != nil {
		slog.Warn("Invalid JSON message received", "device", t.cfg.DeviceID, "error", err, "data", string(data))
		t.reportError(status.InternalError, "malformed inbound frame: "+err.Error())
		return
	}
	if !ok {
		slog.Debug("Ignoring unrecognized control message", "device", t.cfg.DeviceID, "data", string(data))
		return
	}

	t.mu.Lock()
	t.counters.directivesReceived++
	t.mu.Unlock()

	slog.Debug("Directive received", "device", t.cfg.DeviceID, "id", d.ID, "name", d.Name)
	t.dispatchDirective(d)
}

// Inbound binary frames are delivered to the binary-data callback as raw
// bytes; the application-layer frame codec is not applied on receive.
func (t *Transport) handleBinary(ep uint64, data []byte) {
	t.mu.Lock()
	if ep != t.epoch {
		t.mu.Unlock()
		return
	}
	t.lastActivity = time.Now()
	t.counters.binaryFramesReceived++
	t.mu.Unlock()

	t.dispatchBinary(data)
}

func (t *Transport) handleConnError(ep uint64, err error) {
	t.mu.Lock()
	stale := ep != t.epoch
	t.mu.Unlock()
	if stale {
		return
	}
	t.reportError(status.ConnectionFailed, err.Error())
}

// handleConnClose runs on unsolicited closes. Caller-initiated disconnects
// bump the epoch first, so their close event is ignored here.
func (t *Transport) handleConnClose(ep uint64, code int, reason string) {
	t.mu.Lock()
	if ep != t.epoch {
		t.mu.Unlock()
		return
	}
	t.epoch++
	t.stopTimersLocked()
	t.conn = nil
	t.state = stateDisconnected
	shouldReconnect := t.shouldReconnect
	t.mu.Unlock()

	slog.Warn("Connection lost", "device", t.cfg.DeviceID, "code", code, "reason", reason)
	t.dispatchClose(code, reason)
	t.dispatchConnection(false, reason)

	if shouldReconnect {
		t.scheduleReconnect()
	}
}

// ---------- heartbeat ---------- //

func (t *Transport) scheduleHeartbeatLocked(ep uint64) {
	t.heartbeatTimer = time.AfterFunc(t.cfg.HeartbeatInterval, func() { t.heartbeatTick(ep) })
}

// heartbeatTick sends a keepalive only when the connection has been idle for
// a full interval; any frame sent or received in between already proves
// liveness. A failed keepalive is treated as a connection loss.
func (t *Transport) heartbeatTick(ep uint64) {
	t.mu.Lock()
	if ep != t.epoch || t.state != stateConnected {
		t.mu.Unlock()
		return
	}
	conn := t.conn
	idle := time.Since(t.lastActivity) >= t.cfg.HeartbeatInterval
	t.scheduleHeartbeatLocked(ep)
	t.mu.Unlock()

	if !idle {
		return
	}

	if err := conn.WriteText(proto.Heartbeat); err != nil {
		slog.Warn("Keepalive send failed", "device", t.cfg.DeviceID, "error", err)
		t.reportError(status.SendFailed, "keepalive send failed: "+err.Error())
		t.handleConnClose(ep, websocket.CloseAbnormalClosure, "keepalive send failed")
		return
	}

	t.mu.Lock()
	if ep == t.epoch {
		t.lastActivity = time.Now()
	}
	t.mu.Unlock()
	slog.Debug("Keepalive sent", "device", t.cfg.DeviceID)
}

// ---------- reconnect ---------- //

func (t *Transport) scheduleReconnect() {
	t.mu.Lock()
	if !t.shouldReconnect || t.state != stateDisconnected {
		t.mu.Unlock()
		return
	}
	if t.cfg.MaxReconnectAttempts > 0 && t.reconnectAttempts >= t.cfg.MaxReconnectAttempts {
		t.shouldReconnect = false
		attempts := t.reconnectAttempts
		t.mu.Unlock()
		slog.Warn("Reconnect attempts exhausted", "device", t.cfg.DeviceID, "attempts", attempts)
		t.reportError(status.ConnectionFailed, "reconnect attempts exhausted")
		return
	}
	delay := ReconnectDelay(t.reconnectAttempts, t.cfg)
	ep := t.epoch
	attempt := t.reconnectAttempts + 1
	t.reconnectTimer = time.AfterFunc(delay, func() { t.reconnectTick(ep) })
	t.mu.Unlock()

	slog.Info("Reconnect scheduled", "device", t.cfg.DeviceID, "attempt", attempt, "delay", delay)
}

// reconnectTick never propagates an error out of the background path; a
// failed attempt reports through the error callback and schedules the next
// one through the same policy.
func (t *Transport) reconnectTick(ep uint64) {
	t.mu.Lock()
	if ep != t.epoch || !t.shouldReconnect || t.state != stateDisconnected {
		t.mu.Unlock()
		return
	}
	t.reconnectAttempts++
	t.counters.reconnectAttempts++
	t.state = stateConnecting
	t.mu.Unlock()

	if err := t.dial(""); err != nil {
		t.scheduleReconnect()
	}
}

// ---------- helpers ---------- //

func (t *Transport) stopTimersLocked() {
	if t.heartbeatTimer != nil {
		t.heartbeatTimer.Stop()
		t.heartbeatTimer = nil
	}
	if t.reconnectTimer != nil {
		t.reconnectTimer.Stop()
		t.reconnectTimer = nil
	}
}

// connectURL appends the identity query parameters in their documented
// order, so it is built by hand instead of through url.Values (which sorts).
func (t *Transport) connectURL(traceID string) string {
	sep := "?"
	if u, err := url.Parse(t.cfg.Endpoint); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	s := t.cfg.Endpoint + sep +
		"tenantId=" + url.QueryEscape(t.cfg.TenantID) +
		"&productId=" + url.QueryEscape(t.cfg.ProductID) +
		"&productKey=" + url.QueryEscape(t.cfg.ProductKey)
	if traceID != "" {
		s += "&traceId=" + url.QueryEscape(traceID)
	}
	return s
}
