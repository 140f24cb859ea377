package proto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// Heartbeat is the keepalive text frame sent on an idle connection. The
// platform is not required to answer it.
var Heartbeat = []byte(`{"type":"ping"}`)

// Source identifies where a signal originated.
type Source struct {
	ReceptorID    string `json:"receptorId"`
	ReceptorTopic string `json:"receptorTopic"`
	GeneratedTime string `json:"generatedTime"`
}

// Signal is an uplink message. Identity fields are fixed at construction;
// the payload stays mutable until the signal is sent.
type Signal struct {
	UUID      string  `json:"uuid"`
	Type      string  `json:"type"`
	Timestamp string  `json:"timestamp"`
	Source    Source  `json:"source"`
	Payload   Payload `json:"payload"`
}

func NewSignal(sigType string) *Signal {
	return &Signal{
		UUID:      uuid.NewString(),
		Type:      sigType,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   Payload{},
	}
}

// Encode serializes the signal to its JSON wire envelope.
func (s *Signal) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// Directive is a downlink command with a flat parameter mapping.
type Directive struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Timestamp  string         `json:"timestamp"`
	Parameters map[string]any `json:"parameters"`
}

// DecodeDirective parses an inbound text frame. The second return value is
// false when the frame is valid JSON but not a directive (both "id" and
// "name" are required); such frames are ignored by callers to stay
// forward-compatible with unrecognized control messages. Parameters may
// arrive either as a JSON object or as a JSON-encoded string of an object.
func DecodeDirective(data []byte) (*Directive, bool, error) {
	var raw struct {
		ID         string          `json:"id"`
		Name       string          `json:"name"`
		Timestamp  string          `json:"timestamp"`
		Parameters json.RawMessage `json:"parameters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, err
	}
	if raw.ID == "" || raw.Name == "" {
		return nil, false, nil
	}

	d := &Directive{
		ID:         raw.ID,
		Name:       raw.Name,
		Timestamp:  raw.Timestamp,
		Parameters: make(map[string]any),
	}
	if len(raw.Parameters) == 0 {
		return d, true, nil
	}

	if err := json.Unmarshal(raw.Parameters, &d.Parameters); err != nil {
		// Some platform versions double-encode parameters as a string.
		var encoded string
		if err2 := json.Unmarshal(raw.Parameters, &encoded); err2 != nil {
			return nil, false, err
		}
		if err2 := json.Unmarshal([]byte(encoded), &d.Parameters); err2 != nil {
			return nil, false, err2
		}
	}
	return d, true, nil
}

// GetStringParameter returns the parameter as a string, or def when absent
// or not coercible.
func (d *Directive) GetStringParameter(key, def string) string {
	v, ok := d.Parameters[key]
	if !ok {
		return def
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return def
	}
	return s
}

// GetIntParameter coerces string and float values, so "42" and 42.0 both
// resolve to 42.
func (d *Directive) GetIntParameter(key string, def int) int {
	v, ok := d.Parameters[key]
	if !ok {
		return def
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return def
	}
	return n
}

func (d *Directive) GetFloatParameter(key string, def float64) float64 {
	v, ok := d.Parameters[key]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

func (d *Directive) GetBoolParameter(key string, def bool) bool {
	v, ok := d.Parameters[key]
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return def
	}
	return b
}

// GetObjectParameter returns a nested object parameter, or def when the
// value is absent or not an object.
func (d *Directive) GetObjectParameter(key string, def map[string]any) map[string]any {
	v, ok := d.Parameters[key]
	if !ok {
		return def
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return def
	}
	return obj
}
