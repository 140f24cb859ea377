package client

import (
	"math"
	"net/url"
	"time"

	"github.com/receptorhq/receptor-go/status"
)

// Defaults applied by WithDefaults for every optional tunable.
const (
	DefaultConnectTimeout        = 10 * time.Second
	DefaultHeartbeatInterval     = 5 * time.Second
	DefaultMaxMessageSize        = 10 << 20
	DefaultMaxReconnectAttempts  = -1 // unlimited
	DefaultBaseReconnectInterval = 1 * time.Second
	DefaultMaxReconnectInterval  = 60 * time.Second
	DefaultBackoffFactor         = 2.0
	DefaultJitterFactor          = 0.1
)

// Config holds immutable per-terminal settings. Identity fields and the
// endpoint are required; every other field has a default resolved by
// WithDefaults.
type Config struct {
	DeviceID   string
	DeviceType string
	Endpoint   string
	TenantID   string
	ProductID  string
	ProductKey string

	// EnableDirectiveReceiving defaults to true; a nil pointer means unset.
	EnableDirectiveReceiving *bool

	ConnectTimeout    time.Duration
	HeartbeatInterval time.Duration
	MaxMessageSize    int

	// MaxReconnectAttempts <= 0 means unlimited.
	MaxReconnectAttempts  int
	BaseReconnectInterval time.Duration
	MaxReconnectInterval  time.Duration
	BackoffFactor         float64
	JitterFactor          float64
}

// WithDefaults returns a copy with every unset optional field populated.
// Pure: the receiver is not modified.
func (c Config) WithDefaults() Config {
	if c.EnableDirectiveReceiving == nil {
		enabled := true
		c.EnableDirectiveReceiving = &enabled
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.HeartbeatInterval == 0 {
		c.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.MaxMessageSize == 0 {
		c.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.MaxReconnectAttempts == 0 {
		c.MaxReconnectAttempts = DefaultMaxReconnectAttempts
	}
	if c.BaseReconnectInterval == 0 {
		c.BaseReconnectInterval = DefaultBaseReconnectInterval
	}
	if c.MaxReconnectInterval == 0 {
		c.MaxReconnectInterval = DefaultMaxReconnectInterval
	}
	if c.BackoffFactor == 0 {
		c.BackoffFactor = DefaultBackoffFactor
	}
	if c.JitterFactor == 0 {
		c.JitterFactor = DefaultJitterFactor
	}
	return c
}

// Validate checks a resolved config. All numeric tunables must be finite and
// non-negative and the backoff factor must be at least 1.
func (c Config) Validate() error {
	for name, val := range map[string]string{
		"deviceId":   c.DeviceID,
		"deviceType": c.DeviceType,
		"endpoint":   c.Endpoint,
		"tenantId":   c.TenantID,
		"productId":  c.ProductID,
		"productKey": c.ProductKey,
	} {
		if val == "" {
			return status.Errorf(status.InvalidConfig, "%s is required", name)
		}
	}

	u, err := url.Parse(c.Endpoint)
	if err != nil {
		return status.Errorf(status.InvalidConfig, "invalid endpoint %q: %v", c.Endpoint, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return status.Errorf(status.InvalidConfig, "endpoint scheme must be ws or wss, got %q", u.Scheme)
	}

	if c.ConnectTimeout < 0 || c.HeartbeatInterval < 0 || c.MaxMessageSize < 0 ||
		c.BaseReconnectInterval < 0 || c.MaxReconnectInterval < 0 {
		return status.New(status.InvalidConfig, "durations and sizes must be non-negative")
	}
	if math.IsNaN(c.BackoffFactor) || math.IsInf(c.BackoffFactor, 0) || c.BackoffFactor < 1 {
		return status.Errorf(status.InvalidConfig, "backoffFactor must be finite and >= 1, got %v", c.BackoffFactor)
	}
	if math.IsNaN(c.JitterFactor) || math.IsInf(c.JitterFactor, 0) || c.JitterFactor < 0 {
		return status.Errorf(status.InvalidConfig, "jitterFactor must be finite and non-negative, got %v", c.JitterFactor)
	}
	return nil
}
