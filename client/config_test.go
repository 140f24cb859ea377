package client

import (
	"math"
	"testing"
	"time"

	"github.com/receptorhq/receptor-go/status"
)

func requiredConfig() Config {
	return Config{
		DeviceID:   "dev-1",
		DeviceType: "sensor",
		Endpoint:   "wss://platform.example.com/gateway",
		TenantID:   "t1",
		ProductID:  "p1",
		ProductKey: "k1",
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := requiredConfig().WithDefaults()

	if cfg.ConnectTimeout != 10*time.Second {
		t.Errorf("Expected connect timeout 10s, got %v", cfg.ConnectTimeout)
	}
	if cfg.HeartbeatInterval != 5*time.Second {
		t.Errorf("Expected heartbeat interval 5s, got %v", cfg.HeartbeatInterval)
	}
	if cfg.MaxMessageSize != 10<<20 {
		t.Errorf("Expected max message size 10MiB, got %d", cfg.MaxMessageSize)
	}
	if cfg.MaxReconnectAttempts != -1 {
		t.Errorf("Expected unlimited reconnect attempts, got %d", cfg.MaxReconnectAttempts)
	}
	if cfg.BaseReconnectInterval != time.Second || cfg.MaxReconnectInterval != 60*time.Second {
		t.Errorf("Unexpected reconnect intervals: %v / %v", cfg.BaseReconnectInterval, cfg.MaxReconnectInterval)
	}
	if cfg.BackoffFactor != 2.0 || cfg.JitterFactor != 0.1 {
		t.Errorf("Unexpected backoff tunables: %v / %v", cfg.BackoffFactor, cfg.JitterFactor)
	}
	if cfg.EnableDirectiveReceiving == nil || !*cfg.EnableDirectiveReceiving {
		t.Error("Expected directive receiving enabled by default")
	}
}

func TestConfig_WithDefaults_Pure(t *testing.T) {
	original := requiredConfig()
	_ = original.WithDefaults()

	if original.ConnectTimeout != 0 || original.EnableDirectiveReceiving != nil {
		t.Error("Expected WithDefaults not to modify the receiver")
	}
}

func TestConfig_WithDefaults_KeepsExplicit(t *testing.T) {
	cfg := requiredConfig()
	cfg.HeartbeatInterval = 30 * time.Second
	disabled := false
	cfg.EnableDirectiveReceiving = &disabled

	cfg = cfg.WithDefaults()
	if cfg.HeartbeatInterval != 30*time.Second {
		t.Errorf("Expected explicit heartbeat interval preserved, got %v", cfg.HeartbeatInterval)
	}
	if *cfg.EnableDirectiveReceiving {
		t.Error("Expected explicit false to survive default resolution")
	}
}

func TestConfig_Validate_MissingRequired(t *testing.T) {
	cfg := requiredConfig().WithDefaults()
	cfg.ProductKey = ""

	err := cfg.Validate()
	if status.CodeOf(err) != status.InvalidConfig {
		t.Errorf("Expected InvalidConfig, got %v", err)
	}
}

func TestConfig_Validate_BadEndpoint(t *testing.T) {
	for _, endpoint := range []string{"http://platform.example.com", "platform.example.com", "://bad"} {
		cfg := requiredConfig().WithDefaults()
		cfg.Endpoint = endpoint

		if err := cfg.Validate(); status.CodeOf(err) != status.InvalidConfig {
			t.Errorf("Endpoint %q: expected InvalidConfig, got %v", endpoint, err)
		}
	}
}

func TestConfig_Validate_BadNumerics(t *testing.T) {
	cases := []func(*Config){
		func(c *Config) { c.ConnectTimeout = -time.Second },
		func(c *Config) { c.BackoffFactor = 0.5 },
		func(c *Config) { c.BackoffFactor = math.NaN() },
		func(c *Config) { c.JitterFactor = -0.1 },
		func(c *Config) { c.JitterFactor = math.Inf(1) },
		func(c *Config) { c.BaseReconnectInterval = -time.Millisecond },
	}

	for i, mutate := range cases {
		cfg := requiredConfig().WithDefaults()
		mutate(&cfg)

		if err := cfg.Validate(); status.CodeOf(err) != status.InvalidConfig {
			t.Errorf("Case %d: expected InvalidConfig, got %v", i, err)
		}
	}
}

func TestConfig_Validate_OK(t *testing.T) {
	if err := requiredConfig().WithDefaults().Validate(); err != nil {
		t.Errorf("Expected valid config, got %v", err)
	}
}
