package client

import (
	"math"
	"math/rand/v2"
	"time"
)

// BackoffDelay returns the un-jittered delay before reconnect attempt
// number attempts (0 for the first retry): base * factor^attempts, capped
// at MaxReconnectInterval.
func BackoffDelay(attempts int, cfg Config) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	d := float64(cfg.BaseReconnectInterval) * math.Pow(cfg.BackoffFactor, float64(attempts))
	if d > float64(cfg.MaxReconnectInterval) {
		d = float64(cfg.MaxReconnectInterval)
	}
	return time.Duration(d)
}

// ReconnectDelay perturbs BackoffDelay by a uniform factor in
// [-JitterFactor, +JitterFactor] so a fleet dropped at the same instant does
// not retry in lockstep. Never negative.
func ReconnectDelay(attempts int, cfg Config) time.Duration {
	d := float64(BackoffDelay(attempts, cfg))
	d += d * cfg.JitterFactor * (2*rand.Float64() - 1)
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
