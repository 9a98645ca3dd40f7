package config

import "fmt"

// APIConfig secures the HTTP API served next to /metrics. JWTSecret takes
// precedence over Token; with neither the API is open. RateLimit is in
// requests per second per client, 0 disables limiting.
type APIConfig struct {
	Token     string  `json:"token"`
	JWTSecret string  `json:"jwt_secret"`
	RateLimit float64 `json:"rate_limit"`
	Burst     int     `json:"burst"`
}

// SetDefaults sizes the burst to one second of traffic.
func (c *APIConfig) SetDefaults() {
	if c.RateLimit > 0 && c.Burst <= 0 {
		c.Burst = max(1, int(c.RateLimit))
	}
}

// Validate checks the rate limit settings.
func (c APIConfig) Validate() error {
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative, got %g", c.RateLimit)
	}
	if c.Burst < 0 {
		return fmt.Errorf("burst must not be negative, got %d", c.Burst)
	}
	return nil
}
