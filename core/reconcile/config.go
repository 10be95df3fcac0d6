package reconcile

import "time"

// Config holds the tuning of a reconciliation pass.
type Config struct {
	// PageSize is the item cap of a packed request and the limit of every request.
	PageSize int `mapstructure:"page_size" default:"1000"`
	// ExpressionCap bounds the expression cost of a packed request.
	ExpressionCap int `mapstructure:"expression_cap" default:"50"`
	// RateLimit is the number of requests allowed per window. 0 disables limiting.
	RateLimit int `mapstructure:"rate_limit" default:"10"`
	// WindowMS is the limiter window length in milliseconds.
	WindowMS int `mapstructure:"window_ms" default:"1000"`
	// StalePolicy selects how a revision at or below the applied one is treated (advance, ignore).
	StalePolicy string `mapstructure:"stale_policy" default:"advance"`
}

// Limits returns the packing limits.
func (c Config) Limits() PackLimits {
	return PackLimits{ItemCap: c.PageSize, ExpressionCap: c.ExpressionCap}
}

// Window returns the limiter window length.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowMS) * time.Millisecond
}
