package metrics

// Config holds configuration for pass metrics.
type Config struct {
	// Textfile is the path metrics are written to after a pass. Empty disables metrics.
	Textfile string `mapstructure:"textfile" default:""`
}
