package config

import (
	"fmt"
	"math"
	"strings"
)

type Config struct {
	LogLevel  string
	LogFormat string

	// Affine quantization parameters used by the demo pipeline.
	Scale     float32
	ZeroPoint int

	MaxArrayBytes   int64
	WideAccumulator bool

	MetricsAddr string
	ArrowOut    string
}

func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q (must be debug, info, warn or error)", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (must be console or json)", c.LogFormat)
	}
	if c.Scale == 0 {
		return fmt.Errorf("invalid scale: %v (must be non-zero)", c.Scale)
	}
	if math.IsNaN(float64(c.Scale)) || math.IsInf(float64(c.Scale), 0) {
		return fmt.Errorf("invalid scale: %v (must be finite)", c.Scale)
	}
	if c.ZeroPoint < math.MinInt8 || c.ZeroPoint > math.MaxInt8 {
		return fmt.Errorf("invalid zero_point: %d (must be in [-128, 127])", c.ZeroPoint)
	}
	if c.MaxArrayBytes <= 0 {
		return fmt.Errorf("invalid max_array_bytes: %d (must be positive)", c.MaxArrayBytes)
	}
	return nil
}

func (c *Config) MetricsEnabled() bool {
	return c.MetricsAddr != ""
}

func Default() Config {
	return Config{
		LogLevel:      "info",
		LogFormat:     "console",
		Scale:         0.1,
		ZeroPoint:     0,
		MaxArrayBytes: 1 << 30,
	}
}
