package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ServerEnv holds process settings read from the environment.
type ServerEnv struct {
	Addr            string  `env:"LOGREPLAY_ADDR" envDefault:":8080"`
	ConfigPath      string  `env:"LOGREPLAY_CONFIG" envDefault:"configs/builds.yaml"`
	LogLevel        string  `env:"LOGREPLAY_LOG_LEVEL" envDefault:"info"`
	RateLimit       int     `env:"LOGREPLAY_RATE_LIMIT" envDefault:"60"` // ingest requests per minute per client
	TraceExporter   string  `env:"LOGREPLAY_TRACE_EXPORTER"`             // "", "grpc" or "http"
	TraceEndpoint   string  `env:"LOGREPLAY_TRACE_ENDPOINT" envDefault:"localhost:4317"`
	TraceSampleRate float64 `env:"LOGREPLAY_TRACE_SAMPLE_RATE" envDefault:"1"`
}

// TracingEnabled reports whether an exporter is configured.
func (e ServerEnv) TracingEnabled() bool { return e.TraceExporter != "" }

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerEnv parses ServerEnv.
func LoadServerEnv() (ServerEnv, error) {
	var e ServerEnv
	if err := ParseEnv(&e); err != nil {
		return ServerEnv{}, err
	}
	return e, nil
}
