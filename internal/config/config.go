package config

import (
	"os"
	"strconv"
)

// Config holds all triage configuration.
type Config struct {
	Engine Engine
	Log    Log
	Output Output
}

// Engine holds classification engine settings.
type Engine struct {
	ModelDir           string  // artifact bundle directory (required)
	SecondaryThreshold float64 // minimum probability for secondary suggestions
	MaxSecondary       int     // cap on secondary suggestions
	BandHigh           float64 // confidence at or above: auto-route
	BandLow            float64 // confidence below: manual triage
}

// Log holds logging settings.
type Log struct {
	Level string // "debug", "info", "warn", "error"
}

// Output holds result output settings.
type Output struct {
	Pretty bool // indent the NDJSON output (one object per line when false)
}

// Load reads configuration from environment variables with the engine's
// defaults. ModelDir has no default; callers must check it is set.
func Load() Config {
	return Config{
		Engine: Engine{
			ModelDir:           os.Getenv("TRIAGE_MODEL_DIR"),
			SecondaryThreshold: getenvFloat("TRIAGE_SECONDARY_THRESHOLD", 0.15),
			MaxSecondary:       getenvInt("TRIAGE_MAX_SECONDARY", 3),
			BandHigh:           getenvFloat("TRIAGE_BAND_HIGH", 0.8),
			BandLow:            getenvFloat("TRIAGE_BAND_LOW", 0.4),
		},
		Log: Log{
			Level: getenv("TRIAGE_LOG_LEVEL", "info"),
		},
		Output: Output{
			Pretty: getenvBool("TRIAGE_PRETTY", false),
		},
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
