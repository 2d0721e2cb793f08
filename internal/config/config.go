// Package config loads and validates application configuration from
// environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// DatabaseURL is the Postgres connection string. Required.
	DatabaseURL string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// GoogleMapsAPIKey authenticates geocoding and place-photo lookups.
	// Optional: when empty those enrichment steps degrade to no-results.
	GoogleMapsAPIKey string

	// MatchMinScore is the minimum segment-match score (0-100) for a
	// booking to be assigned to an existing segment. Defaults to 70.
	MatchMinScore int

	// ClusterMaxGap is the largest layover between consecutive legs that
	// still keeps them in one journey cluster. Set CLUSTER_MAX_GAP_HOURS;
	// defaults to 48h.
	ClusterMaxGap time.Duration

	// EnrichTimeout bounds one enrichment attempt. Set
	// ENRICH_TIMEOUT_SECONDS; defaults to 10s.
	EnrichTimeout time.Duration

	// GeoCacheTTL is how long geocode and photo answers are cached. Set
	// GEO_CACHE_TTL_MINUTES; defaults to 60m.
	GeoCacheTTL time.Duration
}

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or
// naming the first numeric variable that failed to parse.
func Load() (Config, error) {
	cfg := Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		CORSOrigins:      splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		GoogleMapsAPIKey: os.Getenv("GOOGLE_MAPS_API_KEY"),
	}

	var missing []string

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.MatchMinScore, err = getInt("MATCH_MIN_SCORE", 70); err != nil {
		return Config{}, err
	}
	if cfg.MatchMinScore < 0 || cfg.MatchMinScore > 100 {
		return Config{}, fmt.Errorf("MATCH_MIN_SCORE must be between 0 and 100, got %d", cfg.MatchMinScore)
	}

	gapHours, err := getInt("CLUSTER_MAX_GAP_HOURS", 48)
	if err != nil {
		return Config{}, err
	}
	cfg.ClusterMaxGap = time.Duration(gapHours) * time.Hour

	timeoutSecs, err := getInt("ENRICH_TIMEOUT_SECONDS", 10)
	if err != nil {
		return Config{}, err
	}
	cfg.EnrichTimeout = time.Duration(timeoutSecs) * time.Second

	ttlMins, err := getInt("GEO_CACHE_TTL_MINUTES", 60)
	if err != nil {
		return Config{}, err
	}
	cfg.GeoCacheTTL = time.Duration(ttlMins) * time.Minute

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getInt parses an integer environment variable, returning fallback when it
// is unset or empty.
func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring
// empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
