package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the top-level application configuration, loaded from TOML.
// API keys are taken from the environment, never from the config file.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Schedule  ScheduleConfig  `toml:"schedule"`
	LLM       LLMConfig       `toml:"llm"`
	Geocoding GeocodingConfig `toml:"geocoding"`
	Routing   RoutingConfig   `toml:"routing"`
	Itinerary ItineraryConfig `toml:"itinerary"`
	Chat      ChatConfig      `toml:"chat"`
}

// ServerConfig represents the HTTP server configuration
type ServerConfig struct {
	Host               string   `toml:"host"`
	Port               int      `toml:"port"`
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"`
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ScheduleConfig represents the schedule data source configuration
type ScheduleConfig struct {
	// Path points at either a single CSV/TSV file or a directory of CSV
	// files that get merged with a Source column per file.
	Path string `toml:"path"`
	// SeasonYear resolves yearless date expressions like "Dec 15".
	SeasonYear int `toml:"season_year"`
}

// LLMConfig represents the text-understanding service configuration
type LLMConfig struct {
	APIKeyEnvVar    string  `toml:"api_key_env_var"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	TimeoutSeconds  int     `toml:"timeout_seconds"`
	MaxVocabVenues  int     `toml:"max_vocab_venues"`
	MaxVocabArtists int     `toml:"max_vocab_artists"`
}

// GeocodingConfig represents the geocoding service configuration
type GeocodingConfig struct {
	// BaseURL is a format string taking the URL-escaped query, e.g.
	// "https://nominatim.openstreetmap.org/search?format=json&limit=1&q=%s"
	BaseURL        string `toml:"base_url"`
	City           string `toml:"city"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	CachePath      string `toml:"cache_path"`
	WarmConcurrent int    `toml:"warm_concurrent"`
}

// RoutingConfig represents the directions service configuration
type RoutingConfig struct {
	// BaseURL is a format string taking lon1, lat1, lon2, lat2, e.g. an
	// OSRM route endpoint "https://router.project-osrm.org/route/v1/driving/%f,%f;%f,%f?overview=false"
	BaseURL        string `toml:"base_url"`
	Mode           string `toml:"mode"` // driving, walking, transit
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ItineraryConfig represents planner tuning
type ItineraryConfig struct {
	DefaultConcertMins int `toml:"default_concert_minutes"`
}

// ChatConfig represents chat session settings
type ChatConfig struct {
	SessionTTLMinutes int `toml:"session_ttl_minutes"`
	HistoryDepth      int `toml:"history_depth"`
	MaxSummaryRows    int `toml:"max_summary_rows"`
}

// Default returns the configuration used when a field is absent from the file.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8080,
			ReadTimeoutSecs:  15,
			WriteTimeoutSecs: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Schedule: ScheduleConfig{
			Path:       "data/schedules",
			SeasonYear: 2025,
		},
		LLM: LLMConfig{
			APIKeyEnvVar:    "OPENAI_API_KEY",
			Model:           "gpt-4o-mini",
			Temperature:     0.2,
			TimeoutSeconds:  30,
			MaxVocabVenues:  40,
			MaxVocabArtists: 60,
		},
		Geocoding: GeocodingConfig{
			BaseURL:        "https://nominatim.openstreetmap.org/search?format=json&limit=1&q=%s",
			City:           "Chennai, India",
			TimeoutSeconds: 10,
			CachePath:      "data/venues.db",
			WarmConcurrent: 4,
		},
		Routing: RoutingConfig{
			BaseURL:        "https://router.project-osrm.org/route/v1/driving/%f,%f;%f,%f?overview=false",
			Mode:           "driving",
			TimeoutSeconds: 10,
		},
		Itinerary: ItineraryConfig{
			DefaultConcertMins: 120,
		},
		Chat: ChatConfig{
			SessionTTLMinutes: 60,
			HistoryDepth:      5,
			MaxSummaryRows:    20,
		},
	}
}

// Load reads the TOML file at path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants that would otherwise surface as
// confusing runtime failures.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Schedule.Path == "" {
		return fmt.Errorf("schedule path must be set")
	}
	if c.Schedule.SeasonYear < 1900 || c.Schedule.SeasonYear > 2200 {
		return fmt.Errorf("invalid season year: %d", c.Schedule.SeasonYear)
	}
	if c.Itinerary.DefaultConcertMins <= 0 {
		return fmt.Errorf("default concert duration must be positive")
	}
	switch c.Routing.Mode {
	case "driving", "walking", "transit":
	default:
		return fmt.Errorf("unsupported routing mode: %s", c.Routing.Mode)
	}
	return nil
}

// LLMAPIKey resolves the LLM API key from the environment. Empty means the
// interpreter runs in fallback-only mode.
func (c *Config) LLMAPIKey() string {
	return os.Getenv(c.LLM.APIKeyEnvVar)
}

// HTTPTimeout helpers keep time.Duration conversions in one place.

func (c *ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSecs) * time.Second
}

func (c *ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutSecs) * time.Second
}

func (c *GeocodingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *RoutingConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c *LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}
