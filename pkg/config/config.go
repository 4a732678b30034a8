package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all settings for a single s2f run.
type Config struct {
	// Salesforce connected app credentials.
	ClientID     string
	ClientSecret string
	RedirectURI  string
	// LoginURL is the OAuth2 provider, normally https://login.salesforce.com.
	LoginURL string
	// APIPath selects the REST API version, e.g. /services/data/v35.0.
	// It is resolved against the instance URL returned with the token.
	APIPath   string
	TokenFile string

	FlowdockAPIURL     string
	FlowdockConfigFile string
	StateFile          string

	Limits Limits

	// DatabaseURL switches the state store from the file to postgres.
	DatabaseURL string
	// PushgatewayURL enables pushing run metrics, empty disables.
	PushgatewayURL string
	// LockPort is bound on localhost to keep concurrent cron ticks out.
	// Zero disables the guard.
	LockPort int
}

// Limits bound a single chatter poll so a long gap between runs can't
// turn into an unbounded fetch.
type Limits struct {
	MaxAge               time.Duration
	MaxItems             int
	MaxPages             int
	MaxTeamOpportunities int
}

func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	maxAge, err := getDuration("MAX_AGE", 744*time.Hour)
	if err != nil {
		return nil, err
	}
	maxItems, err := getInt("MAX_ITEMS", 100)
	if err != nil {
		return nil, err
	}
	maxPages, err := getInt("MAX_PAGES", 5)
	if err != nil {
		return nil, err
	}
	maxTeamOps, err := getInt("MAX_TEAM_OPPORTUNITIES", 50)
	if err != nil {
		return nil, err
	}
	lockPort, err := getInt("LOCK_PORT", 19876)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ClientID:     os.Getenv("SF_CLIENT_ID"),
		ClientSecret: os.Getenv("SF_CLIENT_SECRET"),
		RedirectURI:  os.Getenv("SF_REDIRECT_URI"),
		LoginURL:     getEnv("SF_LOGIN_URL", "https://login.salesforce.com"),
		APIPath:      getEnv("SF_API_PATH", "/services/data/v35.0"),
		TokenFile:    os.Getenv("SF_TOKEN_FILE"),

		FlowdockAPIURL:     getEnv("FLOWDOCK_API_URL", "https://api.flowdock.com"),
		FlowdockConfigFile: os.Getenv("FLOWDOCK_CONFIG_FILE"),
		StateFile:          os.Getenv("STATE_FILE"),

		Limits: Limits{
			MaxAge:               maxAge,
			MaxItems:             maxItems,
			MaxPages:             maxPages,
			MaxTeamOpportunities: maxTeamOps,
		},

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		PushgatewayURL: os.Getenv("PUSHGATEWAY_URL"),
		LockPort:       lockPort,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.ClientID == "" {
		return fmt.Errorf("SF_CLIENT_ID is required")
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("SF_CLIENT_SECRET is required")
	}
	if c.TokenFile == "" {
		return fmt.Errorf("SF_TOKEN_FILE is required")
	}
	if c.FlowdockConfigFile == "" {
		return fmt.Errorf("FLOWDOCK_CONFIG_FILE is required")
	}
	if c.StateFile == "" && c.DatabaseURL == "" {
		return fmt.Errorf("STATE_FILE is required unless DATABASE_URL is set")
	}
	// RedirectURI is only needed by the interactive setup, so we don't validate it
	return nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return d, nil
}
