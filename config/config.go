package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"chewbot/database"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Twitch configuration
	TwitchUsername   string
	TwitchOAuthToken string
	TwitchChannels   []string
	CommandPrefix    string
	Locale           string

	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// Points configuration
	StartingBalance int64

	// Event timing, in seconds
	DuelParticipationSeconds      int
	DuelCooldownSeconds           int
	BankheistParticipationSeconds int
	BankheistCooldownSeconds      int
	ArenaParticipationSeconds     int
	ArenaCooldownSeconds          int
	ArenaTimeoutSeconds           int // How long arena losers are timed out

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated), empty disables streaming

	// Metrics configuration
	MetricsAddr string

	// Discord mirror configuration, both empty disables it
	DiscordToken     string
	DiscordChannelID string

	// Logging
	LogLevel string

	// Environment
	Environment string // "development" or "production"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// load loads configuration from .env and environment variables
func load() (*Config, error) {
	// .env is optional; variables from the process environment win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to read .env file")
	}

	config := &Config{
		// Twitch
		TwitchUsername:   strings.ToLower(os.Getenv("TWITCH_USERNAME")),
		TwitchOAuthToken: os.Getenv("TWITCH_OAUTH_TOKEN"),
		TwitchChannels:   splitList(os.Getenv("TWITCH_CHANNELS")),
		CommandPrefix:    getEnvWithDefault("COMMAND_PREFIX", "!"),
		Locale:           getEnvWithDefault("LOCALE", "en"),

		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// Points
		StartingBalance: getEnvInt64("STARTING_BALANCE", 100),

		// Events
		DuelParticipationSeconds:      getEnvInt("DUEL_PARTICIPATION_SECONDS", 60),
		DuelCooldownSeconds:           getEnvInt("DUEL_COOLDOWN_SECONDS", 120),
		BankheistParticipationSeconds: getEnvInt("BANKHEIST_PARTICIPATION_SECONDS", 120),
		BankheistCooldownSeconds:      getEnvInt("BANKHEIST_COOLDOWN_SECONDS", 600),
		ArenaParticipationSeconds:     getEnvInt("ARENA_PARTICIPATION_SECONDS", 120),
		ArenaCooldownSeconds:          getEnvInt("ARENA_COOLDOWN_SECONDS", 600),
		ArenaTimeoutSeconds:           getEnvInt("ARENA_TIMEOUT_SECONDS", 60),

		// NATS
		NATSServers: os.Getenv("NATS_SERVERS"),

		// Metrics
		MetricsAddr: getEnvWithDefault("METRICS_ADDR", ":9090"),

		// Discord
		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		// Logging
		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),

		// Environment
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// validate checks the settings the bot cannot start without
func (c *Config) validate() error {
	if c.TwitchUsername == "" {
		return fmt.Errorf("TWITCH_USERNAME is required")
	}
	if c.TwitchOAuthToken == "" {
		return fmt.Errorf("TWITCH_OAUTH_TOKEN is required")
	}
	if len(c.TwitchChannels) == 0 {
		return fmt.Errorf("TWITCH_CHANNELS is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.StartingBalance < 0 {
		return fmt.Errorf("STARTING_BALANCE cannot be negative")
	}
	if (c.DiscordToken == "") != (c.DiscordChannelID == "") {
		return fmt.Errorf("DISCORD_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}
	for name, seconds := range map[string]int{
		"DUEL_PARTICIPATION_SECONDS":      c.DuelParticipationSeconds,
		"BANKHEIST_PARTICIPATION_SECONDS": c.BankheistParticipationSeconds,
		"ARENA_PARTICIPATION_SECONDS":     c.ArenaParticipationSeconds,
		"ARENA_TIMEOUT_SECONDS":           c.ArenaTimeoutSeconds,
	} {
		if seconds <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring non-numeric setting")
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("Ignoring non-numeric setting")
	}
	return defaultValue
}

// splitList parses "a, b,c" into lowercase channel names
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		item = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(item), "#"))
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		TwitchUsername:                "chewbot",
		TwitchChannels:                []string{"chewchannel"},
		CommandPrefix:                 "!",
		Locale:                        "en",
		StartingBalance:               100,
		DuelParticipationSeconds:      60,
		DuelCooldownSeconds:           120,
		BankheistParticipationSeconds: 120,
		BankheistCooldownSeconds:      600,
		ArenaParticipationSeconds:     120,
		ArenaCooldownSeconds:          600,
		ArenaTimeoutSeconds:           60,
		LogLevel:                      "info",
		Environment:                   "test",
	}
}
