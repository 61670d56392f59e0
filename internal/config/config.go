package config

import (
	"fmt"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/scrawlgg/scrawl-backend/internal"
)

// Config groups every tunable of the process. Values come from the
// environment (a local .env is autoloaded); each section has defaults
// that match the protocol constants.
type Config struct {
	Server  ServerConfig
	CORS    CORSConfig
	Game    GameConfig
	Store   StoreConfig
	Limits  LimitsConfig
	Logging LoggingConfig
	Sentry  SentryConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// GameConfig carries the room-engine tunables. The protocol-fixed
// constants (code alphabet, name/chat limits, player/round ranges)
// live in the internal package; only scheduling knobs belong here.
type GameConfig struct {
	MinPlayers       int
	DefaultDrawTime  int
	DefaultRounds    int
	DefaultMaxPlayer int
	DefaultTheme     string
	ThemeFile        string
	HintIntervalSecs int
	StartCountdown   time.Duration
	AutoPickTimeout  time.Duration
	TurnEndDelay     time.Duration
	SettleDelay      time.Duration
	EmptyRoomGrace   time.Duration
	DenyListTTL      time.Duration
}

type StoreConfig struct {
	DatabaseURL  string
	WriteTimeout time.Duration
	Retention    time.Duration
}

type LimitsConfig struct {
	MaxMessageSize   int64
	SessionRate      float64
	SessionBurst     int
	SweepInterval    time.Duration
	LimiterIdleEvict time.Duration
}

type LoggingConfig struct {
	Level       string
	Environment string
	Service     string
}

type SentryConfig struct {
	DSN              string
	Environment      string
	Release          string
	TracesSampleRate float64
	Debug            bool
}

// Load builds the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Server:  loadServerConfig(),
		CORS:    loadCORSConfig(),
		Game:    loadGameConfig(),
		Store:   loadStoreConfig(),
		Limits:  loadLimitsConfig(),
		Logging: loadLoggingConfig(),
		Sentry:  loadSentryConfig(),
	}
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:            getEnvString("PORT", "8080"),
		Host:            getEnvString("HOST", "0.0.0.0"),
		ReadTimeout:     getEnvDuration("READ_TIMEOUT", 10*time.Second),
		WriteTimeout:    getEnvDuration("WRITE_TIMEOUT", 10*time.Second),
		IdleTimeout:     getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

func loadCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		AllowedMethods: getEnvStringSlice("ALLOWED_METHODS", []string{"GET", "POST", "OPTIONS"}),
		AllowedHeaders: getEnvStringSlice("ALLOWED_HEADERS", []string{"Accept", "Authorization", "Content-Type"}),
	}
}

func loadGameConfig() GameConfig {
	return GameConfig{
		MinPlayers:       getEnvInt("MIN_PLAYERS", internal.MinPlayersFloor),
		DefaultDrawTime:  getEnvInt("DEFAULT_DRAW_TIME", 80),
		DefaultRounds:    getEnvInt("DEFAULT_ROUNDS", 3),
		DefaultMaxPlayer: getEnvInt("DEFAULT_MAX_PLAYERS", internal.MaxPlayersCap),
		DefaultTheme:     getEnvString("DEFAULT_THEME", "general"),
		ThemeFile:        getEnvString("THEME_FILE", ""),
		HintIntervalSecs: getEnvInt("HINT_INTERVAL_SECS", 20),
		StartCountdown:   getEnvDuration("START_COUNTDOWN", 3*time.Second),
		AutoPickTimeout:  getEnvDuration("AUTO_PICK_TIMEOUT", 15*time.Second),
		TurnEndDelay:     getEnvDuration("TURN_END_DELAY", 5*time.Second),
		SettleDelay:      getEnvDuration("SETTLE_DELAY", time.Second),
		EmptyRoomGrace:   getEnvDuration("EMPTY_ROOM_GRACE", 2*time.Minute),
		DenyListTTL:      getEnvDuration("DENY_LIST_TTL", 5*time.Minute),
	}
}

func loadStoreConfig() StoreConfig {
	return StoreConfig{
		DatabaseURL:  getEnvString("DATABASE_URL", ""),
		WriteTimeout: getEnvDuration("STORE_WRITE_TIMEOUT", 2*time.Second),
		Retention:    getEnvDuration("STORE_RETENTION", 30*time.Minute),
	}
}

func loadLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxMessageSize:   getEnvInt64("MAX_MESSAGE_SIZE", 8192),
		SessionRate:      getEnvFloat64("SESSION_RATE", 10),
		SessionBurst:     getEnvInt("SESSION_BURST", 20),
		SweepInterval:    getEnvDuration("SWEEP_INTERVAL", 30*time.Second),
		LimiterIdleEvict: getEnvDuration("LIMITER_IDLE_EVICT", 10*time.Minute),
	}
}

func loadLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Level:       getEnvString("LOG_LEVEL", "info"),
		Environment: getEnvString("ENVIRONMENT", "development"),
		Service:     getEnvString("SERVICE_NAME", "scrawl-backend"),
	}
}

func loadSentryConfig() SentryConfig {
	return SentryConfig{
		DSN:              getEnvString("SENTRY_DSN", ""),
		Environment:      getEnvString("SENTRY_ENVIRONMENT", "development"),
		Release:          getEnvString("SENTRY_RELEASE", "dev"),
		TracesSampleRate: getEnvFloat64("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		Debug:            getEnvBool("SENTRY_DEBUG", false),
	}
}
