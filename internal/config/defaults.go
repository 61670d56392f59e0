package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/scrawlgg/scrawl-backend/internal"
)

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if int64Value, err := strconv.ParseInt(value, 10, 64); err == nil {
			return int64Value
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}

func validate(cfg *Config) error {
	if err := validateServerConfig(cfg.Server); err != nil {
		return err
	}
	if err := validateGameConfig(cfg.Game); err != nil {
		return err
	}
	if err := validateStoreConfig(cfg.Store); err != nil {
		return err
	}
	if err := validateLimitsConfig(cfg.Limits); err != nil {
		return err
	}
	if err := validateLoggingConfig(cfg.Logging); err != nil {
		return err
	}
	return nil
}

func validateServerConfig(cfg ServerConfig) error {
	if cfg.Port == "" {
		return errors.New("server port cannot be empty")
	}
	if portNum, err := strconv.Atoi(cfg.Port); err != nil || portNum < 1 || portNum > 65535 {
		return errors.New("server port must be a valid number between 1 and 65535")
	}
	if cfg.Host == "" {
		return errors.New("server host cannot be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return errors.New("server timeouts must be positive")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	return nil
}

func validateGameConfig(cfg GameConfig) error {
	if cfg.MinPlayers < internal.MinPlayersFloor {
		return errors.New("min players cannot be below 2")
	}
	if cfg.DefaultDrawTime < internal.DrawTimeMin || cfg.DefaultDrawTime > internal.DrawTimeMax {
		return errors.New("default draw time must be between 30 and 180 seconds")
	}
	if cfg.DefaultRounds < internal.RoundsMin || cfg.DefaultRounds > internal.RoundsMax {
		return errors.New("default rounds must be between 1 and 10")
	}
	if cfg.DefaultMaxPlayer < internal.MinPlayersFloor || cfg.DefaultMaxPlayer > internal.MaxPlayersCap {
		return errors.New("default max players must be between 2 and 10")
	}
	if cfg.DefaultTheme == "" {
		return errors.New("default theme cannot be empty")
	}
	if cfg.HintIntervalSecs <= 0 {
		return errors.New("hint interval must be positive")
	}
	if cfg.StartCountdown <= 0 || cfg.AutoPickTimeout <= 0 || cfg.TurnEndDelay <= 0 || cfg.SettleDelay <= 0 {
		return errors.New("engine delays must be positive")
	}
	if cfg.EmptyRoomGrace <= 0 {
		return errors.New("empty room grace must be positive")
	}
	if cfg.DenyListTTL <= 0 {
		return errors.New("deny list TTL must be positive")
	}
	return nil
}

func validateStoreConfig(cfg StoreConfig) error {
	if cfg.WriteTimeout <= 0 {
		return errors.New("store write timeout must be positive")
	}
	if cfg.Retention <= 0 {
		return errors.New("store retention must be positive")
	}
	return nil
}

func validateLimitsConfig(cfg LimitsConfig) error {
	if cfg.MaxMessageSize <= 0 {
		return errors.New("max message size must be positive")
	}
	if cfg.SessionRate <= 0 || cfg.SessionBurst <= 0 {
		return errors.New("session rate limit must be positive")
	}
	if cfg.SweepInterval <= 0 {
		return errors.New("sweep interval must be positive")
	}
	if cfg.LimiterIdleEvict <= 0 {
		return errors.New("limiter idle eviction must be positive")
	}
	return nil
}

func validateLoggingConfig(cfg LoggingConfig) error {
	switch cfg.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New("log level must be one of: debug, info, warn, error")
	}
	if cfg.Service == "" {
		return errors.New("service name cannot be empty")
	}
	if cfg.Environment == "" {
		return errors.New("environment cannot be empty")
	}
	return nil
}
