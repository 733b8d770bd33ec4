package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server process needs from its environment.
type Config struct {
	Addr         string
	PostgresDSN  string
	KafkaBrokers []string
	LogLevel     string

	// MasterKey is the root secret all vault, seal, and approval-binding
	// keys are derived from. Hex-encoded, at least 32 bytes decoded.
	MasterKey []byte

	Redis RedisConfig
}

// RedisConfig holds connection tuning for the hold cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:        envOr("VERITAS_ADDR", ":8080"),
		PostgresDSN: os.Getenv("VERITAS_POSTGRES_DSN"),
		LogLevel:    envOr("VERITAS_LOG_LEVEL", "info"),
		Redis: RedisConfig{
			URL:          os.Getenv("VERITAS_REDIS_URL"),
			PoolSize:     envInt("VERITAS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("VERITAS_REDIS_MIN_IDLE", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	if brokers := os.Getenv("VERITAS_KAFKA_BROKERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
			}
		}
	}

	keyHex := os.Getenv("VERITAS_MASTER_KEY")
	if keyHex == "" {
		return Config{}, fmt.Errorf("VERITAS_MASTER_KEY is required")
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return Config{}, fmt.Errorf("VERITAS_MASTER_KEY must be hex: %w", err)
	}
	if len(key) < 32 {
		return Config{}, fmt.Errorf("VERITAS_MASTER_KEY must decode to at least 32 bytes, got %d", len(key))
	}
	cfg.MasterKey = key

	return cfg, nil
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
