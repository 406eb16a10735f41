package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         string `yaml:"port"`
	DatabaseURL  string `yaml:"databaseURL"`
	LogLevel     string `yaml:"logLevel"`
	GameDuration int    `yaml:"gameDuration"` // seconds
	WinThreshold int    `yaml:"winThreshold"`
	BatchSize    int    `yaml:"batchSize"`
	Motion       bool   `yaml:"motion"`
	Recipient    string `yaml:"recipient"`
	Sender       string `yaml:"sender"`
	Signature    string `yaml:"signature"`
}

// Load reads the optional YAML file named by LUNASTARS_CONFIG and then applies
// environment overrides. A missing or broken file falls back to defaults.
func Load() Config {
	cfg := Default()
	if path := os.Getenv("LUNASTARS_CONFIG"); path != "" {
		if fileCfg, err := LoadFile(path); err == nil {
			cfg = fileCfg
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.GameDuration = getEnvInt("GAME_DURATION", cfg.GameDuration)
	cfg.WinThreshold = getEnvInt("WIN_THRESHOLD", cfg.WinThreshold)
	cfg.BatchSize = getEnvInt("BATCH_SIZE", cfg.BatchSize)
	cfg.Motion = getEnvBool("GAME_MOTION", cfg.Motion)
	return cfg
}

func Default() Config {
	return Config{
		Port:         "8080",
		LogLevel:     "info",
		GameDuration: 45,
		WinThreshold: 10,
		BatchSize:    15,
		Recipient:    "Luna",
		Sender:       "Kabelo",
		Signature:    "Kabelo Samkelo Kgosana Mahlangu Thulari Mgwezana",
	}
}

// LoadFile parses a YAML config file on top of the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config YAML: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.GameDuration <= 0 {
		return fmt.Errorf("gameDuration must be > 0, got %d", c.GameDuration)
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batchSize must be > 0, got %d", c.BatchSize)
	}
	if c.WinThreshold <= 0 || c.WinThreshold > c.BatchSize {
		return fmt.Errorf("winThreshold must be in [1, %d], got %d", c.BatchSize, c.WinThreshold)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
