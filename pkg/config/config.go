// Copyright (C) 2025-2026, ClawdHub Authors. All rights reserved.
// See LICENSE for license information.

package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the skill registry configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Storage   StorageConfig   `yaml:"storage"`
	Scanner   ScannerConfig   `yaml:"scanner"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"db_name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// StorageConfig represents object storage configuration
type StorageConfig struct {
	Provider  string `yaml:"provider"` // s3, minio, local
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	BasePath  string `yaml:"base_path"` // local provider only
	UseSSL    bool   `yaml:"use_ssl"`
}

// ScannerConfig represents malware scanner configuration
type ScannerConfig struct {
	Enabled       bool   `yaml:"enabled"`
	BaseURL       string `yaml:"base_url"`
	APIKey        string `yaml:"api_key"`
	Workers       int    `yaml:"workers"`
	QueueSize     int    `yaml:"queue_size"`
	RescanEvery   string `yaml:"rescan_every"`    // cron spec for the pending/error sweep
	RescanMinWait string `yaml:"rescan_min_wait"` // minimum age before a pending version is re-checked
}

// EmbeddingConfig represents embedding service configuration
type EmbeddingConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
	APIKey    string `yaml:"api_key"`
	BaseURL   string `yaml:"base_url"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "clawdhub"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "clawdhub"),
			SSLMode:  getEnv("DB_SSL_MODE", "require"),
		},
		Storage: StorageConfig{
			Provider:  getEnv("STORAGE_PROVIDER", "local"),
			Endpoint:  getEnv("STORAGE_ENDPOINT", ""),
			Bucket:    getEnv("STORAGE_BUCKET", "clawdhub-skills"),
			Region:    getEnv("STORAGE_REGION", "us-east-1"),
			AccessKey: getEnv("STORAGE_ACCESS_KEY", ""),
			SecretKey: getEnv("STORAGE_SECRET_KEY", ""),
			BasePath:  getEnv("STORAGE_BASE_PATH", "./data/storage"),
			UseSSL:    getEnvBool("STORAGE_USE_SSL", true),
		},
		Scanner: ScannerConfig{
			Enabled:       getEnvBool("SCANNER_ENABLED", true),
			BaseURL:       getEnv("SCANNER_BASE_URL", "https://www.virustotal.com/api/v3"),
			APIKey:        getEnv("SCANNER_API_KEY", ""),
			Workers:       getEnvInt("SCANNER_WORKERS", 2),
			QueueSize:     getEnvInt("SCANNER_QUEUE_SIZE", 256),
			RescanEvery:   getEnv("SCANNER_RESCAN_EVERY", "@every 10m"),
			RescanMinWait: getEnv("SCANNER_RESCAN_MIN_WAIT", "5m"),
		},
		Embedding: EmbeddingConfig{
			Enabled:   getEnvBool("EMBEDDING_ENABLED", false),
			Model:     getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
			Dimension: getEnvInt("EMBEDDING_DIMENSION", 1536),
			APIKey:    getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:   getEnv("EMBEDDING_BASE_URL", ""),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	// Try to load from config file
	configPath := getEnv("CONFIG_PATH", "/etc/clawdhub/config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
