package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	DatabaseURL string // PMES_DATABASE_URL (required)
	HTTPAddr    string // PMES_HTTP_ADDR (default ":8080")
	JWTSecret   string // PMES_JWT_SECRET (required)
	TokenTTL    time.Duration // PMES_TOKEN_TTL (default 24h)
	NATSURL     string // PMES_NATS_URL (optional, empty = no events)

	// Backup settings
	BackupInterval   time.Duration // PMES_BACKUP_INTERVAL (default 0 = disabled)
	BackupS3Bucket   string        // PMES_BACKUP_S3_BUCKET (enables S3 when set)
	BackupS3Endpoint string        // PMES_BACKUP_S3_ENDPOINT (custom endpoint for MinIO)
	BackupS3Region   string        // PMES_BACKUP_S3_REGION (default "us-east-1")
	BackupS3Key      string        // PMES_BACKUP_S3_KEY (default "pmes/backup.jsonl")
	BackupFile       string        // PMES_BACKUP_FILE (enables local file destination when set)
}

func Load() (*Config, error) {
	c := &Config{
		DatabaseURL:      os.Getenv("PMES_DATABASE_URL"),
		HTTPAddr:         envOrDefault("PMES_HTTP_ADDR", ":8080"),
		JWTSecret:        os.Getenv("PMES_JWT_SECRET"),
		NATSURL:          os.Getenv("PMES_NATS_URL"),
		BackupS3Bucket:   os.Getenv("PMES_BACKUP_S3_BUCKET"),
		BackupS3Endpoint: os.Getenv("PMES_BACKUP_S3_ENDPOINT"),
		BackupS3Region:   envOrDefault("PMES_BACKUP_S3_REGION", "us-east-1"),
		BackupS3Key:      envOrDefault("PMES_BACKUP_S3_KEY", "pmes/backup.jsonl"),
		BackupFile:       os.Getenv("PMES_BACKUP_FILE"),
	}
	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("PMES_DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return nil, fmt.Errorf("PMES_JWT_SECRET is required")
	}

	ttlStr := envOrDefault("PMES_TOKEN_TTL", "24h")
	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		return nil, fmt.Errorf("PMES_TOKEN_TTL: %w", err)
	}
	c.TokenTTL = ttl

	if intervalStr := os.Getenv("PMES_BACKUP_INTERVAL"); intervalStr != "" {
		d, err := time.ParseDuration(intervalStr)
		if err != nil {
			return nil, fmt.Errorf("PMES_BACKUP_INTERVAL: %w", err)
		}
		c.BackupInterval = d
	}

	return c, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
