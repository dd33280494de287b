/**
 * Configuration for the mailroom worker.
 *
 * Loads configuration from environment variables. A .env file in the working
 * directory is loaded by the entry point before this runs.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
)

// Recognition backends selectable via RECOGNITION_BACKEND.
const (
	BackendTesseract = "tesseract"
	BackendGemini    = "gemini"
	BackendNone      = "none"
)

// Config holds worker configuration
type Config struct {
	// Redis configuration
	RedisURL  string
	QueueName string

	// PostgreSQL configuration
	DatabaseURL string

	// Text recognition configuration
	RecognitionBackend string
	TesseractLangs     string
	GeminiAPIKey       string
	GeminiModel        string

	// Image normalization
	ImageTargetWidth int
	ImageJPEGQuality int

	// Worker configuration
	WorkerConcurrency   int
	ProcessingTimeoutMS int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		RedisURL:            getEnvOrDefault("REDIS_URL", "redis://localhost:6379"),
		QueueName:           getEnvOrDefault("QUEUE_NAME", "mailroom:jobs"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RecognitionBackend:  getEnvOrDefault("RECOGNITION_BACKEND", BackendTesseract),
		TesseractLangs:      getEnvOrDefault("TESSERACT_LANGS", "kor+eng"),
		GeminiAPIKey:        getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:         getEnvOrDefault("GEMINI_MODEL", "gemini-2.5-pro"),
		ImageTargetWidth:    getEnvAsIntOrDefault("IMAGE_TARGET_WIDTH", 1000),
		ImageJPEGQuality:    getEnvAsIntOrDefault("IMAGE_JPEG_QUALITY", 70),
		WorkerConcurrency:   getEnvAsIntOrDefault("WORKER_CONCURRENCY", 4),
		ProcessingTimeoutMS: getEnvAsIntOrDefault("PROCESSING_TIMEOUT_MS", 60000),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.RedisURL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.RecognitionBackend {
	case BackendTesseract, BackendNone:
	case BackendGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when RECOGNITION_BACKEND=gemini")
		}
	default:
		return fmt.Errorf("RECOGNITION_BACKEND must be one of tesseract, gemini, none, got %q", c.RecognitionBackend)
	}

	if c.WorkerConcurrency < 1 || c.WorkerConcurrency > 100 {
		return fmt.Errorf("WORKER_CONCURRENCY must be between 1 and 100, got %d", c.WorkerConcurrency)
	}

	if c.ImageTargetWidth < 100 || c.ImageTargetWidth > 4000 {
		return fmt.Errorf("IMAGE_TARGET_WIDTH must be between 100 and 4000, got %d", c.ImageTargetWidth)
	}

	if c.ImageJPEGQuality < 1 || c.ImageJPEGQuality > 100 {
		return fmt.Errorf("IMAGE_JPEG_QUALITY must be between 1 and 100, got %d", c.ImageJPEGQuality)
	}

	return nil
}

// getEnvOrDefault gets environment variable or returns default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsIntOrDefault gets environment variable as int or returns default
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}
