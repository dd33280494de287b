package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/postnoti")
	t.Setenv("REDIS_URL", "")
	t.Setenv("QUEUE_NAME", "")
	t.Setenv("RECOGNITION_BACKEND", "")
	t.Setenv("TESSERACT_LANGS", "")
	t.Setenv("IMAGE_TARGET_WIDTH", "")
	t.Setenv("IMAGE_JPEG_QUALITY", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("PROCESSING_TIMEOUT_MS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, "mailroom:jobs", cfg.QueueName)
	assert.Equal(t, BackendTesseract, cfg.RecognitionBackend)
	assert.Equal(t, "kor+eng", cfg.TesseractLangs)
	assert.Equal(t, 1000, cfg.ImageTargetWidth)
	assert.Equal(t, 70, cfg.ImageJPEGQuality)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, 60000, cfg.ProcessingTimeoutMS)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/postnoti")
	t.Setenv("REDIS_URL", "redis://cache:6380")
	t.Setenv("QUEUE_NAME", "mailroom:staging")
	t.Setenv("WORKER_CONCURRENCY", "12")
	t.Setenv("RECOGNITION_BACKEND", "none")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6380", cfg.RedisURL)
	assert.Equal(t, "mailroom:staging", cfg.QueueName)
	assert.Equal(t, 12, cfg.WorkerConcurrency)
	assert.Equal(t, BackendNone, cfg.RecognitionBackend)
}

func TestLoadNonNumericIntFallsBackToDefault(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/postnoti")
	t.Setenv("WORKER_CONCURRENCY", "plenty")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			RedisURL:            "redis://localhost:6379",
			QueueName:           "mailroom:jobs",
			DatabaseURL:         "postgres://localhost/postnoti",
			RecognitionBackend:  BackendTesseract,
			ImageTargetWidth:    1000,
			ImageJPEGQuality:    70,
			WorkerConcurrency:   4,
			ProcessingTimeoutMS: 60000,
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing redis", func(c *Config) { c.RedisURL = "" }, "REDIS_URL"},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }, "DATABASE_URL"},
		{"unknown backend", func(c *Config) { c.RecognitionBackend = "easyocr" }, "RECOGNITION_BACKEND"},
		{"gemini without key", func(c *Config) { c.RecognitionBackend = BackendGemini }, "GEMINI_API_KEY"},
		{"gemini with key", func(c *Config) {
			c.RecognitionBackend = BackendGemini
			c.GeminiAPIKey = "key"
		}, ""},
		{"concurrency too low", func(c *Config) { c.WorkerConcurrency = 0 }, "WORKER_CONCURRENCY"},
		{"concurrency too high", func(c *Config) { c.WorkerConcurrency = 101 }, "WORKER_CONCURRENCY"},
		{"width too small", func(c *Config) { c.ImageTargetWidth = 50 }, "IMAGE_TARGET_WIDTH"},
		{"quality out of range", func(c *Config) { c.ImageJPEGQuality = 0 }, "IMAGE_JPEG_QUALITY"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
