/**
 * Mailroom Worker - Main Entry Point
 *
 * Queue-driven worker that turns photographed envelopes into tenant mail
 * notifications.
 *
 * Architecture:
 * - Asynq consumer for the Redis-backed resolution job queue
 * - OCR-to-tenant resolution pipeline (normalize, recognize, classify, match)
 * - Pluggable recognition backend: tesseract (local), gemini (remote), none
 * - PostgreSQL record store for rosters, known senders and mail logs
 */

package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/postnoti/mailroom-worker/internal/config"
	"github.com/postnoti/mailroom-worker/internal/imaging"
	"github.com/postnoti/mailroom-worker/internal/queue"
	"github.com/postnoti/mailroom-worker/internal/recognition"
	"github.com/postnoti/mailroom-worker/internal/resolve"
	"github.com/postnoti/mailroom-worker/internal/storage"
)

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: .env not found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Mailroom worker starting...")
	log.Printf("Configuration loaded: Redis=%s, Queue=%s, Backend=%s, Workers=%d",
		cfg.RedisURL, cfg.QueueName, cfg.RecognitionBackend, cfg.WorkerConcurrency)

	store, err := storage.NewPostgresClient(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}
	defer store.Close()
	log.Printf("Record store initialized (PostgreSQL)")

	recognizer, closer, err := newRecognizer(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize recognition backend: %v", err)
	}
	if closer != nil {
		defer closer.Close()
	}
	log.Printf("Recognition backend initialized: %s", cfg.RecognitionBackend)

	normalizer := imaging.NewNormalizer(cfg.ImageTargetWidth, cfg.ImageJPEGQuality)
	resolver := resolve.NewResolver(recognizer, normalizer)

	status, err := queue.NewStatusPublisher(cfg.RedisURL, cfg.QueueName)
	if err != nil {
		log.Fatalf("Failed to initialize status publisher: %v", err)
	}
	defer status.Close()

	consumer, err := queue.NewConsumer(&queue.ConsumerConfig{
		RedisURL:          cfg.RedisURL,
		QueueName:         cfg.QueueName,
		Concurrency:       cfg.WorkerConcurrency,
		ProcessingTimeout: time.Duration(cfg.ProcessingTimeoutMS) * time.Millisecond,
	}, resolver, store, status)
	if err != nil {
		log.Fatalf("Failed to initialize queue consumer: %v", err)
	}

	if err := consumer.Start(); err != nil {
		log.Fatalf("Failed to start queue consumer: %v", err)
	}

	log.Printf("===========================================")
	log.Printf("Mailroom worker is READY")
	log.Printf("Queue: %s", cfg.QueueName)
	log.Printf("Workers: %d", cfg.WorkerConcurrency)
	log.Printf("Recognition: %s", cfg.RecognitionBackend)
	log.Printf("Image target: %dpx / q%d", cfg.ImageTargetWidth, cfg.ImageJPEGQuality)
	log.Printf("===========================================")
	log.Printf("Waiting for jobs...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	log.Printf("Received signal %v, initiating graceful shutdown...", sig)

	consumer.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := store.Ping(ctx); err == nil {
		log.Printf("Record store healthy at shutdown")
	}

	log.Printf("Shutdown complete")
}

// newRecognizer builds the configured recognition backend. The second return
// value, when non-nil, must be closed at shutdown.
func newRecognizer(cfg *config.Config) (resolve.Recognizer, io.Closer, error) {
	switch cfg.RecognitionBackend {
	case config.BackendGemini:
		g, err := recognition.NewGemini(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g, nil
	case config.BackendNone:
		return recognition.NewNoop(), nil, nil
	default:
		return recognition.NewTesseract(cfg.TesseractLangs), nil, nil
	}
}
