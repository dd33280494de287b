/**
 * Queue consumer for the mailroom worker.
 *
 * Consumes mail:resolve tasks from the Redis-backed asynq queue, runs the
 * resolution pipeline against fresh roster and known-sender snapshots, and
 * persists a draft mail log for operator confirmation.
 */

package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/postnoti/mailroom-worker/internal/apperr"
	"github.com/postnoti/mailroom-worker/internal/logging"
	"github.com/postnoti/mailroom-worker/internal/resolve"
	"github.com/postnoti/mailroom-worker/internal/storage"
)

// Store is the record-store surface the consumer needs.
type Store interface {
	ProfilesByCompany(ctx context.Context, companyID string) ([]resolve.TenantProfile, error)
	KnownSenders(ctx context.Context) ([]string, error)
	CompanyName(ctx context.Context, companyID string) (string, error)
	InsertMailLog(ctx context.Context, m *storage.MailLog) (string, error)
	UpdateJobStatus(ctx context.Context, update *storage.JobUpdate) error
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL          string
	QueueName         string
	Concurrency       int
	ProcessingTimeout time.Duration
}

// Consumer processes resolution jobs from the queue.
type Consumer struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	resolver *resolve.Resolver
	store    Store
	status   *StatusPublisher
	config   *ConsumerConfig
	log      *logging.Logger
}

// NewConsumer creates a new queue consumer.
func NewConsumer(cfg *ConsumerConfig, resolver *resolve.Resolver, store Store, status *StatusPublisher) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.QueueName == "" {
		cfg.QueueName = "mailroom:jobs"
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	log := logging.NewLogger("queue")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				cfg.QueueName: 10,
				"default":     1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at 60s
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error("task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	consumer := &Consumer{
		server:   server,
		mux:      mux,
		resolver: resolver,
		store:    store,
		status:   status,
		config:   cfg,
		log:      log,
	}

	mux.HandleFunc(TaskTypeResolveMail, consumer.handleResolveMail)

	return consumer, nil
}

// Start starts the queue consumer.
func (c *Consumer) Start() error {
	c.log.Info("starting queue consumer",
		"concurrency", c.config.Concurrency, "queue", c.config.QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.log.Error("queue consumer stopped", "error", err)
		}
	}()

	return nil
}

// Stop stops the queue consumer gracefully.
func (c *Consumer) Stop() {
	c.log.Info("stopping queue consumer")
	c.server.Shutdown()
}

// handleResolveMail runs one resolution job end to end.
func (c *Consumer) handleResolveMail(ctx context.Context, task *asynq.Task) error {
	startTime := time.Now()

	var payload ResolvePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal job payload: %w", err)
	}
	if payload.JobID == "" || payload.CompanyID == "" {
		return fmt.Errorf("job payload missing jobId or companyId")
	}

	c.log.Info("processing mail photo",
		"jobId", payload.JobID, "companyId", payload.CompanyID,
		"filename", payload.Filename, "imageBytes", len(payload.Image))

	c.markProcessing(ctx, payload.JobID)

	timeout := c.config.ProcessingTimeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	procCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Roster and known-sender snapshots are captured once per job; a store
	// update mid-resolution produces a stale result, never a corrupt one.
	roster, err := c.store.ProfilesByCompany(procCtx, payload.CompanyID)
	if err != nil {
		return c.fail(ctx, payload.JobID, apperr.NewStorageFailed(payload.JobID, err))
	}

	knownSenders, err := c.store.KnownSenders(procCtx)
	if err != nil {
		return c.fail(ctx, payload.JobID, apperr.NewStorageFailed(payload.JobID, err))
	}

	result, normalized, err := c.resolver.Resolve(procCtx, payload.Image, knownSenders, roster)
	if err != nil {
		if procCtx.Err() == context.DeadlineExceeded {
			return c.fail(ctx, payload.JobID, apperr.NewProcessingTimeout(payload.JobID, timeout, err))
		}
		return c.fail(ctx, payload.JobID, err)
	}

	matchedID := ""
	if result.MatchedTenant != nil {
		matchedID = result.MatchedTenant.ID
	}

	mailLogID, err := c.store.InsertMailLog(ctx, &storage.MailLog{
		CompanyID:  payload.CompanyID,
		ProfileID:  matchedID,
		MailType:   result.Category,
		Sender:     result.Sender,
		OCRContent: result.Text,
		ImageURL:   normalized.DataURI,
		Status:     "pending_review",
	})
	if err != nil {
		return c.fail(ctx, payload.JobID, apperr.NewStorageFailed(payload.JobID, err))
	}

	notification := c.composeNotification(ctx, &payload, result)

	duration := time.Since(startTime)

	if err := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
		JobID:            payload.JobID,
		Status:           "completed",
		Category:         result.Category,
		Sender:           result.Sender,
		MatchedProfileID: matchedID,
		Metadata: map[string]interface{}{
			"mailLogId":        mailLogID,
			"processingTimeMs": duration.Milliseconds(),
			"imageResized":     normalized.Resized,
		},
	}); err != nil {
		c.log.Warn("failed to update job status to completed", "jobId", payload.JobID, "error", err)
	}

	c.status.MarkCompleted(ctx, payload.JobID, map[string]interface{}{
		"result":       result,
		"imageUrl":     normalized.DataURI,
		"mailLogId":    mailLogID,
		"notification": notification,
	})

	c.log.Info("resolution job completed",
		"jobId", payload.JobID, "duration", duration,
		"category", result.Category, "matchedTenant", matchedID)

	return nil
}

// composeNotification decides who to notify and with what text. Nil when
// there is no confident, active match; the operator then assigns manually.
func (c *Consumer) composeNotification(ctx context.Context, payload *ResolvePayload, result *resolve.ResolutionResult) *resolve.Notification {
	if result.MatchedTenant == nil || !result.MatchedTenant.IsActive {
		return nil
	}

	companyName := payload.CompanyName
	if companyName == "" {
		name, err := c.store.CompanyName(ctx, payload.CompanyID)
		if err != nil {
			c.log.Warn("failed to resolve company name", "companyId", payload.CompanyID, "error", err)
			return nil
		}
		companyName = name
	}

	notification, err := resolve.BuildNotification(companyName, result, payload.ExtraPages > 0)
	if err != nil {
		c.log.Warn("failed to compose notification", "jobId", payload.JobID, "error", err)
		return nil
	}
	return notification
}

// markProcessing mirrors the processing state into Redis and PostgreSQL.
func (c *Consumer) markProcessing(ctx context.Context, jobID string) {
	if c.status != nil {
		c.status.MarkProcessing(ctx, jobID)
	}
	if err := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
		JobID:  jobID,
		Status: "processing",
	}); err != nil {
		c.log.Warn("failed to update job status to processing", "jobId", jobID, "error", err)
	}
}

// fail records a hard failure and returns the error so asynq applies retry
// backoff.
func (c *Consumer) fail(ctx context.Context, jobID string, jobErr error) error {
	if c.status != nil {
		c.status.MarkFailed(ctx, jobID, jobErr)
	}

	errorMessage := jobErr.Error()
	metadata := map[string]interface{}{}
	var ae *apperr.Error
	if errors.As(jobErr, &ae) {
		metadata = ae.ToMap()
	}

	if err := c.store.UpdateJobStatus(ctx, &storage.JobUpdate{
		JobID:        jobID,
		Status:       "failed",
		ErrorMessage: errorMessage,
		Metadata:     metadata,
	}); err != nil {
		c.log.Warn("failed to update job status to failed", "jobId", jobID, "error", err)
	}

	return jobErr
}
