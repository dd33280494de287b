/**
 * Redis job status mirror.
 *
 * Queue state lives in asynq; this mirror keeps per-job status sets and a
 * pubsub event channel that the operator UI subscribes to for live updates.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatusPublisher mirrors job state into Redis sets and publishes events.
type StatusPublisher struct {
	client    *redis.Client
	queueName string
}

// NewStatusPublisher connects to Redis and verifies the connection.
func NewStatusPublisher(redisURL, queueName string) (*StatusPublisher, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis URL is required")
	}
	if queueName == "" {
		queueName = "mailroom:jobs"
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &StatusPublisher{client: client, queueName: queueName}, nil
}

// MarkProcessing records that a job entered processing.
func (s *StatusPublisher) MarkProcessing(ctx context.Context, jobID string) {
	s.client.SAdd(ctx, s.key("processing"), jobID)
	s.publish(ctx, jobID, "processing")
}

// MarkCompleted records completion and stores the packaged result for the
// operator review screen.
func (s *StatusPublisher) MarkCompleted(ctx context.Context, jobID string, result interface{}) {
	s.client.SRem(ctx, s.key("processing"), jobID)
	s.client.SAdd(ctx, s.key("completed"), jobID)
	if result != nil {
		if data, err := json.Marshal(result); err == nil {
			s.client.HSet(ctx, s.key("results"), jobID, data)
		}
	}
	s.publish(ctx, jobID, "completed")
}

// MarkFailed records a hard failure so the UI can offer a retake.
func (s *StatusPublisher) MarkFailed(ctx context.Context, jobID string, jobErr error) {
	s.client.SRem(ctx, s.key("processing"), jobID)
	s.client.SAdd(ctx, s.key("failed"), jobID)
	if jobErr != nil {
		errData, _ := json.Marshal(map[string]string{"error": jobErr.Error()})
		s.client.HSet(ctx, s.key("errors"), jobID, errData)
	}
	s.publish(ctx, jobID, "failed")
}

func (s *StatusPublisher) publish(ctx context.Context, jobID, status string) {
	event := map[string]interface{}{
		"event":     fmt.Sprintf("job:%s", status),
		"jobId":     jobID,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	eventData, _ := json.Marshal(event)
	s.client.Publish(ctx, s.key("events"), eventData)
}

// Stats returns job counts per state.
func (s *StatusPublisher) Stats(ctx context.Context) (map[string]int64, error) {
	processing, err := s.client.SCard(ctx, s.key("processing")).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read queue stats: %w", err)
	}
	completed, _ := s.client.SCard(ctx, s.key("completed")).Result()
	failed, _ := s.client.SCard(ctx, s.key("failed")).Result()

	return map[string]int64{
		"processing": processing,
		"completed":  completed,
		"failed":     failed,
	}, nil
}

func (s *StatusPublisher) key(suffix string) string {
	return fmt.Sprintf("%s:%s", s.queueName, suffix)
}

// Close closes the Redis connection.
func (s *StatusPublisher) Close() error {
	return s.client.Close()
}
