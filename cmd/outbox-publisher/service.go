package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/db/models"
	"github.com/angelmondragon/partsdealer-backend/pkg/logger"
	"github.com/angelmondragon/partsdealer-backend/pkg/metrics"
	"github.com/angelmondragon/partsdealer-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type pinger interface {
	Ping(context.Context) error
}

type topicPublisher interface {
	Ping(context.Context) error
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

type outboxRepository interface {
	FetchUnpublished(ctx context.Context, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, cause error) error
	MarkDead(ctx context.Context, id uuid.UUID, cause error, maxAttempts int) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type ServiceParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         pinger
	Publisher  topicPublisher
	Repository outboxRepository
	Registry   registryResolver
	Metrics    *metrics.Marketplace
}

// Service drains outbox_events to Pub/Sub. Delivery is at-least-once: a row
// is marked published only after the broker acks it.
type Service struct {
	logg         *logger.Logger
	db           pinger
	publisher    topicPublisher
	repo         outboxRepository
	registry     registryResolver
	metrics      *metrics.Marketplace
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
	jitter       *rand.Rand
}

func NewService(params ServiceParams) (*Service, error) {
	var errs error
	if params.Config == nil {
		errs = multierr.Append(errs, errors.New("config is required"))
	}
	if params.Logger == nil {
		errs = multierr.Append(errs, errors.New("logger is required"))
	}
	if params.DB == nil {
		errs = multierr.Append(errs, errors.New("database client is required"))
	}
	if params.Publisher == nil {
		errs = multierr.Append(errs, errors.New("publisher is required"))
	}
	if params.Repository == nil {
		errs = multierr.Append(errs, errors.New("outbox repository is required"))
	}
	if params.Registry == nil {
		errs = multierr.Append(errs, errors.New("event registry is required"))
	}
	if errs != nil {
		return nil, errs
	}

	cfg := params.Config.Outbox
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := cfg.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		publisher:    params.Publisher,
		repo:         params.Repository,
		registry:     params.Registry,
		metrics:      params.Metrics,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
		jitter:       rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	if err := s.publisher.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub ping failed: %w", err)
	}

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox publisher batch error", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, s.withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = s.pollInterval
		if processed > 0 {
			continue
		}
		if err := s.sleep(ctx, s.withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// processBatch publishes one page of pending rows. A failing row never
// blocks the rest of the batch.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	events, err := s.repo.FetchUnpublished(ctx, s.batchSize, s.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox rows: %w", err)
	}
	for _, event := range events {
		if err := s.publishOne(ctx, event); err != nil {
			return len(events), err
		}
	}
	return len(events), nil
}

func (s *Service) publishOne(ctx context.Context, event models.OutboxEvent) error {
	fields := map[string]any{
		"outbox_id":      event.ID.String(),
		"event_type":     event.EventType,
		"aggregate_type": event.AggregateType,
		"aggregate_id":   event.AggregateID.String(),
		"attempt_count":  event.AttemptCount,
	}

	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.markDead(ctx, event, fields, err)
	}
	fields["topic"] = resolved.Descriptor.Topic
	fields["event_id"] = resolved.Envelope.EventID

	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	_, err = s.publisher.Publish(publishCtx, resolved.Descriptor.Topic, event.Payload, attrs)
	cancel()
	if err != nil {
		var nonRetry registry.NonRetryableError
		if errors.As(err, &nonRetry) {
			return s.markDead(ctx, event, fields, err)
		}
		if event.AttemptCount+1 >= s.maxAttempts {
			return s.markDead(ctx, event, fields, fmt.Errorf("max publish attempts reached: %w", err))
		}
		logCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", err.Error())
		s.logg.Warn(logCtx, "outbox publish failed")
		s.metrics.OutboxPublished("retry")
		if markErr := s.repo.MarkFailed(ctx, event.ID, err); markErr != nil {
			return fmt.Errorf("mark failure %s: %w", event.ID, markErr)
		}
		return nil
	}

	if err := s.repo.MarkPublished(ctx, event.ID); err != nil {
		return fmt.Errorf("mark published %s: %w", event.ID, err)
	}
	s.metrics.OutboxPublished("published")
	s.logg.Debug(s.logg.WithFields(ctx, fields), "outbox event published")
	return nil
}

func (s *Service) markDead(ctx context.Context, event models.OutboxEvent, fields map[string]any, cause error) error {
	logCtx := s.logg.WithField(s.logg.WithFields(ctx, fields), "error", cause.Error())
	s.logg.Warn(logCtx, "outbox event will not be retried")
	s.metrics.OutboxPublished("dead")
	if err := s.repo.MarkDead(ctx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark dead %s: %w", event.ID, err)
	}
	return nil
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(s.jitter.Int63n(int64(jitterWindow)))
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}
