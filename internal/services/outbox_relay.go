package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"brankas/internal/log"
	"brankas/internal/storage"
)

// Publisher hands one encoded event to the broker.
type Publisher interface {
	Publish(ctx context.Context, messageID string, body []byte) error
}

// OutboxRelayConfig holds configuration for the outbox relay
type OutboxRelayConfig struct {
	// PollInterval is how often to check for pending events (default: 2s)
	PollInterval time.Duration

	// BatchSize is the max number of events to publish per poll cycle (default: 50)
	BatchSize int

	// MaxRetries is the maximum publish attempts before marking as failed (default: 5)
	MaxRetries int

	// CleanupInterval is how often to remove published events (default: 1h)
	CleanupInterval time.Duration

	// CleanupAge is how old published events must be before cleanup (default: 24h)
	CleanupAge time.Duration
}

func DefaultOutboxRelayConfig() OutboxRelayConfig {
	return OutboxRelayConfig{
		PollInterval:    2 * time.Second,
		BatchSize:       50,
		MaxRetries:      5,
		CleanupInterval: time.Hour,
		CleanupAge:      24 * time.Hour,
	}
}

// OutboxRelay moves committed events from the outbox table to the broker.
// A broker outage only delays delivery; events stay pending until published.
type OutboxRelay struct {
	outbox    storage.OutboxGateway
	publisher Publisher
	config    OutboxRelayConfig
	logger    *log.Logger
	now       clock

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewOutboxRelay(outbox storage.OutboxGateway, publisher Publisher, config OutboxRelayConfig, logger *log.Logger) *OutboxRelay {
	return &OutboxRelay{
		outbox:    outbox,
		publisher: publisher,
		config:    config,
		logger:    orDiscard(logger, log.ComponentOutbox),
		now:       systemClock,
	}
}

// Start begins the relay loop. Returns an error if already running.
func (r *OutboxRelay) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("outbox relay is already running")
	}
	if r.outbox == nil || r.publisher == nil {
		r.mu.Unlock()
		return errors.New("outbox relay needs an outbox and a publisher")
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	go r.runLoop(ctx, stopCh, doneCh)

	r.logger.InfoContext(ctx, "Outbox relay started",
		"poll_interval", r.config.PollInterval,
		"batch_size", r.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for the current batch. The relay counts
// as stopped once signalled, even if ctx expires before the batch ends.
func (r *OutboxRelay) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	stopCh, doneCh := r.stopCh, r.doneCh
	r.running = false
	r.stopCh, r.doneCh = nil, nil
	r.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		r.logger.InfoContext(ctx, "Outbox relay stopped gracefully")
		return nil
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Outbox relay stop timed out")
		return ctx.Err()
	}
}

func (r *OutboxRelay) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *OutboxRelay) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	pollTicker := time.NewTicker(r.config.PollInterval)
	defer pollTicker.Stop()

	cleanupTicker := time.NewTicker(r.config.CleanupInterval)
	defer cleanupTicker.Stop()

	r.relay(ctx, stopCh)

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-pollTicker.C:
			r.relay(ctx, stopCh)
		case <-cleanupTicker.C:
			r.cleanupPublished(ctx)
		}
	}
}

// RelayOnce publishes one batch of pending events and returns how many
// were published.
func (r *OutboxRelay) RelayOnce(ctx context.Context) int {
	return r.relay(ctx, nil)
}

func (r *OutboxRelay) relay(ctx context.Context, stopCh <-chan struct{}) int {
	events, err := r.outbox.PendingEvents(ctx, r.config.BatchSize)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to read pending events", log.FieldError, err)
		return 0
	}
	if len(events) == 0 {
		return 0
	}
	r.logger.DebugContext(ctx, "Relaying outbox batch", "count", len(events))

	published := 0
	for _, ev := range events {
		if stopping(ctx, stopCh) {
			break
		}
		if err := r.publisher.Publish(ctx, ev.EventID, ev.Payload); err != nil {
			r.handleFailure(ctx, ev, err)
			// the broker is likely down; keep order and try again next tick
			break
		}
		if err := r.outbox.MarkEventPublished(ctx, ev.ID); err != nil {
			r.logger.ErrorContext(ctx, "Failed to mark event published",
				log.FieldEventID, ev.EventID, log.FieldError, err)
			continue
		}
		published++
	}
	return published
}

func stopping(ctx context.Context, stopCh <-chan struct{}) bool {
	select {
	case <-stopCh:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// handleFailure counts the attempt and parks the event as failed once it
// has used up its retries.
func (r *OutboxRelay) handleFailure(ctx context.Context, ev storage.OutboxEvent, publishErr error) {
	attempt := ev.Attempts + 1
	r.logger.WarnContext(ctx, "Event publish failed",
		log.FieldEventID, ev.EventID,
		"kind", ev.Kind,
		"attempt", attempt,
		log.FieldError, publishErr)

	if attempt >= r.config.MaxRetries {
		if err := r.outbox.MarkEventFailed(ctx, ev.ID, publishErr.Error()); err != nil {
			r.logger.ErrorContext(ctx, "Failed to mark event failed", log.FieldEventID, ev.EventID, log.FieldError, err)
			return
		}
		r.logger.ErrorContext(ctx, "Event failed permanently after max retries",
			log.FieldEventID, ev.EventID, log.FieldUserID, ev.UserID, "attempts", attempt)
		return
	}
	if err := r.outbox.MarkEventRetry(ctx, ev.ID, publishErr.Error()); err != nil {
		r.logger.ErrorContext(ctx, "Failed to record publish attempt", log.FieldEventID, ev.EventID, log.FieldError, err)
	}
}

func (r *OutboxRelay) cleanupPublished(ctx context.Context) {
	cutoff := r.now().Add(-r.config.CleanupAge)
	if err := r.outbox.CleanupPublished(ctx, cutoff); err != nil {
		r.logger.ErrorContext(ctx, "Failed to clean up published events", log.FieldError, err)
	}
}

func (r *OutboxRelay) Stats(ctx context.Context) (storage.OutboxStats, error) {
	st, err := r.outbox.OutboxStats(ctx)
	if err != nil {
		return storage.OutboxStats{}, fmt.Errorf("outbox stats: %w", err)
	}
	return st, nil
}

// RetryFailed puts every failed event back in the pending queue.
func (r *OutboxRelay) RetryFailed(ctx context.Context) error {
	return r.outbox.RetryFailedEvents(ctx)
}
