package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"recruiter-backend/application/ports"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// relayLockResource names the lock row that serializes outbox relaying
// across instances
const relayLockResource = "outbox-relay"

// OutboxProcessor relays pending outbox rows to the event bus. Versioning
// operations only ever write pending rows; this loop is the sole publisher,
// so a bus outage delays notifications instead of losing them.
type OutboxProcessor struct {
	eventStore     *EventStore
	eventPublisher ports.EventPublisher
	lock           *DistributedLock
	ownerID        string
	logger         *zap.Logger

	batchSize          int32
	processingInterval time.Duration
	maxRetries         int

	stopChan    chan struct{}
	stoppedChan chan struct{}
}

// NewOutboxProcessor creates an outbox relay with default pacing. The lock
// keeps concurrent instances from double-publishing; a nil lock skips that
// coordination, which is fine for single-instance setups and tests.
func NewOutboxProcessor(eventStore *EventStore, eventPublisher ports.EventPublisher, lock *DistributedLock, logger *zap.Logger) *OutboxProcessor {
	return &OutboxProcessor{
		eventStore:         eventStore,
		eventPublisher:     eventPublisher,
		lock:               lock,
		ownerID:            uuid.New().String(),
		logger:             logger,
		batchSize:          50,
		processingInterval: 5 * time.Second,
		maxRetries:         3,
		stopChan:           make(chan struct{}),
		stoppedChan:        make(chan struct{}),
	}
}

// Start launches the background relay loop
func (op *OutboxProcessor) Start(ctx context.Context) {
	op.logger.Info("Starting outbox processor",
		zap.Int32("batchSize", op.batchSize),
		zap.Duration("interval", op.processingInterval),
	)
	go op.processLoop(ctx)
}

// Stop shuts the relay down and waits for the loop to exit
func (op *OutboxProcessor) Stop() {
	close(op.stopChan)
	<-op.stoppedChan
	op.logger.Info("Outbox processor stopped")
}

func (op *OutboxProcessor) processLoop(ctx context.Context) {
	defer close(op.stoppedChan)

	ticker := time.NewTicker(op.processingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-op.stopChan:
			return
		case <-ticker.C:
			if err := op.processBatch(ctx); err != nil {
				op.logger.Error("Outbox batch failed", zap.Error(err))
			}
		}
	}
}

// processBatch relays one batch of pending events. When another instance
// holds the relay lock this tick is skipped; the other relay is already on it.
func (op *OutboxProcessor) processBatch(ctx context.Context) error {
	if op.lock != nil {
		lease, err := op.lock.AcquireLock(ctx, relayLockResource, op.ownerID, op.processingInterval*2)
		if errors.Is(err, ErrLockHeld) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("acquiring relay lock: %w", err)
		}
		defer lease.Release(ctx)
	}

	pending, err := op.eventStore.GetPendingEvents(ctx, op.batchSize)
	if err != nil {
		return fmt.Errorf("fetching pending events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	published := 0
	failed := 0
	for _, record := range pending {
		if err := op.processEvent(ctx, record); err != nil {
			failed++
		} else {
			published++
		}
	}

	op.logger.Debug("Outbox batch processed",
		zap.Int("published", published),
		zap.Int("failed", failed),
	)
	return nil
}

// processEvent publishes one record and updates its outbox status
func (op *OutboxProcessor) processEvent(ctx context.Context, record *EventRecord) error {
	event, err := recordToEvent(*record)
	if err != nil {
		return op.markFailed(ctx, record, fmt.Sprintf("rehydrating event: %v", err))
	}

	if err := op.eventPublisher.Publish(ctx, event); err != nil {
		return op.markFailed(ctx, record, fmt.Sprintf("publishing: %v", err))
	}

	if err := op.eventStore.MarkEventAsPublished(ctx, record.PK, record.SK); err != nil {
		op.logger.Error("Failed to mark event published",
			zap.String("eventId", record.EventID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// markFailed bumps the attempt count, parking the row permanently once the
// retry budget is spent
func (op *OutboxProcessor) markFailed(ctx context.Context, record *EventRecord, errorMsg string) error {
	attempts := record.PublishAttempts + 1

	if err := op.eventStore.MarkEventAsFailed(ctx, record.PK, record.SK, errorMsg, attempts, op.maxRetries); err != nil {
		op.logger.Error("Failed to mark event failed",
			zap.String("eventId", record.EventID),
			zap.Error(err),
		)
		return err
	}

	if attempts >= op.maxRetries {
		op.logger.Warn("Event permanently failed",
			zap.String("eventId", record.EventID),
			zap.String("eventType", record.EventType),
			zap.Int("attempts", attempts),
			zap.String("error", errorMsg),
		)
	}
	return fmt.Errorf("event relay failed: %s", errorMsg)
}
