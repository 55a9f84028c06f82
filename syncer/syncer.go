// Package syncer ships finished product records to the configured backend
// endpoint. Retries and queueing live entirely here; the detection engine
// has no retry logic of its own.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cart-tracker/internal/types"
	"cart-tracker/utils"
)

// ErrSyncDisabled is returned when syncing is off or no endpoint is set
var ErrSyncDisabled = errors.New("sync disabled or no endpoint configured")

const (
	batchSize     = 10
	retryDelay    = 1 * time.Minute
	flushInterval = 5 * time.Minute
	sourceName    = "cart-tracker"
)

// SyncRequest is the wire envelope posted to the backend
type SyncRequest struct {
	Products  []types.Product `json:"products"`
	Timestamp int64           `json:"timestamp"`
	Source    string          `json:"source"`
}

// Syncer batches queued records and posts them to the backend. Failed
// batches are requeued and retried after a backoff; a periodic flush
// drains anything left over.
type Syncer struct {
	settings types.Settings
	client   *utils.HTTPClient
	logger   types.Logger

	mu         sync.Mutex
	queue      []types.Product
	syncing    bool
	retryTimer *time.Timer

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New creates a syncer. The client posts through the shared rate-limited
// HTTP client.
func New(settings types.Settings, config *types.Config, logger types.Logger) *Syncer {
	return &Syncer{
		settings: settings,
		client:   utils.NewHTTPClient(config, logger),
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

// Enabled reports whether this syncer will ever post anything
func (s *Syncer) Enabled() bool {
	return s.settings.SyncEnabled && s.settings.APIEndpoint != ""
}

// Enqueue queues one record and kicks off a flush
func (s *Syncer) Enqueue(product types.Product) {
	if !s.Enabled() {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, product)
	s.mu.Unlock()

	go func() {
		if err := s.Flush(context.Background()); err != nil && !errors.Is(err, ErrSyncDisabled) {
			s.logger.Warnf("sync flush failed: %v", err)
		}
	}()
}

// Start runs the periodic flush loop until Stop is called
func (s *Syncer) Start(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	go func() {
		ticker := time.NewTicker(flushInterval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Flush(ctx); err != nil && !errors.Is(err, ErrSyncDisabled) {
					s.logger.Warnf("periodic sync failed: %v", err)
				}
			}
		}
	}()
}

// Stop ends the periodic flush loop and any pending retry
func (s *Syncer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.mu.Lock()
	if s.retryTimer != nil {
		s.retryTimer.Stop()
	}
	s.mu.Unlock()
}

// Flush posts one batch from the queue. A failed batch goes back on the
// queue and a retry is scheduled. Only one flush runs at a time.
func (s *Syncer) Flush(ctx context.Context) error {
	if !s.Enabled() {
		return ErrSyncDisabled
	}

	s.mu.Lock()
	if s.syncing || len(s.queue) == 0 {
		s.mu.Unlock()
		return nil
	}
	s.syncing = true
	n := len(s.queue)
	if n > batchSize {
		n = batchSize
	}
	batch := make([]types.Product, n)
	copy(batch, s.queue[:n])
	s.queue = s.queue[n:]
	s.mu.Unlock()

	err := s.post(ctx, batch)

	s.mu.Lock()
	s.syncing = false
	if err != nil {
		s.queue = append(s.queue, batch...)
		s.scheduleRetryLocked()
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to sync %d products: %w", len(batch), err)
	}
	s.logger.Infof("Synced %d products to backend", len(batch))
	return nil
}

// QueueLen returns the number of records waiting to be synced
func (s *Syncer) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func (s *Syncer) post(ctx context.Context, products []types.Product) error {
	url := strings.TrimRight(s.settings.APIEndpoint, "/") + "/api/cart/sync"
	payload := SyncRequest{
		Products:  products,
		Timestamp: time.Now().UnixMilli(),
		Source:    sourceName,
	}

	_, err := s.client.PostJSON(ctx, url, payload)
	return err
}

func (s *Syncer) scheduleRetryLocked() {
	if s.retryTimer != nil {
		s.retryTimer.Stop()
	}
	s.retryTimer = time.AfterFunc(retryDelay, func() {
		select {
		case <-s.stopCh:
			return
		default:
		}
		if err := s.Flush(context.Background()); err != nil && !errors.Is(err, ErrSyncDisabled) {
			s.logger.Warnf("sync retry failed: %v", err)
		}
	})
}
