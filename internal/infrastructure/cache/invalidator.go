package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/HCTatse/MF-Chaincode/internal/repositories/postgres"
	"github.com/HCTatse/MF-Chaincode/pkg/cache"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// Invalidator keeps a process-local catalog cache consistent across instances.
// It uses PostgreSQL LISTEN/NOTIFY to evict a domain's entry as soon as another
// instance commits a change to it.
type Invalidator struct {
	mu       sync.Mutex
	cache    cache.Cache
	connStr  string
	listener *pq.Listener
	logger   *zap.Logger
	stopCh   chan struct{}
	stopped  bool
}

// NewInvalidator creates a new Invalidator.
// connStr is the PostgreSQL connection string for LISTEN/NOTIFY.
func NewInvalidator(c cache.Cache, connStr string, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{
		cache:   c,
		connStr: connStr,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start begins listening on the catalog change channel.
func (inv *Invalidator) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			// Entries still expire by TTL while the listener is down
			inv.logger.Warn("catalog listener error", zap.Error(err))
		}
	}

	inv.listener = pq.NewListener(inv.connStr, 10*time.Second, time.Minute, reportProblem)

	if err := inv.listener.Listen(postgres.CatalogChangedChannel); err != nil {
		inv.listener.Close()
		return fmt.Errorf("failed to listen on %s: %w", postgres.CatalogChangedChannel, err)
	}

	go inv.handleNotifications(ctx)

	return nil
}

// Stop stops the Invalidator and cleans up resources.
func (inv *Invalidator) Stop() error {
	inv.mu.Lock()
	if inv.stopped {
		inv.mu.Unlock()
		return nil
	}
	inv.stopped = true
	close(inv.stopCh)
	inv.mu.Unlock()

	if inv.listener != nil {
		return inv.listener.Close()
	}
	return nil
}

// handleNotifications processes incoming NOTIFY events.
func (inv *Invalidator) handleNotifications(ctx context.Context) {
	for {
		select {
		case <-inv.stopCh:
			return
		case <-ctx.Done():
			return
		case notification := <-inv.listener.Notify:
			inv.handle(ctx, notification)
		case <-time.After(90 * time.Second):
			// Periodic ping to keep connection alive
			go func() {
				if err := inv.listener.Ping(); err != nil {
					inv.logger.Warn("catalog listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

// handle evicts the domain named by a notification. A nil notification means
// the connection was re-established and events may have been missed, so the
// whole cache is dropped.
func (inv *Invalidator) handle(ctx context.Context, notification *pq.Notification) {
	if notification == nil {
		inv.logger.Info("catalog listener reconnected, clearing cache")
		if err := inv.cache.Clear(ctx); err != nil {
			inv.logger.Warn("failed to clear catalog cache", zap.Error(err))
		}
		return
	}

	domainID := notification.Extra
	if err := inv.cache.Delete(ctx, cache.CatalogKey(domainID)); err != nil {
		inv.logger.Warn("failed to evict catalog", zap.String("domain", domainID), zap.Error(err))
		return
	}
	inv.logger.Debug("catalog evicted", zap.String("domain", domainID))
}
