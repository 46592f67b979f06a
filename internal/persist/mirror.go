// Package persist mirrors cart snapshots to durable storage off the request
// path. Writes are best effort: failures are logged and counted, and the
// in-memory cart stays authoritative.
package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Fanatic033/shoro-market/internal/domain"
	"github.com/Fanatic033/shoro-market/internal/ledger"
)

var (
	snapshotWrites = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_snapshot_writes_total",
			Help: "Cart snapshot writes by result.",
		},
		[]string{"result"},
	)

	snapshotsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cart_snapshot_dropped_total",
			Help: "Cart snapshots dropped because the write queue was full or closed.",
		},
	)
)

// Saver is the write half of a snapshot store.
type Saver interface {
	Save(ctx context.Context, userID string, snapshot domain.Snapshot) error
}

// Config tunes the mirror.
type Config struct {
	QueueSize    int
	WriteTimeout time.Duration
}

type job struct {
	userID   string
	snapshot domain.Snapshot
}

// Mirror queues snapshots and writes them from a single goroutine, so
// writes for one customer land in mutation order.
type Mirror struct {
	store   Saver
	logger  *slog.Logger
	timeout time.Duration
	queue   chan job
	done    chan struct{}

	mu     sync.Mutex
	closed bool
}

// NewMirror starts the writer goroutine. Call Close to drain and stop it.
func NewMirror(store Saver, cfg Config, logger *slog.Logger) *Mirror {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}

	m := &Mirror{
		store:   store,
		logger:  logger,
		timeout: cfg.WriteTimeout,
		queue:   make(chan job, cfg.QueueSize),
		done:    make(chan struct{}),
	}
	go m.run()
	return m
}

// Observer returns a ledger observer that mirrors the customer's cart.
func (m *Mirror) Observer(userID string) ledger.Observer {
	return ledger.ObserverFunc(func(s domain.Snapshot) {
		m.Enqueue(userID, s)
	})
}

// Enqueue schedules a write without blocking. It reports false when the
// snapshot was dropped.
func (m *Mirror) Enqueue(userID string, s domain.Snapshot) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		snapshotsDropped.Inc()
		return false
	}

	select {
	case m.queue <- job{userID: userID, snapshot: s}:
		return true
	default:
		snapshotsDropped.Inc()
		m.logger.Warn("snapshot queue full, dropping write",
			slog.String("user_id", userID),
			slog.Int("queue_size", cap(m.queue)),
		)
		return false
	}
}

// Close stops accepting snapshots and waits for queued writes to finish or
// ctx to expire.
func (m *Mirror) Close(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		close(m.queue)
	}
	m.mu.Unlock()

	select {
	case <-m.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Mirror) run() {
	defer close(m.done)
	for j := range m.queue {
		m.write(j)
	}
}

func (m *Mirror) write(j job) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if err := m.store.Save(ctx, j.userID, j.snapshot); err != nil {
		snapshotWrites.WithLabelValues("error").Inc()
		m.logger.Error("failed to persist cart snapshot",
			slog.String("user_id", j.userID),
			slog.String("error", err.Error()),
		)
		return
	}
	snapshotWrites.WithLabelValues("ok").Inc()
}
