package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/smartroom-backend/internal/pkg/clock"
)

// deferredTimeout bounds a single deferred delete once its timer fires.
const deferredTimeout = 10 * time.Second

// PendingDelete describes a delete waiting out its grace period.
type PendingDelete struct {
	Token  string
	FireAt time.Time
	timer  *time.Timer
}

// Deferrer runs a removal after a grace period unless it is cancelled first.
// For a given key, firing and cancelling are mutually exclusive and each happens at most once.
type Deferrer struct {
	mu      sync.Mutex
	grace   time.Duration
	pending map[string]*PendingDelete
	logger  *zap.Logger
	clock   clock.Clock
	closed  bool
}

// NewDeferrer reports FireAt from clk; the timers themselves always run on real time.
func NewDeferrer(grace time.Duration, clk clock.Clock, logger *zap.Logger) *Deferrer {
	return &Deferrer{
		grace:   grace,
		pending: make(map[string]*PendingDelete),
		logger:  logger,
		clock:   clk,
	}
}

// Grace returns the configured grace period.
func (d *Deferrer) Grace() time.Duration {
	return d.grace
}

// Schedule arranges for fn to run after the grace period. A key that is already
// pending is rejected with ErrDeletePending.
func (d *Deferrer) Schedule(key string, fn func(ctx context.Context) error) (PendingDelete, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return PendingDelete{}, ErrShuttingDown
	}
	if _, ok := d.pending[key]; ok {
		return PendingDelete{}, ErrDeletePending
	}

	p := &PendingDelete{
		Token:  uuid.NewString(),
		FireAt: d.clock.Now().Add(d.grace),
	}
	p.timer = time.AfterFunc(d.grace, func() { d.fire(key, p, fn) })
	d.pending[key] = p

	return *p, nil
}

func (d *Deferrer) fire(key string, p *PendingDelete, fn func(ctx context.Context) error) {
	d.mu.Lock()
	if d.pending[key] != p {
		// Cancelled (or replaced) after the timer was already running.
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), deferredTimeout)
	defer cancel()

	if err := fn(ctx); err != nil {
		d.logger.Error("deferred delete failed", zap.String("key", key), zap.Error(err))
		return
	}
	d.logger.Info("deferred delete committed", zap.String("key", key))
}

// Cancel aborts a pending removal. It succeeds at most once, and only before the timer fires.
func (d *Deferrer) Cancel(key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pending[key]
	if !ok {
		return ErrNothingToUndo
	}
	p.timer.Stop()
	delete(d.pending, key)
	return nil
}

// IsPending reports whether key is waiting out its grace period.
func (d *Deferrer) IsPending(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[key]
	return ok
}

// Shutdown stops every pending timer without running it. Pending deletes are dropped,
// matching an undo for each of them.
func (d *Deferrer) Shutdown() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	n := len(d.pending)
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
	if n > 0 {
		d.logger.Warn("dropped pending deletes on shutdown", zap.Int("count", n))
	}
	return n
}
