package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	reconnectBase = time.Second
	reconnectCap  = 30 * time.Second
)

// PgNotifier publishes events on the shared Postgres channel so that every
// server instance, including this one, sees them through its PgListener.
type PgNotifier struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgNotifier(pool *pgxpool.Pool, logger *zap.Logger) *PgNotifier {
	return &PgNotifier{pool: pool, logger: logger}
}

// Publish never fails the caller; delivery errors are logged.
func (n *PgNotifier) Publish(ctx context.Context, e Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		n.logger.Error("failed to encode change event", zap.Error(err))
		return
	}

	// The mutation is already committed; a cancelled request should not swallow its event.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if _, err := n.pool.Exec(ctx, "SELECT pg_notify($1, $2)", Channel, string(payload)); err != nil {
		n.logger.Warn("failed to publish change event",
			zap.String("resource", string(e.Resource)),
			zap.String("id", e.ID),
			zap.Error(err),
		)
	}
}

// PgListener relays notifications from the shared channel into a Hub. It holds one
// dedicated connection taken out of the pool and reconnects with capped exponential backoff.
type PgListener struct {
	pool   *pgxpool.Pool
	hub    *Hub
	logger *zap.Logger
}

func NewPgListener(pool *pgxpool.Pool, hub *Hub, logger *zap.Logger) *PgListener {
	return &PgListener{pool: pool, hub: hub, logger: logger}
}

// Run blocks until ctx is cancelled.
func (l *PgListener) Run(ctx context.Context) error {
	for {
		var conn *pgx.Conn
		backoff := retry.WithCappedDuration(reconnectCap, retry.NewExponential(reconnectBase))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			c, err := l.connect(ctx)
			if err != nil {
				l.logger.Warn("change listener connect failed", zap.Error(err))
				return retry.RetryableError(err)
			}
			conn = c
			return nil
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		l.logger.Info("change listener connected", zap.String("channel", Channel))
		err = l.serve(ctx, conn)
		_ = conn.Close(context.Background())
		if ctx.Err() != nil {
			return nil
		}
		l.logger.Warn("change listener disconnected", zap.Error(err))
	}
}

func (l *PgListener) connect(ctx context.Context) (*pgx.Conn, error) {
	pc, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	// Hijacked connections are no longer managed by the pool.
	conn := pc.Hijack()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{Channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, err
	}
	return conn, nil
}

func (l *PgListener) serve(ctx context.Context, conn *pgx.Conn) error {
	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		var e Event
		if err := json.Unmarshal([]byte(n.Payload), &e); err != nil {
			l.logger.Warn("ignoring malformed change event", zap.String("payload", n.Payload), zap.Error(err))
			continue
		}
		l.hub.Publish(ctx, e)
	}
}
