package events

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/userservice/internal/dbx"
	"github.com/dmitrijs2005/userservice/internal/logging"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Handler processes one message. Returned errors are logged by the bus.
type Handler func(ctx context.Context, payload []byte) error

// Bus is a publish/subscribe transport.
type Bus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe delivers messages of channel to h until ctx is cancelled.
	Subscribe(ctx context.Context, channel string, h Handler) error
}

// listenConn is the subset of *pgx.Conn used for LISTEN.
type listenConn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	WaitForNotification(ctx context.Context) (*pgconn.Notification, error)
	Close(ctx context.Context) error
}

const (
	minBackoff = 100 * time.Millisecond
	maxBackoff = 10 * time.Second
)

// PostgresBus publishes with pg_notify on the shared pool and listens on a
// dedicated connection per subscription. Delivery is at most once: messages
// sent while a listener reconnects are lost, so handlers must tolerate gaps
// as well as duplicates.
type PostgresBus struct {
	db      *sql.DB
	dsn     string
	logger  logging.Logger
	connect func(ctx context.Context, dsn string) (listenConn, error)
}

func NewPostgresBus(db *sql.DB, dsn string, l logging.Logger) *PostgresBus {
	return &PostgresBus{
		db:     db,
		dsn:    dsn,
		logger: l.With("module", "event_bus"),
		connect: func(ctx context.Context, dsn string) (listenConn, error) {
			return pgx.Connect(ctx, dsn)
		},
	}
}

func (b *PostgresBus) Publish(ctx context.Context, channel string, payload []byte) error {
	if _, err := b.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, channel, string(payload)); err != nil {
		return fmt.Errorf("notify %s: %w", channel, dbx.Classify(err))
	}
	return nil
}

func (b *PostgresBus) Subscribe(ctx context.Context, channel string, h Handler) error {
	backoff := minBackoff

	for {
		err := b.listen(ctx, channel, h, func() { backoff = minBackoff })
		if ctx.Err() != nil {
			return nil
		}

		b.logger.Warn(ctx, "listener disconnected", "channel", channel, "error", err, "retry_in", backoff)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// listen runs one LISTEN session; connected is called once it is established.
func (b *PostgresBus) listen(ctx context.Context, channel string, h Handler, connected func()) error {
	conn, err := b.connect(ctx, b.dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	connected()
	b.logger.Info(ctx, "listening", "channel", channel)

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}

		if err := h(ctx, []byte(n.Payload)); err != nil {
			b.logger.Error(ctx, "event handler failed", "channel", channel, "error", err)
		}
	}
}
