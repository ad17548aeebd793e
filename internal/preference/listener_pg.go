package preference

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"memoria/internal/platform/postgres"
	id "memoria/pkg/domain"
)

const reconnectDelay = 5 * time.Second

// Listener invalidates cached preference snapshots across instances. A
// database trigger NOTIFYs the person ID whenever a preference row
// changes; every instance listens and drops that person's snapshots, so
// a change made on one instance is visible everywhere within one cache
// fill rather than one TTL.
type Listener struct {
	dsn    string
	cache  *Cache
	logger *slog.Logger
}

// NewListener creates a listener. It owns a dedicated connection because
// LISTEN occupies the session.
func NewListener(dsn string, cache *Cache, logger *slog.Logger) *Listener {
	return &Listener{dsn: dsn, cache: cache, logger: logger}
}

// Run listens until ctx is cancelled, reconnecting with a fixed delay
// when the connection drops. Missed notifications during a reconnect are
// covered by the snapshot TTL.
func (l *Listener) Run(ctx context.Context) error {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		l.logger.Warn("preference listener disconnected, reconnecting",
			"error", err,
			"delay", reconnectDelay,
		)
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, l.dsn)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+postgres.NotifyChannelPreferences); err != nil {
		return err
	}
	l.logger.Info("preference listener connected", "channel", postgres.NotifyChannelPreferences)

	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		personID, err := id.ParsePersonID(notification.Payload)
		if err != nil {
			l.logger.Warn("preference notification with unparseable payload",
				"payload", notification.Payload,
			)
			continue
		}
		l.cache.InvalidatePerson(ctx, personID)
		l.logger.Debug("preference snapshots invalidated", "person_id", personID)
	}
}
