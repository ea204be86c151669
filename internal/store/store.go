package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/voc-cli/internal/config"
	"github.com/sells-group/voc-cli/internal/model"
)

// ErrNotFound is returned when a session id has no row.
var ErrNotFound = eris.New("session not found")

// Store persists wizard sessions.
type Store interface {
	// SaveSession inserts the session or replaces its state.
	SaveSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	ListSessions(ctx context.Context, filter model.SessionFilter) ([]model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	// PruneSessions deletes sessions last updated before cutoff.
	PruneSessions(ctx context.Context, cutoff time.Time) (int, error)

	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store selected by cfg.Driver and migrates it. The "none"
// driver returns a nil Store.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "", "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "voc.db"
		}
		st, err = NewSQLite(dsn)
	case "postgres":
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

const defaultListLimit = 100

func listLimit(filter model.SessionFilter) int {
	if filter.Limit <= 0 {
		return defaultListLimit
	}
	return filter.Limit
}
