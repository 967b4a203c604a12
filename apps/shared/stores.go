package shared

import (
	"context"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
	"github.com/mergington/roster/storage/database"
	"github.com/mergington/roster/storage/database/boltdb"
	inmemdb "github.com/mergington/roster/storage/database/inmem"
	sqlxrepos "github.com/mergington/roster/storage/database/sqlx"
	"github.com/mergington/roster/storage/filestore"
	redisstore "github.com/mergington/roster/storage/session/redis"
)

// Stores holds the roster, account and session stores selected by the config.
type Stores struct {
	Roster   activity.Repository
	Accounts teacher.AccountRepository
	Sessions teacher.SessionStore
	SQL      *sqlx.DB // nil unless the sql backend is selected

	closers []io.Closer
}

// Close closes the stores in reverse opening order and returns the first error.
func (s *Stores) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// OpenStores opens the stores selected by conf. SQL databases are not migrated.
func OpenStores(ctx context.Context, conf *core.Config) (*Stores, error) {
	s := new(Stores)
	mem := inmemdb.Open()

	switch conf.Store.Backend {
	case core.StoreMemory:
		s.Roster = inmemdb.NewRosterRepository(mem)
	case core.StoreJSON:
		s.Roster = filestore.NewRosterRepository(filestore.NewRosterFile(conf.Store.Path))
	case core.StoreBolt:
		db, err := boltdb.Open(conf.Store.Path)
		if err != nil {
			return nil, errors.Wrap(err, "opening bolt store")
		}
		s.closers = append(s.closers, db)
		s.Roster = boltdb.NewRosterRepository(db)
	case core.StoreSQL:
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening database")
		}
		s.closers = append(s.closers, db)
		s.SQL = db
		s.Roster = sqlxrepos.NewRosterRepository(db)
	default:
		return nil, NewArgumentError("unknown store backend %q", conf.Store.Backend)
	}

	s.Accounts = filestore.NewAccountsFile(conf.Auth.AccountsFile)

	switch conf.Auth.SessionBackend {
	case core.SessionsMemory:
		s.Sessions = inmemdb.NewSessionStore(mem)
	case core.SessionsRedis:
		client, err := redisstore.NewClient(ctx, conf.Redis)
		if err != nil {
			_ = s.Close()
			return nil, errors.Wrap(err, "connecting to redis")
		}
		s.closers = append(s.closers, client)
		s.Sessions = redisstore.NewSessionStore(client, conf.Redis.KeyPrefix)
	default:
		_ = s.Close()
		return nil, NewArgumentError("unknown session backend %q", conf.Auth.SessionBackend)
	}
	return s, nil
}
