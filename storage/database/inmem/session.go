package inmemdb

import (
	"context"

	"github.com/mergington/roster/core/teacher"
)

type sessionStore struct {
	db *sessionTable
}

var _ teacher.SessionStore = (*sessionStore)(nil)

// NewSessionStore returns a SessionStore that lives as long as the process.
func NewSessionStore(db *DB) teacher.SessionStore {
	return &sessionStore{db: db.sessions}
}

// SaveSession also sweeps expired sessions.
func (s *sessionStore) SaveSession(_ context.Context, sess teacher.Session) error {
	s.db.Lock()
	defer s.db.Unlock()

	now := teacher.NowFunc()
	for token, old := range s.db.table {
		if old.Expired(now) {
			delete(s.db.table, token)
		}
	}
	s.db.table[sess.Token] = sess
	return nil
}

func (s *sessionStore) GetSession(_ context.Context, token string) (teacher.Session, error) {
	s.db.Lock()
	defer s.db.Unlock()

	if sess, ok := s.db.table[token]; ok {
		return sess, nil
	}
	return teacher.Session{}, teacher.ErrSessionNotFound
}

func (s *sessionStore) DeleteSession(_ context.Context, token string) error {
	s.db.Lock()
	defer s.db.Unlock()
	delete(s.db.table, token)
	return nil
}
