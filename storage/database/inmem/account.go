package inmemdb

import (
	"context"

	"github.com/mergington/roster/core/teacher"
)

type accountRepository struct {
	db *accountTable
}

var _ teacher.AccountRepository = (*accountRepository)(nil)

func NewAccountRepository(db *DB) teacher.AccountRepository {
	return &accountRepository{db: db.accounts}
}

func (repo *accountRepository) GetAccount(_ context.Context, username string) (teacher.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if acct, ok := repo.db.table[username]; ok {
		return acct, nil
	}
	return teacher.Account{}, teacher.ErrNotFound
}

func (repo *accountRepository) SaveAccount(_ context.Context, acct teacher.Account) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.table[acct.Username] = acct
	return nil
}
