package filestore

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/teacher"
)

// AccountsFile stores teacher accounts as a JSON object keyed by username.
type AccountsFile struct {
	path  string
	mutex sync.RWMutex
}

var _ teacher.AccountRepository = (*AccountsFile)(nil)

func NewAccountsFile(path string) *AccountsFile {
	return &AccountsFile{path: path}
}

func (f *AccountsFile) load() (map[string]teacher.Account, error) {
	accts := make(map[string]teacher.Account)
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return accts, nil
		}
		return nil, errors.Wrap(err, "reading accounts file")
	}
	if len(data) == 0 {
		return accts, nil
	}
	if err = json.Unmarshal(data, &accts); err != nil {
		return nil, errors.Wrapf(err, "decoding accounts file %s", f.path)
	}
	for uname, acct := range accts {
		acct.Username = uname
		accts[uname] = acct
	}
	return accts, nil
}

func (f *AccountsFile) GetAccount(_ context.Context, username string) (teacher.Account, error) {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	accts, err := f.load()
	if err != nil {
		return teacher.Account{}, err
	}
	if acct, ok := accts[username]; ok {
		return acct, nil
	}
	return teacher.Account{}, teacher.ErrNotFound
}

func (f *AccountsFile) SaveAccount(_ context.Context, acct teacher.Account) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	accts, err := f.load()
	if err != nil {
		return err
	}
	accts[acct.Username] = acct

	data, err := json.MarshalIndent(accts, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding accounts")
	}
	// accounts hold password hashes
	return errors.Wrap(core.WriteFileAtomic(f.path, data, 0o600), "writing accounts file")
}
