// Package filestore persists the roster and the teacher accounts as JSON files.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/pkg/errors"

	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/storage/database/snapshot"
)

const filePerm = 0o644

// RosterFile keeps the whole roster in one JSON file.
// Every mutation reloads the file, applies the change and atomically replaces the file.
type RosterFile struct {
	path  string
	mutex sync.RWMutex
}

var _ snapshot.Backend = (*RosterFile)(nil)

func NewRosterFile(path string) *RosterFile {
	return &RosterFile{path: path}
}

func NewRosterRepository(f *RosterFile) activity.Repository {
	return snapshot.NewRosterRepository(f)
}

func (f *RosterFile) load() (*activity.Roster, error) {
	r := activity.NewRoster()
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, errors.Wrap(err, "reading roster file")
	}
	if len(data) == 0 {
		return r, nil
	}
	if err = json.Unmarshal(data, r); err != nil {
		return nil, errors.Wrapf(core.NewShutdownError("corrupt roster file: "+err.Error()), "decoding roster file %s", f.path)
	}
	r.Init()
	return r, nil
}

func (f *RosterFile) save(r *activity.Roster) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding roster")
	}
	return errors.Wrap(core.WriteFileAtomic(f.path, data, filePerm), "writing roster file")
}

func (f *RosterFile) View(_ context.Context, fn func(r *activity.Roster) error) error {
	f.mutex.RLock()
	defer f.mutex.RUnlock()

	r, err := f.load()
	if err != nil {
		return err
	}
	return fn(r)
}

func (f *RosterFile) Update(_ context.Context, fn func(r *activity.Roster) error) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	r, err := f.load()
	if err != nil {
		return err
	}
	if err = fn(r); err != nil {
		return err
	}
	return f.save(r)
}
