package inmemdb

import (
	"sync"

	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
)

type (
	DB struct {
		roster   *rosterTable
		accounts *accountTable
		sessions *sessionTable
	}

	rosterTable struct {
		sync.RWMutex
		roster *activity.Roster
	}

	accountTable struct {
		sync.RWMutex
		table map[string]teacher.Account
	}

	sessionTable struct {
		sync.Mutex
		table map[string]teacher.Session
	}
)

func Open() *DB {
	return &DB{
		roster:   &rosterTable{roster: activity.NewRoster()},
		accounts: &accountTable{table: make(map[string]teacher.Account)},
		sessions: &sessionTable{table: make(map[string]teacher.Session)},
	}
}
