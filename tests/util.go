package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
	"github.com/mergington/roster/storage/database"
	"github.com/mergington/roster/storage/database/boltdb"
	inmemdb "github.com/mergington/roster/storage/database/inmem"
	sqlxrepos "github.com/mergington/roster/storage/database/sqlx"
	"github.com/mergington/roster/storage/filestore"
)

// Backends builds one fresh, empty roster repository per store backend.
var Backends = map[string]func(t *testing.T) activity.Repository{
	"memory": func(t *testing.T) activity.Repository {
		return inmemdb.NewRosterRepository(inmemdb.Open())
	},
	"json": func(t *testing.T) activity.Repository {
		return filestore.NewRosterRepository(filestore.NewRosterFile(filepath.Join(t.TempDir(), "roster.json")))
	},
	"bolt": func(t *testing.T) activity.Repository {
		db, err := boltdb.Open(filepath.Join(t.TempDir(), "roster.bolt"))
		if err != nil {
			t.Fatalf("boltdb.Open() failed: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		return boltdb.NewRosterRepository(db)
	},
	"sqlite": func(t *testing.T) activity.Repository {
		db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "roster.db"))
		if err != nil {
			t.Fatalf("database.OpenSQLite() failed: %v", err)
		}
		t.Cleanup(func() { _ = db.Close() })
		if err = database.Migrate(context.Background(), db); err != nil {
			t.Fatalf("database.Migrate() failed: %v", err)
		}
		return sqlxrepos.NewRosterRepository(db)
	},
}

func CreateActivity(t *testing.T, repo activity.Repository, name string, maxParticipants int, participants ...string) activity.Activity {
	act := activity.Activity{
		Name:            name,
		Description:     name + " description",
		Schedule:        "Fridays, 3:30 PM - 5:00 PM",
		MaxParticipants: maxParticipants,
		Participants:    participants,
	}.Clone()
	if err := repo.CreateActivity(context.Background(), act); err != nil {
		t.Fatalf("CreateActivity() failed: %v", err)
	}
	return act
}

func CreateAccount(t *testing.T, repo teacher.AccountRepository, username, name, role, pwd string) teacher.Account {
	acct := teacher.Account{
		Username: username,
		Name:     name,
		Role:     role,
	}
	if err := acct.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	if err := repo.SaveAccount(context.Background(), acct); err != nil {
		t.Fatalf("SaveAccount() failed: %v", err)
	}
	return acct
}
