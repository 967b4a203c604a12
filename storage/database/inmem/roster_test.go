package inmemdb_test

import (
	"testing"

	"github.com/mergington/roster/tests"
)

func TestRosterRepository(t *testing.T) {
	testutil.RunRosterRepositoryTests(t, testutil.Backends["memory"])
}
