package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"

	"github.com/mergington/roster/apps/shared"
	"github.com/mergington/roster/core"
	"github.com/mergington/roster/storage/database"
)

var gooseRunFunc = goose.RunContext // mockable

func (cli *commandLine) migrate(ctx context.Context, args []string) error {
	if cli.db == nil {
		return shared.NewArgumentError("migrate requires the %q store backend", core.StoreSQL)
	}
	if err := goose.SetDialect(database.Dialect(cli.db.DriverName())); err != nil {
		return errors.Wrap(err, "setting goose dialect")
	}
	return gooseRunFunc(ctx, args[0], cli.db.DB, database.MigrationsDir, args[1:]...)
}
