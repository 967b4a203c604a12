package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/storage/database"
)

func (cli *commandLine) seed(ctx context.Context, path string) error {
	acts, err := activity.LoadSeedFile(path)
	if err != nil {
		return err
	}
	if cli.db != nil {
		if err = database.Migrate(ctx, cli.db); err != nil {
			return err
		}
	}

	n, err := cli.actSvc.Seed(ctx, acts)
	if err != nil {
		return errors.Wrap(err, "seeding activities")
	}
	if n == 0 {
		fmt.Fprintln(cli.out, "Store already holds activities, nothing seeded")
		return nil
	}
	fmt.Fprintf(cli.out, "Seeded %d activities\n", n)
	return nil
}
