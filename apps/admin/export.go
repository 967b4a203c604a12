package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/mergington/roster/services/spreadsheet"
)

func (cli *commandLine) export(ctx context.Context, path string) error {
	acts, err := cli.actSvc.List(ctx)
	if err != nil {
		return errors.Wrap(err, "querying activities")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	if err = spreadsheet.Export(f, acts); err != nil {
		_ = f.Close()
		return errors.Wrap(err, "exporting roster")
	}
	if err = f.Close(); err != nil {
		return errors.Wrap(err, "closing output file")
	}
	fmt.Fprintf(cli.out, "Exported %d activities to %s\n", len(acts), path)
	return nil
}
