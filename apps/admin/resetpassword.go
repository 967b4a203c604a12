package main

import (
	"context"
	"fmt"

	"github.com/mergington/roster/core/teacher"
)

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd, confirm string) error {
	acct, err := cli.teacherSvc.Get(ctx, uname)
	if err != nil {
		return err
	}
	rp := teacher.ResetPassword{Password: pwd, PasswordConfirm: confirm}
	if err = rp.Validate(cli.validate, acct); err != nil {
		return err
	}
	if err = cli.teacherSvc.ResetPassword(ctx, acct, rp); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "Password of %q reset\n", acct.Username)
	return nil
}
