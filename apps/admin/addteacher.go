package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/mergington/roster/core/teacher"
)

// addTeacher creates a teacher.Account, or replaces the one with the same username.
func (cli *commandLine) addTeacher(ctx context.Context, uname, name, pwd, confirm string, isAdmin bool) error {
	na := teacher.NewAccount{
		Username:        uname,
		Name:            name,
		Role:            teacher.RoleTeacher,
		Password:        pwd,
		PasswordConfirm: confirm,
	}
	if isAdmin {
		na.Role = teacher.RoleAdmin
	}
	if err := na.Validate(cli.validate); err != nil {
		return err
	}

	acct, err := cli.teacherSvc.Create(ctx, na)
	if err != nil {
		return errors.Wrap(err, "creating account")
	}
	fmt.Fprintf(cli.out, "Saved %s account %q\n", acct.Role, acct.Username)
	return nil
}
