package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"golang.org/x/term"

	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	actSvc     *activity.Service
	teacherSvc *teacher.Service
	validate   *validator.Validate
	translator ut.Translator
	db         *sqlx.DB // nil unless the sql store backend is selected
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  addteacher -username USERNAME -name NAME [-admin] - create or replace a teacher account")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME - reset a teacher's password")
	fmt.Fprintln(cli.out, "  seed [-file PATH] - seed an empty store with activities")
	fmt.Fprintln(cli.out, "  export [-o PATH] - export the roster to an XLSX file")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose migration command (sql store only)")
}

func (cli *commandLine) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return errHelp
		}
		return err
	}
	return nil
}

// readPassword prompts for a password without echoing it.
func (cli *commandLine) readPassword(prompt string) (string, error) {
	fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
	fmt.Fprintln(cli.out)
	return string(pwd), err
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addTeacherCmd := cli.newFlagSet("addteacher")
	addTeacherUname := addTeacherCmd.String("username", "", "The teacher's username. The password will be prompted next.")
	addTeacherName := addTeacherCmd.String("name", "", "The teacher's display name.")
	addTeacherAdmin := addTeacherCmd.Bool("admin", false, "Give the teacher the admin role.")

	resetPasswordCmd := cli.newFlagSet("resetpassword")
	resetPasswordUname := resetPasswordCmd.String("username", "", "The teacher's username. The password will be prompted next.")

	seedCmd := cli.newFlagSet("seed")
	seedFile := seedCmd.String("file", "", "A JSON object of activity name to activity. Built-in activities otherwise.")

	exportCmd := cli.newFlagSet("export")
	exportPath := exportCmd.String("o", "roster.xlsx", "The output file.")

	switch args[1] {
	case "addteacher":
		if err := parseFlags(addTeacherCmd, args[2:]); err != nil {
			return err
		}
		if *addTeacherUname == "" || *addTeacherName == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			addTeacherCmd.Usage()
			return errHelp
		}
		confirm, err := cli.readPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.addTeacher(ctx, *addTeacherUname, *addTeacherName, pwd, confirm, *addTeacherAdmin)

	case "resetpassword":
		if err := parseFlags(resetPasswordCmd, args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword("Enter password:")
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		confirm, err := cli.readPassword("Confirm password:")
		if err != nil {
			return err
		}
		return cli.resetPassword(ctx, *resetPasswordUname, pwd, confirm)

	case "seed":
		if err := parseFlags(seedCmd, args[2:]); err != nil {
			return err
		}
		return cli.seed(ctx, *seedFile)

	case "export":
		if err := parseFlags(exportCmd, args[2:]); err != nil {
			return err
		}
		return cli.export(ctx, *exportPath)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(ctx, args[2:])

	default:
		cli.printUsage()
		return errHelp
	}
}

// describeError renders validation errors one field per line.
func (cli *commandLine) describeError(err error) string {
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(vErrs))
	for _, vErr := range vErrs {
		msgs = append(msgs, vErr.Translate(cli.translator))
	}
	return strings.Join(msgs, "\n")
}
