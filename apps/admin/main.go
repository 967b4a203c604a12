package main

import (
	"context"
	"log"
	"os"

	"github.com/mergington/roster/apps/shared"
	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	ctx := context.Background()

	conf, err := core.NewConfig()
	errAndDie(err)
	// sessions are an API concern
	conf.Auth.SessionBackend = core.SessionsMemory

	stores, err := shared.OpenStores(ctx, conf)
	errAndDie(err)

	validate, translator := core.NewValidator()
	teacher.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		actSvc:     activity.NewService(stores.Roster),
		teacherSvc: teacher.NewService(stores.Accounts, stores.Sessions, conf.Auth.SessionTTL),
		validate:   validate,
		translator: translator,
		db:         stores.SQL,
		out:        os.Stdout,
	}
	err = cli.run(ctx, os.Args)
	if closeErr := stores.Close(); closeErr != nil {
		logger.Printf("closing stores: %v", closeErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", cli.describeError(err))
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
