package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/mergington/roster/apps/api/echo"
	"github.com/mergington/roster/apps/shared"
	"github.com/mergington/roster/core"
	"github.com/mergington/roster/core/activity"
	"github.com/mergington/roster/core/teacher"
	logsvc "github.com/mergington/roster/services/logger"
	"github.com/mergington/roster/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")

	ctx := context.Background()

	stores, err := shared.OpenStores(ctx, conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up stores: %v", err), err)
	}
	defer func() {
		if err = stores.Close(); err != nil {
			logger.Error("closing stores", err)
		}
	}()
	if stores.SQL != nil {
		if err = database.Migrate(ctx, stores.SQL); err != nil {
			logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
		}
	}

	actSvc := activity.NewService(stores.Roster)
	teacherSvc := teacher.NewService(stores.Accounts, stores.Sessions, conf.Auth.SessionTTL)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	teacher.InitValidators(validate, translator)

	seed, err := activity.LoadSeedFile(conf.Store.SeedFile)
	if err != nil {
		logger.Fatal(fmt.Sprintf("loading seed activities: %v", err), err)
	}
	n, err := actSvc.Seed(ctx, seed)
	if err != nil {
		logger.Fatal(fmt.Sprintf("seeding activities: %v", err), err)
	}
	if n > 0 {
		logger.Info(fmt.Sprintf("Seeded %d activities into the %s store", n, conf.Store.Backend))
	}

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("store").Set(conf.Store.Backend)

	if conf.Server.DebugAddress != "" {
		go func() {
			if err := http.ListenAndServe(conf.Server.DebugAddress, http.DefaultServeMux); err != nil {
				logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
			}
		}()
	}

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.Deps{
			Conf:        conf,
			Logger:      logger,
			ActivitySvc: actSvc,
			TeacherSvc:  teacherSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(ctx, conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
