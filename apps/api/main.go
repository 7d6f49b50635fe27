package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/inaciofernandocosta/ignite-corp-catalog-sub001/apps/api/echo"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/course"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/enrollment"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/core/user"
	emailsvc "github.com/inaciofernandocosta/ignite-corp-catalog-sub001/services/email"
	logsvc "github.com/inaciofernandocosta/ignite-corp-catalog-sub001/services/logger"
	"github.com/inaciofernandocosta/ignite-corp-catalog-sub001/storage/database"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = core.NewStdLogger(std)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(std, core.Conf)
		rollbarLogger.Enable(true)
		logger = rollbarLogger
	}

	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer func() { _ = db.Close() }()

	if err = database.Ping(db); err != nil {
		logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
	}

	// change feed (LISTEN/NOTIFY)
	listener, err := database.NewListener(core.Conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("starting change listener: %v", err), err)
	}
	defer func() { _ = listener.Close() }()

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrRepo := database.NewUserRepository(db)
	crsRepo := database.NewCourseRepository(db)
	enrRepo := database.NewEnrollmentRepository(db)

	usrSvc := user.NewService(usrRepo, mailSvc)
	crsSvc := course.NewService(crsRepo)
	enrSvc := enrollment.NewService(enrRepo, mailSvc)

	registry := enrollment.NewRegistry(enrSvc, enrRepo, listener, logger)
	defer registry.Close()

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", core.Conf.Build))
	defer logger.Info("Application stopped")

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:       core.Conf.Server.Addr(),
			Logger:        logger,
			UserSvc:       usrSvc,
			CourseSvc:     crsSvc,
			EnrollmentSvc: enrSvc,
			Registry:      registry,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.Start()
	}()

	// =========================================================================
	// Shutdown

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err = <-serverErrors:
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case <-app.ShutdownRequested():
		logger.Info("integrity error: Start shutdown...")
		stop(app, logger)

	case sig := <-shutdown:
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		stop(app, logger)
	}
}

// stop gives outstanding requests a deadline for completion.
func stop(app echoapi.Server, logger core.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
	defer cancel()

	if err := app.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}
