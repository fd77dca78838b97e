package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	echoapi "github.com/tutorlink/backend/apps/api/echo"
	"github.com/tutorlink/backend/core"
	"github.com/tutorlink/backend/core/directory"
	"github.com/tutorlink/backend/core/session"
	"github.com/tutorlink/backend/core/user"
	emailsvc "github.com/tutorlink/backend/services/email"
	logsvc "github.com/tutorlink/backend/services/logger"
	"github.com/tutorlink/backend/storage/database"
	sqlxrepos "github.com/tutorlink/backend/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.Conf

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	sqlxDB := sqlxrepos.NewDB(db, conf.Database.Engine)
	usrRepo := sqlxrepos.NewUserRepository(sqlxDB)
	dirRepo := sqlxrepos.NewDirectoryRepository(sqlxDB)
	sessRepo := sqlxrepos.NewSessionRepository(sqlxDB)

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrSvc := user.NewService(usrRepo, mailSvc, conf)
	dirSvc := directory.NewService(dirRepo, logger)
	sessSvc := session.NewService(sessRepo, usrRepo, dirRepo, mailSvc, logger)

	// =========================================================================
	// Start API Service

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	server := echoapi.NewServer(
		&echoapi.Options{
			Address:      conf.Server.Address(),
			Logger:       logger,
			UserSvc:      usrSvc,
			DirectorySvc: dirSvc,
			SessionSvc:   sessSvc,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sql.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}
