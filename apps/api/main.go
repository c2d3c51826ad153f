package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/mwalimu/shule/apps/api/echo"
	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/achievement"
	"github.com/mwalimu/shule/core/album"
	"github.com/mwalimu/shule/core/announcement"
	"github.com/mwalimu/shule/core/club"
	"github.com/mwalimu/shule/core/document"
	"github.com/mwalimu/shule/core/event"
	"github.com/mwalimu/shule/core/staff"
	"github.com/mwalimu/shule/core/tc"
	emailsvc "github.com/mwalimu/shule/services/email"
	logsvc "github.com/mwalimu/shule/services/logger"
	"github.com/mwalimu/shule/storage/database"
	pgrepos "github.com/mwalimu/shule/storage/database/postgres"
	"github.com/mwalimu/shule/storage/files"
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
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			logger.Error("closing database", err)
		}
	}()
	sdb := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	fileStore := files.NewStore(conf)

	tcSvc := tc.NewService(conf, pgrepos.NewTcRepository(sdb), fileStore, mailSvc, logger)
	achievementSvc := achievement.NewService(pgrepos.NewAchievementRepository(sdb), fileStore)
	albumSvc := album.NewService(pgrepos.NewAlbumRepository(sdb), fileStore)
	announcementSvc := announcement.NewService(pgrepos.NewAnnouncementRepository(sdb))
	clubSvc := club.NewService(pgrepos.NewClubRepository(sdb))
	documentSvc := document.NewService(pgrepos.NewDocumentRepository(sdb), fileStore)
	staffSvc := staff.NewService(pgrepos.NewStaffRepository(sdb), fileStore)
	eventSvc := event.NewService(pgrepos.NewEventRepository(sdb), fileStore)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			TcSvc:           tcSvc,
			AchievementSvc:  achievementSvc,
			AlbumSvc:        albumSvc,
			AnnouncementSvc: announcementSvc,
			ClubSvc:         clubSvc,
			DocumentSvc:     documentSvc,
			StaffSvc:        staffSvc,
			EventSvc:        eventSvc,
			Validate:        validate,
			Translator:      translator,
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
		ctx, cancel := context.WithTimeout(context.Background(), conf.RequestTimeout)
		defer cancel()

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

func newTranslator() ut.Translator {
	lang := en.New()
	uni := ut.New(lang, lang)
	translator, _ := uni.GetTranslator("en")
	return translator
}
