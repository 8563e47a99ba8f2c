package main

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	_ "net/http/pprof"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/checkin/apps/api/echo"
	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/attendance"
	"github.com/trezcool/checkin/core/classroom"
	"github.com/trezcool/checkin/core/history"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/seatcode"
	"github.com/trezcool/checkin/core/user"
	appfs "github.com/trezcool/checkin/fs"
	"github.com/trezcool/checkin/services/email"
	"github.com/trezcool/checkin/services/logger"
	"github.com/trezcool/checkin/services/seatcode"
	"github.com/trezcool/checkin/services/spreadsheet"
	"github.com/trezcool/checkin/storage/database"
	"github.com/trezcool/checkin/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		panic(fmt.Sprintf("setting up zap: %v", err))
	}
	logger := logsvc.NewRollbarLogger(zl.Named("API"), conf)
	logger.Enable(!conf.Debug)
	defer logger.Sync()

	dbLogger := logsvc.NewRollbarLogger(zl.Named("DB"), conf)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.Email.SendgridKey == "" {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var printer seatcode.Printer
	if conf.Seatcode.Printer == "pdf" {
		printer = seatcodesvc.NewPDFPrinter()
	} else {
		printer = seatcodesvc.NewLaTeXPrinter(conf)
	}

	roomSvc := classroom.NewService(sqlxrepos.NewClassroomRepository(db))
	rosterSvc := roster.NewService(sqlxrepos.NewRosterRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	core.ParseEmailTemplates(appfs.FS, "templates/email", conf, logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server, err := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		HealthCheck:   db.PingContext,
		UserSvc:       user.NewService(sqlxrepos.NewUserRepository(db)),
		ClassroomSvc:  roomSvc,
		RosterSvc:     rosterSvc,
		AttendanceSvc: attendance.NewService(sqlxrepos.NewAttendanceRepository(db), roomSvc, rosterSvc),
		HistorySvc: history.NewService(
			sqlxrepos.NewHistoryRepository(db),
			spreadsheetsvc.NewExcelWriter(),
			mailSvc,
		),
		SeatcodeSvc: seatcode.NewService(conf, roomSvc, seatcodesvc.NewQREncoder(), printer),
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up server: %v", err), err)
	}

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

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB, database.Dialect(conf)); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
