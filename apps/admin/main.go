package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/checkin/core"
	"github.com/trezcool/checkin/core/roster"
	"github.com/trezcool/checkin/core/user"
	"github.com/trezcool/checkin/services/logger"
	"github.com/trezcool/checkin/storage/database"
	"github.com/trezcool/checkin/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		panic(fmt.Sprintf("setting up zap: %v", err))
	}
	logger := logsvc.NewRollbarLogger(zl.Named("ADMIN"), conf)
	logger.Enable(false)
	defer logger.Sync()

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:        db,
		dialect:   database.Dialect(conf),
		usrSvc:    user.NewService(sqlxrepos.NewUserRepository(db)),
		rosterSvc: roster.NewService(sqlxrepos.NewRosterRepository(db)),
		validate:  validate,
		out:       os.Stdout,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
