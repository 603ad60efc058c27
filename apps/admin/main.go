package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/aspirasi/relawan/core"
	"github.com/aspirasi/relawan/core/program"
	logsvc "github.com/aspirasi/relawan/services/logger"
	"github.com/aspirasi/relawan/storage/database"
	sqlxrepos "github.com/aspirasi/relawan/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	program.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		conf:       conf,
		db:         db.DB,
		validate:   validate,
		programSvc: program.NewService(sqlxrepos.NewProgramRepository(db), program.NewLedger(conf, logger)),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
