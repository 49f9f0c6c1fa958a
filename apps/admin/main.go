package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
	logsvc "github.com/trezcool/etudes/services/logger"
	"github.com/trezcool/etudes/storage/credentials"
	"github.com/trezcool/etudes/storage/database"
	sqlxrepos "github.com/trezcool/etudes/storage/database/sqlx"
)

var logger *logsvc.RollbarLogger

func main() {
	conf := core.NewConfig()
	logger = logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	defer logger.Close()

	// registry
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)
	repo := credentials.NewFileRepository(conf.Path(conf.CredentialsFile))

	cli := commandLine{
		out:     os.Stdout,
		prinSvc: principal.NewService(repo, validate, translator),
	}

	// set up DB (slot storage)
	if conf.Storage.Driver != "memory" {
		db, err := database.Open(conf)
		errAndDie(err)
		defer func(db *sqlx.DB) { _ = db.Close() }(db)
		errAndDie(database.SetDialect(db.DriverName()))
		cli.db = db
		cli.kv = sqlxrepos.NewKVStore(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		logger.Close()
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
