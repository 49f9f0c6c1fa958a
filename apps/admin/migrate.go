package main

import (
	"context"
	"fmt"

	"github.com/trezcool/goose"

	"github.com/trezcool/etudes/fs"
	"github.com/trezcool/etudes/storage/database"
)

var gooseRunFunc = goose.RunFS // mockable

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDB
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], cli.db.DB, appfs.FS, database.MigrationsDir, arguments...)
}

func (cli *commandLine) listSlots() error {
	if cli.kv == nil {
		return errNoDB
	}
	keys, err := cli.kv.Keys(context.Background())
	if err != nil {
		return err
	}
	for _, k := range keys {
		_, _ = fmt.Fprintln(cli.out, k)
	}
	return nil
}
