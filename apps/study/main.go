package main

import (
	"os"

	"github.com/trezcool/etudes/core"
)

func main() {
	c := newContainer(core.NewConfig())

	code := 0
	must(c.Invoke(func(cli *commandLine, kv core.KVStore, logger core.Logger) {
		defer func() { _ = kv.Close() }()
		if l, ok := logger.(interface{ Close() }); ok {
			defer l.Close()
		}

		if err := cli.run(os.Args); err != nil {
			if err != errHelp {
				cli.printError(err)
				if !core.IsValidationError(err) {
					logger.Debug("command failed", err)
				}
			}
			code = 1
		}
	}))
	os.Exit(code)
}
