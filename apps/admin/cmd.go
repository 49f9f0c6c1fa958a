package main

import (
	"errors"
	"fmt"
	"io"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/trezcool/etudes/core/principal"
	sqlxrepos "github.com/trezcool/etudes/storage/database/sqlx"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
	errNoDB = errors.New("this command needs a database storage driver (sqlite3 or postgres)")
)

type commandLine struct {
	out     io.Writer
	db      *sqlx.DB
	kv      *sqlxrepos.KVStore
	prinSvc *principal.Service
}

func (cli *commandLine) printUsage() {
	_, _ = fmt.Fprintln(cli.out, "Usage:")
	_, _ = fmt.Fprintln(cli.out, "  adduser --username USERNAME --name NAME --role student|tutor [--email EMAIL] - register a principal")
	_, _ = fmt.Fprintln(cli.out, "  resetpassword --username USERNAME - reset a principal's password")
	_, _ = fmt.Fprintln(cli.out, "  listusers - list the registered principals")
	_, _ = fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a migration command (up, down, status, ...)")
	_, _ = fmt.Fprintln(cli.out, "  slots - list the stored slot keys")
}

// promptPassword reads a password without echo. An empty answer shows usage.
func (cli *commandLine) promptPassword(prompt string, flags *pflag.FlagSet) (string, error) {
	_, _ = fmt.Fprint(cli.out, prompt)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	_, _ = fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		flags.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := pflag.NewFlagSet("adduser", pflag.ContinueOnError)
	addUserCmd.SetOutput(cli.out)
	addUserUname := addUserCmd.StringP("username", "u", "", "The principal's username. The password will be prompted next.")
	addUserName := addUserCmd.StringP("name", "n", "", "The principal's display name.")
	addUserRole := addUserCmd.StringP("role", "r", string(principal.RoleStudent), "student or tutor.")
	addUserEmail := addUserCmd.StringP("email", "e", "", "The principal's email (optional).")

	resetPasswordCmd := pflag.NewFlagSet("resetpassword", pflag.ContinueOnError)
	resetPasswordCmd.SetOutput(cli.out)
	resetPasswordUname := resetPasswordCmd.StringP("username", "u", "", "The principal's username. The password will be prompted next.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" || *addUserName == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:", addUserCmd)
		if err != nil {
			return err
		}
		confirm, err := cli.promptPassword("Confirm password:", addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(principal.NewPrincipal{
			Username:        *addUserUname,
			DisplayName:     *addUserName,
			Role:            principal.Role(*addUserRole),
			Email:           *addUserEmail,
			Password:        pwd,
			PasswordConfirm: confirm,
		})

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword("Enter password:", resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "listusers":
		return cli.listUsers()

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "slots":
		return cli.listSlots()

	default:
		cli.printUsage()
		return errHelp
	}
}
