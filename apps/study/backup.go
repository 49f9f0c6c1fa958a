package main

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/storage/backup"
)

func (cli *commandLine) export(actor principal.Principal, args []string) error {
	flags := cli.newFlagSet("export")
	out := flags.StringP("out", "o", "", "The backup file to write.")
	encrypt := flags.BoolP("encrypt", "e", false, "Encrypt the backup with a passphrase (prompted).")
	if err := parse(flags, args); err != nil {
		return err
	}
	if *out == "" {
		flags.Usage()
		return errHelp
	}

	var passphrase string
	if *encrypt {
		var err error
		if passphrase, err = cli.promptPassword("Passphrase:"); err != nil {
			return err
		}
		confirm, err := cli.promptPassword("Confirm passphrase:")
		if err != nil {
			return err
		}
		if passphrase == "" || passphrase != confirm {
			return errors.New("passphrases are empty or do not match")
		}
	}

	f, err := os.OpenFile(*out, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return errors.Wrap(err, "creating backup file")
	}
	if err := backup.Export(f, cli.svc.Snapshot(), actor.ID, passphrase); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing backup file")
	}
	cli.success("backup written to %s", *out)
	return nil
}

func (cli *commandLine) importBackup(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) != 1 {
		cli.printUsage()
		return errHelp
	}
	f, err := os.Open(args[0])
	if err != nil {
		return errors.Wrap(err, "opening backup file")
	}
	defer func() { _ = f.Close() }()

	arch, err := backup.Import(f, "")
	if errors.Cause(err) == backup.ErrPassphraseRequired {
		if _, err = f.Seek(0, 0); err != nil {
			return errors.Wrap(err, "rewinding backup file")
		}
		passphrase, perr := cli.promptPassword("Passphrase:")
		if perr != nil {
			return perr
		}
		arch, err = backup.Import(f, passphrase)
	}
	if err != nil {
		return err
	}

	isPrincipal := func(id string) bool { return cli.prinSvc.IsPrincipal(ctx, id) }
	if err := cli.svc.Restore(ctx, actor, arch.Document, isPrincipal); err != nil {
		return err
	}
	cli.success("backup of %s by %s restored", formatTime(arch.ExportedAt), arch.ExportedBy)
	return nil
}
