package main

import (
	"context"
	"strconv"

	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/core/session"
)

func (cli *commandLine) login(ctx context.Context, args []string) error {
	flags := cli.newFlagSet("login")
	uname := flags.StringP("username", "u", "", "Your username. The password will be prompted next.")
	if err := parse(flags, args); err != nil {
		return err
	}
	if *uname == "" {
		flags.Usage()
		return errHelp
	}
	pwd, err := cli.promptPassword("Password:")
	if err != nil {
		return err
	}

	p, err := cli.sess.Login(ctx, *uname, pwd)
	if err != nil {
		return err
	}
	cli.success("welcome %s (%s)", p.DisplayName, p.Role)
	if n := cli.svc.UnreadCount(); n > 0 {
		cli.printf("%s\n", cli.styles.info.Render("unread notifications: ")+cli.styles.title.Render(strconv.Itoa(n)))
	}
	return nil
}

func (cli *commandLine) whoami(p principal.Principal) error {
	cli.println(cli.styles.title.Render(p.DisplayName) + " " + cli.styles.faint.Render("@"+p.ID+", "+string(p.Role)))
	if p.Email != "" {
		cli.println("email: " + p.Email)
	}
	if p.Bio != "" {
		cli.println("bio:   " + p.Bio)
	}
	if p.IsTutor() {
		designated := cli.svc.DesignatedStudent()
		if designated == "" {
			designated = "none"
		}
		cli.println(cli.styles.faint.Render("reviewing: " + designated))
	}
	return nil
}

func (cli *commandLine) profile(ctx context.Context, actor principal.Principal, args []string) error {
	flags := cli.newFlagSet("profile")
	name := flags.String("name", "", "New display name.")
	email := flags.String("email", "", "New email.")
	bio := flags.String("bio", "", "New bio.")
	if err := parse(flags, args); err != nil {
		return err
	}
	if flags.NFlag() == 0 {
		return cli.whoami(actor)
	}

	p, err := cli.prinSvc.UpdateProfile(ctx, actor.ID, principal.UpdateProfile{DisplayName: *name, Email: *email, Bio: *bio})
	if err != nil {
		return err
	}
	if err := cli.sess.Refresh(ctx, p); err != nil {
		return err
	}
	cli.success("profile updated")
	return cli.whoami(p)
}

func (cli *commandLine) passwd(ctx context.Context, actor principal.Principal) error {
	var (
		cp  principal.ChangePassword
		err error
	)
	if cp.Current, err = cli.promptPassword("Current password:"); err != nil {
		return err
	}
	if cp.Password, err = cli.promptPassword("New password:"); err != nil {
		return err
	}
	if cp.PasswordConfirm, err = cli.promptPassword("Confirm new password:"); err != nil {
		return err
	}

	p, err := cli.prinSvc.ChangePassword(ctx, actor.ID, cp)
	if err != nil {
		return err
	}
	if err := cli.sess.Refresh(ctx, p); err != nil {
		return err
	}
	cli.success("password changed")
	return nil
}

func (cli *commandLine) theme(ctx context.Context, args []string) error {
	if len(args) == 0 {
		cli.println(string(cli.sess.Theme()))
		return nil
	}
	var t session.Theme
	if args[0] == "toggle" {
		t = cli.sess.ToggleTheme(ctx)
	} else {
		t = session.Theme(args[0])
		if err := cli.sess.SetTheme(ctx, t); err != nil {
			return err
		}
	}
	cli.styles = newStyles(cli.out, t)
	cli.success("theme: %s", t)
	return nil
}
