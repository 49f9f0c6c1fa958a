package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"golang.org/x/term"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/content"
	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/core/session"
	"github.com/trezcool/etudes/core/study"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type (
	cliParams struct {
		dig.In
		Config     *core.Config
		Logger     core.Logger
		Principals *principal.Service
		Study      *study.Service
		Session    *session.Context
		Stager     *content.Stager
		Viewer     *content.Viewer
	}

	commandLine struct {
		in      *bufio.Reader
		out     io.Writer
		conf    *core.Config
		logger  core.Logger
		prinSvc *principal.Service
		svc     *study.Service
		sess    *session.Context
		stager  *content.Stager
		viewer  *content.Viewer
		styles  styles
	}
)

func newCommandLine(p cliParams) *commandLine {
	return &commandLine{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		conf:    p.Config,
		logger:  p.Logger,
		prinSvc: p.Principals,
		svc:     p.Study,
		sess:    p.Session,
		stager:  p.Stager,
		viewer:  p.Viewer,
	}
}

func (cli *commandLine) printUsage() {
	cli.println("Usage:")
	cli.println("  login --username USERNAME - log in (the password is prompted)")
	cli.println("  logout | whoami")
	cli.println("  profile [--name NAME] [--email EMAIL] [--bio BIO] - show or edit your profile")
	cli.println("  passwd - change your password")
	cli.println("  theme [dark|light|toggle]")
	cli.println("  subject list | add NAME | show [ID] | delete ID")
	cli.println("  resource add --title TITLE --type TYPE [--subject ID] [--description TEXT] [--file PATH]")
	cli.println("  resource delete|open RESOURCE_ID [--subject ID] [--out PATH]")
	cli.println("  note add [--subject ID] TEXT | note delete ID")
	cli.println("  assignment add --title TITLE [--subject ID] [--details TEXT] [--file PATH] | assignment delete ID")
	cli.println("  remark note|assignment ID TEXT | remark memory TEXT")
	cli.println("  memory show | memory save --title TITLE [--content TEXT]")
	cli.println("  quiz list | show ID | create --title TITLE --question 'Q|A|B|C|D|CORRECT' ... | take ID [--answers 0,2,...] | delete ID")
	cli.println("  notifications [--read ID] [--clear]")
	cli.println("  export --out PATH [--encrypt] | import PATH")
}

func (cli *commandLine) run(args []string) error {
	cli.styles = newStyles(cli.out, cli.sess.Theme())
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	ctx := context.Background()
	cmd, rest := args[1], args[2:]
	switch cmd {
	case "login":
		return cli.login(ctx, rest)
	case "theme":
		return cli.theme(ctx, rest)
	case "help", "-h", "--help":
		cli.printUsage()
		return errHelp
	}

	// the other commands need a session
	actor, err := cli.sess.Principal()
	if err != nil {
		return err
	}
	switch cmd {
	case "logout":
		cli.sess.Logout(ctx)
		cli.println(cli.styles.success.Render("logged out"))
		return nil
	case "whoami":
		return cli.whoami(actor)
	case "profile":
		return cli.profile(ctx, actor, rest)
	case "passwd":
		return cli.passwd(ctx, actor)
	case "subject":
		return cli.subject(ctx, actor, rest)
	case "resource":
		return cli.resource(ctx, actor, rest)
	case "note":
		return cli.note(ctx, actor, rest)
	case "assignment":
		return cli.assignment(ctx, actor, rest)
	case "remark":
		return cli.remark(ctx, actor, rest)
	case "memory":
		return cli.memory(ctx, actor, rest)
	case "quiz":
		return cli.quiz(ctx, actor, rest)
	case "notifications":
		return cli.notifications(ctx, rest)
	case "export":
		return cli.export(actor, rest)
	case "import":
		return cli.importBackup(ctx, actor, rest)
	default:
		cli.printUsage()
		return errHelp
	}
}

// newFlagSet returns a flag set that reports parse errors instead of exiting.
func (cli *commandLine) newFlagSet(name string) *pflag.FlagSet {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flags.SetOutput(cli.out)
	return flags
}

// parse parses args; a parse error shows usage.
func parse(flags *pflag.FlagSet, args []string) error {
	if err := flags.Parse(args); err != nil {
		return errHelp
	}
	return nil
}

// prompt reads one line from the input.
func (cli *commandLine) prompt(label string) (string, error) {
	cli.printf("%s", label)
	line, err := cli.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", errors.Wrap(err, "reading input")
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads a password without echo.
func (cli *commandLine) promptPassword(label string) (string, error) {
	cli.printf("%s", label)
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	cli.println()
	if err != nil {
		return "", errors.Wrap(err, "reading password")
	}
	return string(pwd), nil
}

// currentSubject resolves the --subject flag: the given Subject if visible, else the first visible one.
func (cli *commandLine) currentSubject(actor principal.Principal, id string) (string, error) {
	selected := cli.svc.SelectSubject(actor, id)
	if selected == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "subjectId", Error: "no subject available"})
	}
	if id != "" && selected != id {
		return "", core.NewValidationError(nil, core.FieldError{Field: "subjectId", Error: "subject not found"})
	}
	return selected, nil
}

// stage reads the file at path in the background and waits for it.
func (cli *commandLine) stage(path string) (*content.Upload, error) {
	if path == "" {
		return nil, nil
	}
	done, err := cli.stager.Stage(path)
	if err != nil {
		return nil, err
	}
	cli.println(cli.styles.faint.Render("uploading " + path + "..."))
	res := <-done
	if res.Err != nil {
		return nil, res.Err
	}
	return &res.Upload, nil
}

func (cli *commandLine) success(format string, args ...interface{}) {
	cli.println(cli.styles.success.Render(fmt.Sprintf(format, args...)))
}

func validationError(err error) (*core.ValidationError, bool) {
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	return vErr, ok
}
