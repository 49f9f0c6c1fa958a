package main

import (
	"context"
	"os"
	"strings"

	"github.com/labstack/gommon/bytes"
	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core/content"
	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/core/study"
)

func (cli *commandLine) subject(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		cli.printSubjects(cli.svc.VisibleSubjects(actor), cli.svc.SelectSubject(actor, ""))
		return nil

	case "add":
		s, err := cli.svc.CreateSubject(ctx, actor, study.NewSubject{Name: strings.Join(args[1:], " ")})
		if err != nil {
			return err
		}
		cli.success("subject %s created: %s", s.Name, s.ID)
		return nil

	case "show":
		var id string
		if len(args) > 1 {
			id = args[1]
		}
		id, err := cli.currentSubject(actor, id)
		if err != nil {
			return err
		}
		cli.printView(cli.svc.Visible(actor, id))
		return nil

	case "delete":
		if len(args) < 2 {
			cli.printUsage()
			return errHelp
		}
		if err := cli.svc.DeleteSubject(ctx, actor, args[1]); err != nil {
			return err
		}
		cli.success("subject deleted")
		return nil
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) resource(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	flags := cli.newFlagSet("resource " + args[0])
	subjectID := flags.StringP("subject", "s", "", "The subject (defaults to the first one).")

	switch args[0] {
	case "add":
		title := flags.StringP("title", "t", "", "The resource title.")
		typ := flags.String("type", "", "text, pdf, image, audio, video or url (inferred from --file when empty).")
		desc := flags.StringP("description", "d", "", "Text content, or the link of url resources.")
		path := flags.StringP("file", "f", "", "The file to embed (pdf, image, audio and video resources).")
		if err := parse(flags, args[1:]); err != nil {
			return err
		}
		sID, err := cli.currentSubject(actor, *subjectID)
		if err != nil {
			return err
		}
		upload, err := cli.stage(*path)
		if err != nil {
			return err
		}
		if *typ == "" && upload != nil {
			*typ = content.InferType(upload.MimeType)
		}

		r, err := cli.svc.AddResource(ctx, actor, study.NewResource{
			SubjectID:   sID,
			Title:       *title,
			Type:        study.ResourceType(*typ),
			Description: *desc,
			File:        upload,
		})
		if err != nil {
			return err
		}
		cli.success("resource %s added: %s", r.Title, r.ID)
		return nil

	case "delete":
		if err := parse(flags, args[1:]); err != nil {
			return err
		}
		if flags.NArg() != 1 {
			flags.Usage()
			return errHelp
		}
		sID, err := cli.currentSubject(actor, *subjectID)
		if err != nil {
			return err
		}
		if err := cli.svc.DeleteResource(ctx, actor, sID, flags.Arg(0)); err != nil {
			return err
		}
		cli.success("resource deleted")
		return nil

	case "open":
		out := flags.StringP("out", "o", "", "Write the content to this file.")
		if err := parse(flags, args[1:]); err != nil {
			return err
		}
		if flags.NArg() != 1 {
			flags.Usage()
			return errHelp
		}
		sID, err := cli.currentSubject(actor, *subjectID)
		if err != nil {
			return err
		}
		return cli.openResource(actor, sID, flags.Arg(0), *out)
	}
	cli.printUsage()
	return errHelp
}

// openResource decodes the embedded file of a Resource through the viewer.
func (cli *commandLine) openResource(actor principal.Principal, subjectID, id, out string) error {
	r, ok := cli.svc.Resource(subjectID, id)
	if !ok || !study.CanSee(actor, r.OwnerID, cli.svc.DesignatedStudent()) {
		return study.ErrNotFound
	}
	if !r.ContentData.Valid {
		cli.println(r.Title)
		if r.Description != "" {
			cli.println(r.Description)
		}
		return nil
	}

	defer cli.viewer.Close()
	view, err := cli.viewer.Open(r.ContentData.String)
	if err != nil {
		return cli.unavailable(r, err)
	}
	data, err := view.Bytes()
	if err != nil {
		return cli.unavailable(r, err)
	}
	cli.printf("%s %s\n", cli.styles.title.Render(r.Title), cli.styles.faint.Render(view.Ref()))
	cli.printf("%s, %s\n", view.MimeType(), bytes.Format(int64(len(data))))
	if out == "" {
		return nil
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", out)
	}
	cli.success("written to %s", out)
	return nil
}

// unavailable reports an undecodable payload as a message; other errors are returned.
func (cli *commandLine) unavailable(r study.Resource, err error) error {
	if errors.Cause(err) != content.ErrUnavailable {
		return err
	}
	cli.println(cli.styles.title.Render(r.Title))
	cli.println(cli.styles.warning.Render(content.ErrUnavailable.Error()))
	return nil
}

func (cli *commandLine) note(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	flags := cli.newFlagSet("note " + args[0])
	subjectID := flags.StringP("subject", "s", "", "The subject (defaults to the first one).")
	if err := parse(flags, args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		sID, err := cli.currentSubject(actor, *subjectID)
		if err != nil {
			return err
		}
		n, err := cli.svc.AddNote(ctx, actor, study.NewNote{SubjectID: sID, Content: strings.Join(flags.Args(), " ")})
		if err != nil {
			return err
		}
		cli.success("note added: %s", n.ID)
		return nil

	case "delete":
		if flags.NArg() != 1 {
			flags.Usage()
			return errHelp
		}
		if err := cli.svc.DeleteNote(ctx, actor, flags.Arg(0)); err != nil {
			return err
		}
		cli.success("note deleted")
		return nil
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) assignment(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) == 0 {
		cli.printUsage()
		return errHelp
	}
	flags := cli.newFlagSet("assignment " + args[0])
	subjectID := flags.StringP("subject", "s", "", "The subject (defaults to the first one).")
	title := flags.StringP("title", "t", "", "The assignment title.")
	details := flags.StringP("details", "d", "", "Details.")
	path := flags.StringP("file", "f", "", "The file handed in (only its name, type and size are kept).")
	if err := parse(flags, args[1:]); err != nil {
		return err
	}

	switch args[0] {
	case "add":
		sID, err := cli.currentSubject(actor, *subjectID)
		if err != nil {
			return err
		}
		upload, err := cli.stage(*path)
		if err != nil {
			return err
		}
		a, err := cli.svc.AddAssignment(ctx, actor, study.NewAssignment{
			SubjectID: sID,
			Title:     *title,
			Details:   *details,
			File:      upload,
		})
		if err != nil {
			return err
		}
		cli.success("assignment %s added: %s", a.Title, a.ID)
		return nil

	case "delete":
		if flags.NArg() != 1 {
			flags.Usage()
			return errHelp
		}
		if err := cli.svc.DeleteAssignment(ctx, actor, flags.Arg(0)); err != nil {
			return err
		}
		cli.success("assignment deleted")
		return nil
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) remark(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	target := study.RemarkTarget{Kind: study.RemarkTargetKind(args[0])}
	text := args[1:]
	switch target.Kind {
	case study.TargetNote, study.TargetAssignment:
		target.ID, text = args[1], args[2:]
	case study.TargetMemory:
	default:
		cli.printUsage()
		return errHelp
	}

	if _, err := cli.svc.AddRemark(ctx, actor, target, strings.Join(text, " ")); err != nil {
		return err
	}
	cli.success("remark added to %s", target)
	return nil
}

func (cli *commandLine) memory(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) == 0 {
		args = []string{"show"}
	}
	switch args[0] {
	case "show":
		m, ok := cli.svc.Memory()
		if !ok || !study.CanSee(actor, m.ModifiedBy, cli.svc.DesignatedStudent()) {
			cli.println(cli.styles.faint.Render("no memory yet"))
			return nil
		}
		cli.println(cli.styles.title.Render(m.Title))
		cli.println(cli.styles.faint.Render("last modified " + formatTime(m.LastModified) + " by " + m.ModifiedBy))
		if m.Content != "" {
			cli.println(m.Content)
		}
		cli.printRemarks(m.Remarks, "")
		return nil

	case "save":
		flags := cli.newFlagSet("memory save")
		title := flags.StringP("title", "t", "", "The memory title.")
		text := flags.StringP("content", "c", "", "The memory content.")
		if err := parse(flags, args[1:]); err != nil {
			return err
		}
		m, err := cli.svc.SaveMemory(ctx, actor, study.MemoryInput{Title: *title, Content: *text})
		if err != nil {
			return err
		}
		cli.success("memory %s saved", m.Title)
		return nil
	}
	cli.printUsage()
	return errHelp
}

func (cli *commandLine) notifications(ctx context.Context, args []string) error {
	flags := cli.newFlagSet("notifications")
	read := flags.String("read", "", "Mark this notification read.")
	clearAll := flags.Bool("clear", false, "Mark every notification read.")
	if err := parse(flags, args); err != nil {
		return err
	}

	switch {
	case *clearAll:
		cli.svc.ClearNotifications(ctx)
	case *read != "":
		if err := cli.svc.MarkNotificationRead(ctx, *read); err != nil {
			return err
		}
	}
	cli.printf("%s %d\n", cli.styles.title.Render("unread:"), cli.svc.UnreadCount())
	cli.printNotifications(cli.svc.Notifications())
	return nil
}
