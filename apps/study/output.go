package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/session"
	"github.com/trezcool/etudes/core/study"
)

type styles struct {
	title   lipgloss.Style
	faint   lipgloss.Style
	id      lipgloss.Style
	remark  lipgloss.Style
	success lipgloss.Style
	info    lipgloss.Style
	warning lipgloss.Style
	error   lipgloss.Style
}

// newStyles returns the styles of theme, for output written to w.
func newStyles(w io.Writer, theme session.Theme) styles {
	r := lipgloss.NewRenderer(w)
	r.SetHasDarkBackground(theme == session.ThemeDark)

	fg := func(light, dark string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: light, Dark: dark})
	}
	return styles{
		title:   fg("#1F2937", "#F9FAFB").Bold(true),
		faint:   fg("#6B7280", "#9CA3AF"),
		id:      fg("#7C3AED", "#C4B5FD"),
		remark:  fg("#B45309", "#FCD34D").Italic(true),
		success: fg("#047857", "#6EE7B7"),
		info:    fg("#1D4ED8", "#93C5FD"),
		warning: fg("#B45309", "#FCD34D"),
		error:   fg("#B91C1C", "#FCA5A5").Bold(true),
	}
}

func (s styles) notification(typ study.NotificationType) lipgloss.Style {
	switch typ {
	case study.NotificationSuccess:
		return s.success
	case study.NotificationWarning:
		return s.warning
	case study.NotificationError:
		return s.error
	}
	return s.info
}

func (cli *commandLine) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cli.out, format, args...)
}

func (cli *commandLine) println(args ...interface{}) {
	_, _ = fmt.Fprintln(cli.out, args...)
}

func formatTime(ts core.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Time().Local().Format("2006-01-02 15:04")
}

func (cli *commandLine) printRemarks(remarks []study.Remark, indent string) {
	for _, r := range remarks {
		cli.println(indent + cli.styles.remark.Render(fmt.Sprintf("> %s (%s, %s)", r.Content, r.AuthorID, formatTime(r.Timestamp))))
	}
}

func (cli *commandLine) printSubjects(subjects []study.Subject, selected string) {
	if len(subjects) == 0 {
		cli.println(cli.styles.faint.Render("no subjects"))
		return
	}
	for _, s := range subjects {
		marker := " "
		if s.ID == selected {
			marker = "*"
		}
		cli.printf("%s %s  %s %s\n", marker, cli.styles.id.Render(s.ID), s.Name,
			cli.styles.faint.Render(fmt.Sprintf("(%s, %d resources)", s.OwnerID, len(s.Resources))))
	}
}

func (cli *commandLine) printView(v study.View) {
	cli.println(cli.styles.title.Render(v.Subject.Name))

	cli.println(cli.styles.title.Render("Resources"))
	if len(v.Resources) == 0 {
		cli.println(cli.styles.faint.Render("  none"))
	}
	for _, r := range v.Resources {
		line := fmt.Sprintf("  %s [%s] %s", cli.styles.id.Render(r.ID), r.Type, r.Title)
		if r.MimeType.Valid {
			line += cli.styles.faint.Render(" " + r.MimeType.String)
		}
		cli.println(line)
		if r.Description != "" {
			cli.println("    " + r.Description)
		}
	}

	cli.println(cli.styles.title.Render("Notes"))
	if len(v.Notes) == 0 {
		cli.println(cli.styles.faint.Render("  none"))
	}
	for _, n := range v.Notes {
		cli.printf("  %s %s %s\n", cli.styles.id.Render(n.ID), cli.styles.faint.Render(formatTime(n.Timestamp)), n.Content)
		cli.printRemarks(n.Remarks, "    ")
	}

	cli.println(cli.styles.title.Render("Assignments"))
	if len(v.Assignments) == 0 {
		cli.println(cli.styles.faint.Render("  none"))
	}
	for _, a := range v.Assignments {
		cli.printf("  %s %s %s\n", cli.styles.id.Render(a.ID), cli.styles.faint.Render(formatTime(a.Date)), a.Title)
		if a.Details != "" {
			cli.println("    " + a.Details)
		}
		if a.FileInfo != nil {
			cli.println(cli.styles.faint.Render(fmt.Sprintf("    file: %s (%s, %s)", a.FileInfo.Name, a.FileInfo.MimeType, a.FileInfo.SizeLabel)))
		}
		cli.printRemarks(a.Remarks, "    ")
	}
}

func (cli *commandLine) printNotifications(ns []study.Notification) {
	if len(ns) == 0 {
		cli.println(cli.styles.faint.Render("no notifications"))
		return
	}
	for _, n := range ns {
		marker := "•"
		if n.Read {
			marker = " "
		}
		cli.printf("%s %s %s %s\n", marker, cli.styles.id.Render(n.ID), cli.styles.faint.Render(formatTime(n.Timestamp)),
			cli.styles.notification(n.Type).Render(n.Message))
	}
}

// printError presents err; validation errors are listed field by field.
func (cli *commandLine) printError(err error) {
	if vErr, ok := validationError(err); ok && len(vErr.Fields) > 0 {
		msgs := make([]string, 0, len(vErr.Fields))
		for _, f := range vErr.Fields {
			msgs = append(msgs, fmt.Sprintf("  %s: %s", f.Field, f.Error))
		}
		cli.println(cli.styles.error.Render("invalid input") + "\n" + strings.Join(msgs, "\n"))
		return
	}
	cli.println(cli.styles.error.Render("error: " + err.Error()))
}
