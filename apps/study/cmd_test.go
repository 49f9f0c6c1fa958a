package main

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/core/session"
	"github.com/trezcool/etudes/core/study"
	"github.com/trezcool/etudes/storage/backup"
	"github.com/trezcool/etudes/storage/credentials"
	"github.com/trezcool/etudes/tests"
)

const pwd = "Passw0rd!"

var anna = principal.Principal{ID: "anna", Role: principal.RoleStudent}

func init() {
	backup.ScryptWorkFactor = 10
}

type fixture struct {
	cli    *commandLine
	out    *bytes.Buffer
	logger *testutil.Logger
	dir    string
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	conf := &core.Config{
		Env:             "TEST",
		AppName:         "Etudes",
		Debug:           true,
		TestMode:        true,
		WorkDir:         dir,
		SecretKey:       "test-secret",
		CredentialsFile: "principals.yaml",
		Storage:         core.StorageConfig{Driver: "memory"},
		Keys:            core.KeysConfig{Document: "studyData", Auth: "authData", Theme: "theme"},
		Study:           core.StudyConfig{MaxUploadSize: 1 << 10},
		Session:         core.SessionConfig{ExpirationDelta: time.Hour},
	}

	// registry
	repo := credentials.NewFileRepository(conf.Path(conf.CredentialsFile))
	testutil.CreatePrincipal(t, repo, "anna", "Anna", principal.RoleStudent, pwd)
	testutil.CreatePrincipal(t, repo, "ben", "Ben", principal.RoleStudent, pwd)
	testutil.CreatePrincipal(t, repo, "tina", "Tina", principal.RoleTutor, pwd)

	logger := &testutil.Logger{}
	c := newContainer(conf)
	if err := c.Decorate(func(core.Logger) core.Logger { return logger }); err != nil {
		t.Fatalf("Decorate() failed: %v", err)
	}
	var cli *commandLine
	if err := c.Invoke(func(c *commandLine) { cli = c }); err != nil {
		t.Fatalf("Invoke() failed: %v", err)
	}

	var out bytes.Buffer
	cli.out = &out
	cli.in = bufio.NewReader(strings.NewReader(""))
	return fixture{cli: cli, out: &out, logger: logger, dir: dir}
}

func mockPasswords(pwds ...string) {
	var i int
	readPasswordFunc = func(fd int) ([]byte, error) {
		if i >= len(pwds) {
			return nil, nil
		}
		i++
		return []byte(pwds[i-1]), nil
	}
}

// run runs the command line and returns what it printed.
func (f fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	f.out.Reset()
	err := f.cli.run(append([]string{"etudes"}, args...))
	return f.out.String(), err
}

func (f fixture) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := f.run(t, args...)
	if err != nil {
		t.Fatalf("run(%v) error = %v\n%s", args, err, out)
	}
	return out
}

func (f fixture) login(t *testing.T, username string) {
	t.Helper()
	mockPasswords(pwd)
	f.mustRun(t, "login", "--username", username)
}

func (f fixture) writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func Test_commandLine_session(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name     string
		args     []string
		pwds     []string
		wantErr  error
		wantOut  string
		loggedIn bool
	}{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: session.ErrNotLoggedIn},
		{name: "not logged in", args: []string{"subject", "list"}, wantErr: session.ErrNotLoggedIn},
		{name: "login: no username", args: []string{"login"}, wantErr: errHelp},
		{name: "login: wrong password", args: []string{"login", "-u", "anna"}, pwds: []string{"lol"}, wantErr: principal.ErrAuthenticationFailed},
		{name: "login: unknown principal", args: []string{"login", "-u", "lol"}, pwds: []string{pwd}, wantErr: principal.ErrAuthenticationFailed},
		{name: "login", args: []string{"login", "-u", "Anna"}, pwds: []string{pwd}, wantOut: "welcome Anna (student)", loggedIn: true},
		{name: "whoami", args: []string{"whoami"}, wantOut: "@anna, student", loggedIn: true},
		{name: "unknown command once logged in", args: []string{"lol"}, wantErr: errHelp, loggedIn: true},
		{name: "theme", args: []string{"theme"}, wantOut: "light", loggedIn: true},
		{name: "theme: dark", args: []string{"theme", "dark"}, wantOut: "theme: dark", loggedIn: true},
		{name: "theme: toggle", args: []string{"theme", "toggle"}, wantOut: "theme: light", loggedIn: true},
		{name: "theme: invalid", args: []string{"theme", "pink"}, wantErr: session.ErrInvalidTheme, loggedIn: true},
		{name: "profile", args: []string{"profile", "--bio", "Maths lover"}, wantOut: "bio:   Maths lover", loggedIn: true},
		{name: "profile: invalid email", args: []string{"profile", "--email", "lol"}, wantErr: nil, loggedIn: true},
		{name: "passwd: wrong current", args: []string{"passwd"}, pwds: []string{"lol", "N3wPassw0rd!", "N3wPassw0rd!"}, loggedIn: true},
		{name: "passwd", args: []string{"passwd"}, pwds: []string{pwd, "N3wPassw0rd!", "N3wPassw0rd!"}, wantOut: "password changed", loggedIn: true},
		{name: "logout", args: []string{"logout"}, wantOut: "logged out"},
		{name: "logged out", args: []string{"whoami"}, wantErr: session.ErrNotLoggedIn},
		{name: "login with new password", args: []string{"login", "-u", "anna"}, pwds: []string{"N3wPassw0rd!"}, wantOut: "unread notifications: 2", loggedIn: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPasswords(tt.pwds...)
			out, err := f.run(t, tt.args...)

			switch {
			case strings.HasPrefix(tt.name, "profile: invalid"), strings.HasPrefix(tt.name, "passwd: wrong"):
				if !core.IsValidationError(err) {
					t.Errorf("run() error = %v, want validation error", err)
				}
			case err != tt.wantErr:
				t.Errorf("run() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("run() output = %q, want %q", out, tt.wantOut)
			}
			if _, err := f.cli.sess.Principal(); (err == nil) != tt.loggedIn {
				t.Errorf("logged in = %v, want %v", err == nil, tt.loggedIn)
			}
		})
	}
}

func Test_commandLine_study(t *testing.T) {
	f := setup(t)
	f.login(t, "anna")

	f.mustRun(t, "subject", "add", "Maths")
	f.mustRun(t, "subject", "add", "History")
	subjects := f.cli.svc.VisibleSubjects(anna)
	if len(subjects) != 2 {
		t.Fatalf("VisibleSubjects() = %+v", subjects)
	}
	maths, history := subjects[0], subjects[1]

	out := f.mustRun(t, "subject", "list")
	if !strings.Contains(out, "* "+maths.ID) || !strings.Contains(out, history.ID) {
		t.Errorf("subject list output = %q", out)
	}

	// resources
	f.mustRun(t, "resource", "add", "--title", "Summary", "--type", "text", "-d", "Derivatives")
	slides := []byte("%PDF-1.4 slides")
	f.mustRun(t, "resource", "add", "-s", maths.ID, "--title", "Slides", "--file", f.writeFile(t, "slides.pdf", slides))
	if _, err := f.run(t, "resource", "add", "-s", maths.ID, "--title", "Huge", "--file", f.writeFile(t, "huge.pdf", make([]byte, 2<<10))); !core.IsValidationError(err) {
		t.Errorf("resource add (too large) error = %v, want validation error", err)
	}
	if _, err := f.run(t, "resource", "add", "-s", "lol", "--title", "Lost", "--type", "text"); !core.IsValidationError(err) {
		t.Errorf("resource add (unknown subject) error = %v, want validation error", err)
	}

	s, _ := f.cli.svc.Subject(maths.ID)
	if len(s.Resources) != 2 || s.Resources[0].Title != "Slides" || s.Resources[0].Type != study.ResourcePDF {
		t.Fatalf("resources = %+v", s.Resources)
	}
	outPath := filepath.Join(f.dir, "out.pdf")
	out = f.mustRun(t, "resource", "open", s.Resources[0].ID, "--out", outPath)
	if !strings.Contains(out, "blob:") || !strings.Contains(out, "application/pdf") {
		t.Errorf("resource open output = %q", out)
	}
	if got, _ := os.ReadFile(outPath); !bytes.Equal(got, slides) {
		t.Errorf("opened content = %q, want %q", got, slides)
	}
	if f.cli.viewer.Current() != nil {
		t.Error("viewer still holds a view")
	}

	// notes & assignments
	f.mustRun(t, "note", "add", "Limits", "are", "fun")
	f.mustRun(t, "assignment", "add", "-t", "Homework 1", "-d", "Exercises 1-3", "--file", f.writeFile(t, "hw1.txt", []byte("answers")))
	f.mustRun(t, "note", "add", "-s", history.ID, "Rome")
	if _, err := f.run(t, "note", "add", ""); !core.IsValidationError(err) {
		t.Errorf("note add (blank) error = %v, want validation error", err)
	}

	out = f.mustRun(t, "subject", "show", maths.ID)
	for _, want := range []string{"Maths", "Slides", "Summary", "Derivatives", "Limits are fun", "Homework 1", "file: hw1.txt (text/plain; charset=utf-8, 7B)"} {
		if !strings.Contains(out, want) {
			t.Errorf("subject show output misses %q:\n%s", want, out)
		}
	}

	// tutor remarks
	doc := f.cli.svc.Snapshot()
	noteID := doc.Notes[0].ID
	if _, err := f.run(t, "remark", "note", noteID, "Nice"); err != study.ErrRemarkNotAllowed {
		t.Errorf("remark by student error = %v, want %v", err, study.ErrRemarkNotAllowed)
	}
	f.mustRun(t, "memory", "save", "-t", "Thesis", "-c", "Draft")

	f.login(t, "tina")
	if _, err := f.run(t, "subject", "add", "Physics"); err != study.ErrForbidden {
		t.Errorf("subject add by tutor error = %v, want %v", err, study.ErrForbidden)
	}
	f.mustRun(t, "remark", "note", noteID, "Good", "start")
	f.mustRun(t, "remark", "memory", "Needs", "a", "plan")
	if _, err := f.run(t, "remark", "note", noteID, " "); !core.IsValidationError(err) {
		t.Errorf("remark (blank) error = %v, want validation error", err)
	}
	out = f.mustRun(t, "subject", "show")
	if !strings.Contains(out, "> Good start (tina,") {
		t.Errorf("tutor view output = %q", out)
	}
	out = f.mustRun(t, "memory")
	if !strings.Contains(out, "Thesis") || !strings.Contains(out, "> Needs a plan (tina,") {
		t.Errorf("memory output = %q", out)
	}

	// other students see nothing of anna's
	f.login(t, "ben")
	if out = f.mustRun(t, "subject", "list"); !strings.Contains(out, "no subjects") {
		t.Errorf("subject list for ben = %q", out)
	}
	if out = f.mustRun(t, "memory", "show"); !strings.Contains(out, "no memory yet") {
		t.Errorf("memory for ben = %q", out)
	}

	// deletes
	f.login(t, "anna")
	if _, err := f.run(t, "note", "delete", "lol"); err != study.ErrNotFound {
		t.Errorf("note delete error = %v, want %v", err, study.ErrNotFound)
	}
	f.mustRun(t, "subject", "delete", maths.ID)
	doc = f.cli.svc.Snapshot()
	if len(doc.Subjects) != 1 || len(doc.Notes) != 1 || len(doc.Assignments) != 0 {
		t.Errorf("document after subject delete = %+v", doc)
	}

	// notifications
	out = f.mustRun(t, "notifications")
	if !strings.Contains(out, `Subject "Maths" deleted with 1 note(s) and 1 assignment(s)`) {
		t.Errorf("notifications output = %q", out)
	}
	f.mustRun(t, "notifications", "--clear")
	if n := f.cli.svc.UnreadCount(); n != 0 {
		t.Errorf("UnreadCount() = %d after clear", n)
	}
}

func Test_commandLine_openUnavailable(t *testing.T) {
	f := setup(t)
	f.login(t, "anna")

	doc := study.NewDocument()
	doc.Subjects = append(doc.Subjects, study.Subject{ID: "s1", Name: "Maths", OwnerID: anna.ID, Resources: []study.Resource{{
		ID:          "r1",
		Title:       "Broken slides",
		Type:        study.ResourcePDF,
		ContentData: null.StringFrom("not a data url"),
		OwnerID:     anna.ID,
	}}})
	isPrincipal := func(id string) bool { return id == anna.ID }
	if err := f.cli.svc.Restore(context.Background(), anna, doc, isPrincipal); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	out := f.mustRun(t, "resource", "open", "-s", "s1", "r1")
	if !strings.Contains(out, "Broken slides") || !strings.Contains(out, "content unavailable") {
		t.Errorf("resource open output = %q", out)
	}
	if f.cli.viewer.Current() != nil {
		t.Errorf("resource open left a view open")
	}
}

func Test_commandLine_quiz(t *testing.T) {
	f := setup(t)
	f.login(t, "tina")

	if _, err := f.run(t, "quiz", "create", "-t", "Empty"); !core.IsValidationError(err) {
		t.Errorf("quiz create (no questions) error = %v, want validation error", err)
	}
	if _, err := f.run(t, "quiz", "create", "-t", "Bad", "-q", "1+1?|1|2|3"); !core.IsValidationError(err) {
		t.Errorf("quiz create (bad question) error = %v, want validation error", err)
	}
	f.mustRun(t, "quiz", "create", "-t", "Basics", "-q", "1+1?|1|2|3|4|B", "-q", "2*3?|6|5|8|9|0")
	quizzes := f.cli.svc.Quizzes()
	if len(quizzes) != 1 || len(quizzes[0].Questions) != 2 {
		t.Fatalf("Quizzes() = %+v", quizzes)
	}
	quizID := quizzes[0].ID

	f.login(t, "anna")
	if _, err := f.run(t, "quiz", "create", "-t", "Mine", "-q", "a|b|c|d|e|A"); err != study.ErrForbidden {
		t.Errorf("quiz create by student error = %v, want %v", err, study.ErrForbidden)
	}
	out := f.mustRun(t, "quiz", "take", quizID, "--answers", "b,2")
	if !strings.Contains(out, "score: 1/2 (50%)") || !strings.Contains(out, "correct: 6") {
		t.Errorf("quiz take output = %q", out)
	}

	// interactive retake
	f.cli.in = bufio.NewReader(strings.NewReader("1\nA\n"))
	out = f.mustRun(t, "quiz", "take", quizID)
	if !strings.Contains(out, "1+1?") || !strings.Contains(out, "score: 2/2 (100%)") {
		t.Errorf("interactive quiz take output = %q", out)
	}

	// unanswered question
	f.cli.in = bufio.NewReader(strings.NewReader("\n\n"))
	if _, err := f.run(t, "quiz", "take", quizID); !core.IsValidationError(err) {
		t.Errorf("quiz take (unanswered) error = %v, want validation error", err)
	}

	q, _ := f.cli.svc.Quiz(quizID)
	if len(q.Results) != 2 {
		t.Errorf("quiz results = %+v", q.Results)
	}

	f.login(t, "tina")
	out = f.mustRun(t, "quiz", "show", quizID)
	if !strings.Contains(out, "anna: 1/2 (50%)") || !strings.Contains(out, "anna: 2/2 (100%)") {
		t.Errorf("quiz show output = %q", out)
	}
	f.mustRun(t, "quiz", "delete", quizID)
	if out = f.mustRun(t, "quiz", "list"); !strings.Contains(out, "no quizzes") {
		t.Errorf("quiz list output = %q", out)
	}
}

func Test_commandLine_backup(t *testing.T) {
	f := setup(t)
	f.login(t, "anna")
	f.mustRun(t, "subject", "add", "Maths")
	f.mustRun(t, "note", "add", "Limits")

	plain := filepath.Join(f.dir, "plain.etudes")
	sealed := filepath.Join(f.dir, "sealed.etudes")
	f.mustRun(t, "export", "--out", plain)
	mockPasswords("s3cret words", "s3cret words")
	f.mustRun(t, "export", "--out", sealed, "--encrypt")
	mockPasswords("s3cret words", "other words")
	if _, err := f.run(t, "export", "--out", sealed, "--encrypt"); err == nil {
		t.Error("export with mismatching passphrases succeeded")
	}

	f.mustRun(t, "subject", "delete", f.cli.svc.VisibleSubjects(anna)[0].ID)
	if doc := f.cli.svc.Snapshot(); len(doc.Subjects) != 0 || len(doc.Notes) != 0 {
		t.Fatalf("document after delete = %+v", doc)
	}

	f.mustRun(t, "import", plain)
	if doc := f.cli.svc.Snapshot(); len(doc.Subjects) != 1 || len(doc.Notes) != 1 {
		t.Errorf("document after import = %+v", doc)
	}

	mockPasswords("wrong words")
	if _, err := f.run(t, "import", sealed); err != backup.ErrWrongPassphrase {
		t.Errorf("import with wrong passphrase error = %v, want %v", err, backup.ErrWrongPassphrase)
	}
	mockPasswords("s3cret words")
	out := f.mustRun(t, "import", sealed)
	if !strings.Contains(out, "restored") {
		t.Errorf("import output = %q", out)
	}
}

func Test_parseOption(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "a", want: 0},
		{in: " D ", want: 3},
		{in: "2", want: 2},
		{in: "4", wantErr: true},
		{in: "-1", wantErr: true},
		{in: "E", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseOption(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseOption() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseOption() = %d, want %d", got, tt.want)
			}
		})
	}
}

func Test_printError(t *testing.T) {
	f := setup(t)
	f.cli.styles = newStyles(f.out, session.ThemeLight)

	f.cli.printError(core.NewValidationError(nil, core.FieldError{Field: "name", Error: "this field is required"}))
	if out := f.out.String(); !strings.Contains(out, "invalid input") || !strings.Contains(out, "name: this field is required") {
		t.Errorf("printError() output = %q", out)
	}
	f.out.Reset()
	f.cli.printError(study.ErrForbidden)
	if out := f.out.String(); !strings.Contains(out, "error: "+study.ErrForbidden.Error()) {
		t.Errorf("printError() output = %q", out)
	}
}
