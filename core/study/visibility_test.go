package study

import (
	"context"
	"testing"

	"github.com/trezcool/etudes/core/principal"
)

func TestVisible(t *testing.T) {
	f := setup(t)

	algebra := mustSubject(t, f.svc, anna, "Algebra")
	physics := mustSubject(t, f.svc, ben, "Physics")
	first := mustNote(t, f.svc, anna, algebra.ID, "first")
	second := mustNote(t, f.svc, anna, algebra.ID, "second")
	mustNote(t, f.svc, ben, physics.ID, "ben's")
	a1 := mustAssignment(t, f.svc, anna, algebra.ID, "A1")
	a2 := mustAssignment(t, f.svc, anna, algebra.ID, "A2")
	doc := f.svc.Snapshot()

	tests := []struct {
		name            string
		viewer          principal.Principal
		subjectID       string
		wantSubject     string
		wantNotes       []string
		wantAssignments []string
	}{
		{name: "owner", viewer: anna, subjectID: algebra.ID, wantSubject: algebra.ID,
			wantNotes: []string{second.ID, first.ID}, wantAssignments: []string{a2.ID, a1.ID}},
		{name: "tutor sees designated student", viewer: tina, subjectID: algebra.ID, wantSubject: algebra.ID,
			wantNotes: []string{second.ID, first.ID}, wantAssignments: []string{a2.ID, a1.ID}},
		{name: "tutor does not see other students", viewer: tina, subjectID: physics.ID},
		{name: "student does not see other students", viewer: ben, subjectID: algebra.ID},
		{name: "unknown subject", viewer: anna, subjectID: "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Visible(doc, tt.viewer, tt.subjectID, anna.ID)
			if v.Subject.ID != tt.wantSubject {
				t.Errorf("Visible() subject = %q, want %q", v.Subject.ID, tt.wantSubject)
			}
			if got := noteIDs(v.Notes); !equalIDs(got, tt.wantNotes) {
				t.Errorf("Visible() notes = %v, want %v", got, tt.wantNotes)
			}
			if got := assignmentIDs(v.Assignments); !equalIDs(got, tt.wantAssignments) {
				t.Errorf("Visible() assignments = %v, want %v", got, tt.wantAssignments)
			}
		})
	}
}

func TestCanSee(t *testing.T) {
	tests := []struct {
		viewer  principal.Principal
		ownerID string
		want    bool
	}{
		{viewer: tina, ownerID: anna.ID, want: true},
		{viewer: tina, ownerID: tina.ID, want: true},
		{viewer: tina, ownerID: ben.ID, want: false},
		{viewer: anna, ownerID: anna.ID, want: true},
		{viewer: ben, ownerID: anna.ID, want: false},
		{viewer: ben, ownerID: tina.ID, want: false},
	}
	for _, tt := range tests {
		if got := CanSee(tt.viewer, tt.ownerID, anna.ID); got != tt.want {
			t.Errorf("CanSee(%s, %s) = %v, want %v", tt.viewer.ID, tt.ownerID, got, tt.want)
		}
	}
}

func TestSelectSubject(t *testing.T) {
	f := setup(t)
	if got := f.svc.SelectSubject(anna, ""); got != "" {
		t.Errorf("SelectSubject() with no subjects = %q", got)
	}

	algebra := mustSubject(t, f.svc, anna, "Algebra")
	history := mustSubject(t, f.svc, anna, "History")
	mustSubject(t, f.svc, ben, "Physics")

	if got := f.svc.SelectSubject(anna, ""); got != algebra.ID {
		t.Errorf("SelectSubject() = %q, want first subject", got)
	}
	if got := f.svc.SelectSubject(anna, history.ID); got != history.ID {
		t.Errorf("SelectSubject() = %q, want current subject", got)
	}
	if err := f.svc.DeleteSubject(context.Background(), anna, history.ID); err != nil {
		t.Fatalf("DeleteSubject() error = %v", err)
	}
	if got := f.svc.SelectSubject(anna, history.ID); got != algebra.ID {
		t.Errorf("SelectSubject() after delete = %q, want fallback", got)
	}
	if got := f.svc.VisibleSubjects(tina); len(got) != 1 || got[0].ID != algebra.ID {
		t.Errorf("VisibleSubjects(tutor) = %+v", got)
	}
}

func noteIDs(ns []Note) []string {
	ids := make([]string, 0, len(ns))
	for _, n := range ns {
		ids = append(ids, n.ID)
	}
	return ids
}

func assignmentIDs(as []Assignment) []string {
	ids := make([]string, 0, len(as))
	for _, a := range as {
		ids = append(ids, a.ID)
	}
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
