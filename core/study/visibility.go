package study

import (
	"sort"

	"github.com/trezcool/etudes/core/principal"
)

// View is the slice of a Subject a principal may see.
type View struct {
	Subject     Subject // zero if the subject is not visible
	Resources   []Resource
	Notes       []Note       // newest first
	Assignments []Assignment // newest first
}

// CanSee reports whether viewer may see items owned by ownerID.
// Tutors see the designated student's items and their own, students only their own.
func CanSee(viewer principal.Principal, ownerID, designated string) bool {
	if viewer.IsTutor() {
		return ownerID == designated || ownerID == viewer.ID
	}
	return ownerID == viewer.ID
}

// Visible derives what viewer sees of subject `subjectID`.
func Visible(doc Document, viewer principal.Principal, subjectID, designated string) View {
	v := View{
		Resources:   []Resource{},
		Notes:       []Note{},
		Assignments: []Assignment{},
	}
	idx := doc.subjectIndex(subjectID)
	if idx < 0 || !CanSee(viewer, doc.Subjects[idx].OwnerID, designated) {
		return v
	}

	v.Subject = doc.Subjects[idx]
	for _, r := range v.Subject.Resources {
		if CanSee(viewer, r.OwnerID, designated) {
			v.Resources = append(v.Resources, r)
		}
	}
	v.Subject.Resources = v.Resources

	for _, n := range doc.Notes {
		if n.SubjectID == subjectID && CanSee(viewer, n.OwnerID, designated) {
			v.Notes = append(v.Notes, n)
		}
	}
	sort.Slice(v.Notes, func(i, j int) bool { return v.Notes[i].ID > v.Notes[j].ID })

	for _, a := range doc.Assignments {
		if a.SubjectID == subjectID && CanSee(viewer, a.OwnerID, designated) {
			v.Assignments = append(v.Assignments, a)
		}
	}
	sort.Slice(v.Assignments, func(i, j int) bool { return v.Assignments[i].ID > v.Assignments[j].ID })
	return v
}

// VisibleSubjects lists the Subjects viewer may see, in creation order.
func VisibleSubjects(doc Document, viewer principal.Principal, designated string) []Subject {
	subjects := make([]Subject, 0, len(doc.Subjects))
	for _, s := range doc.Subjects {
		if CanSee(viewer, s.OwnerID, designated) {
			subjects = append(subjects, s)
		}
	}
	return subjects
}

// SelectSubject keeps currentID selected while it is visible, or falls back to the first
// visible Subject ("" if there is none).
func SelectSubject(doc Document, viewer principal.Principal, designated, currentID string) string {
	subjects := VisibleSubjects(doc, viewer, designated)
	for _, s := range subjects {
		if s.ID == currentID {
			return currentID
		}
	}
	if len(subjects) > 0 {
		return subjects[0].ID
	}
	return ""
}

// Visible derives what viewer sees of subject `subjectID` in the current Document.
func (svc *Service) Visible(viewer principal.Principal, subjectID string) View {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return Visible(svc.doc.Clone(), viewer, subjectID, svc.cfg.DesignatedStudent)
}

func (svc *Service) VisibleSubjects(viewer principal.Principal) []Subject {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return VisibleSubjects(svc.doc.Clone(), viewer, svc.cfg.DesignatedStudent)
}

func (svc *Service) SelectSubject(viewer principal.Principal, currentID string) string {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return SelectSubject(svc.doc, viewer, svc.cfg.DesignatedStudent, currentID)
}
