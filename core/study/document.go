package study

import (
	"fmt"

	"github.com/trezcool/etudes/core"
)

// Check verifies the referential invariants of the Document. isPrincipal tells whether an id is
// a key of the principal registry.
func (doc *Document) Check(isPrincipal func(id string) bool) error {
	var flds []core.FieldError
	report := func(field, format string, args ...interface{}) {
		flds = append(flds, core.FieldError{Field: field, Error: fmt.Sprintf(format, args...)})
	}

	subjects := make(map[string]bool, len(doc.Subjects))
	for i, s := range doc.Subjects {
		field := fmt.Sprintf("subjects[%d]", i)
		if s.ID == "" || subjects[s.ID] {
			report(field, "missing or duplicate id %q", s.ID)
		}
		subjects[s.ID] = true
		if !isPrincipal(s.OwnerID) {
			report(field, "unknown owner %q", s.OwnerID)
		}
		for j, r := range s.Resources {
			rField := fmt.Sprintf("%s.resources[%d]", field, j)
			if !r.Type.Valid() {
				report(rField, "invalid type %q", r.Type)
			}
			if r.ContentData.Valid && !r.Type.Binary() {
				report(rField, "%s resources cannot carry content", r.Type)
			}
			if !isPrincipal(r.OwnerID) {
				report(rField, "unknown owner %q", r.OwnerID)
			}
		}
	}

	for i, n := range doc.Notes {
		field := fmt.Sprintf("notes[%d]", i)
		if !subjects[n.SubjectID] {
			report(field, "unknown subject %q", n.SubjectID)
		}
		if !isPrincipal(n.OwnerID) {
			report(field, "unknown owner %q", n.OwnerID)
		}
		checkRemarks(field, n.Remarks, isPrincipal, report)
	}

	for i, a := range doc.Assignments {
		field := fmt.Sprintf("assignments[%d]", i)
		if !subjects[a.SubjectID] {
			report(field, "unknown subject %q", a.SubjectID)
		}
		if !isPrincipal(a.OwnerID) {
			report(field, "unknown owner %q", a.OwnerID)
		}
		checkRemarks(field, a.Remarks, isPrincipal, report)
	}

	for i, q := range doc.Quizzes {
		field := fmt.Sprintf("quizzes[%d]", i)
		if !isPrincipal(q.CreatedBy) {
			report(field, "unknown author %q", q.CreatedBy)
		}
		if len(q.Questions) == 0 {
			report(field, "quiz %q has no questions", q.ID)
		}
		for j, question := range q.Questions {
			if question.CorrectAnswerIndex < 0 || question.CorrectAnswerIndex >= len(question.Options) {
				report(fmt.Sprintf("%s.questions[%d]", field, j), "correct answer index %d out of range", question.CorrectAnswerIndex)
			}
		}
	}

	if doc.Memory != nil {
		if !isPrincipal(doc.Memory.ModifiedBy) {
			report("memory", "unknown owner %q", doc.Memory.ModifiedBy)
		}
		checkRemarks("memory", doc.Memory.Remarks, isPrincipal, report)
	}

	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

func checkRemarks(field string, remarks []Remark, isPrincipal func(string) bool, report func(string, string, ...interface{})) {
	for i, r := range remarks {
		if !isPrincipal(r.AuthorID) {
			report(fmt.Sprintf("%s.remarks[%d]", field, i), "unknown author %q", r.AuthorID)
		}
	}
}

// normalize fills the collections a decoded Document may lack.
func (doc *Document) normalize() {
	if doc.Subjects == nil {
		doc.Subjects = []Subject{}
	}
	for i := range doc.Subjects {
		if doc.Subjects[i].Resources == nil {
			doc.Subjects[i].Resources = []Resource{}
		}
	}
	if doc.Notes == nil {
		doc.Notes = []Note{}
	}
	for i := range doc.Notes {
		if doc.Notes[i].Remarks == nil {
			doc.Notes[i].Remarks = []Remark{}
		}
	}
	if doc.Assignments == nil {
		doc.Assignments = []Assignment{}
	}
	for i := range doc.Assignments {
		if doc.Assignments[i].Remarks == nil {
			doc.Assignments[i].Remarks = []Remark{}
		}
	}
	if doc.Quizzes == nil {
		doc.Quizzes = []Quiz{}
	}
	for i := range doc.Quizzes {
		if doc.Quizzes[i].Questions == nil {
			doc.Quizzes[i].Questions = []Question{}
		}
		if doc.Quizzes[i].Results == nil {
			doc.Quizzes[i].Results = []QuizResult{}
		}
	}
	if doc.Memory != nil && doc.Memory.Remarks == nil {
		doc.Memory.Remarks = []Remark{}
	}
	if doc.Notifications == nil {
		doc.Notifications = []Notification{}
	}
}

// Clone returns a deep copy of the Document.
func (doc Document) Clone() Document {
	c := Document{
		Subjects:      make([]Subject, len(doc.Subjects)),
		Notes:         make([]Note, len(doc.Notes)),
		Assignments:   make([]Assignment, len(doc.Assignments)),
		Quizzes:       make([]Quiz, len(doc.Quizzes)),
		Notifications: append([]Notification{}, doc.Notifications...),
	}
	for i, s := range doc.Subjects {
		s.Resources = append([]Resource{}, s.Resources...)
		c.Subjects[i] = s
	}
	for i, n := range doc.Notes {
		n.Remarks = append([]Remark{}, n.Remarks...)
		c.Notes[i] = n
	}
	for i, a := range doc.Assignments {
		a.Remarks = append([]Remark{}, a.Remarks...)
		if a.FileInfo != nil {
			fi := *a.FileInfo
			a.FileInfo = &fi
		}
		c.Assignments[i] = a
	}
	for i, q := range doc.Quizzes {
		c.Quizzes[i] = q.clone()
	}
	if doc.Memory != nil {
		m := *doc.Memory
		m.Remarks = append([]Remark{}, m.Remarks...)
		c.Memory = &m
	}
	return c
}

func (q Quiz) clone() Quiz {
	q.Questions = append([]Question{}, q.Questions...)
	results := make([]QuizResult, len(q.Results))
	for i, r := range q.Results {
		answers := make(map[int]int, len(r.Answers))
		for k, v := range r.Answers {
			answers[k] = v
		}
		r.Answers = answers
		results[i] = r
	}
	q.Results = results
	return q
}

func (doc *Document) subjectIndex(id string) int {
	for i, s := range doc.Subjects {
		if s.ID == id {
			return i
		}
	}
	return -1
}

func (doc *Document) noteIndex(id string) int {
	for i, n := range doc.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (doc *Document) assignmentIndex(id string) int {
	for i, a := range doc.Assignments {
		if a.ID == id {
			return i
		}
	}
	return -1
}

func (doc *Document) quizIndex(id string) int {
	for i, q := range doc.Quizzes {
		if q.ID == id {
			return i
		}
	}
	return -1
}
