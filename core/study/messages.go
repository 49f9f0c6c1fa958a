package study

import "github.com/trezcool/etudes/core"

const (
	msgSubjectCreated    = "subjectCreated"
	msgSubjectDeleted    = "subjectDeleted"
	msgResourceAdded     = "resourceAdded"
	msgResourceDeleted   = "resourceDeleted"
	msgNoteAdded         = "noteAdded"
	msgNoteDeleted       = "noteDeleted"
	msgAssignmentAdded   = "assignmentAdded"
	msgAssignmentDeleted = "assignmentDeleted"
	msgMemorySaved       = "memorySaved"
	msgRemarkAdded       = "remarkAdded"
	msgQuizCreated       = "quizCreated"
	msgQuizDeleted       = "quizDeleted"
	msgQuizSubmitted     = "quizSubmitted"
	msgProfileUpdated    = "profileUpdated"
	msgDocumentRestored  = "documentRestored"
)

var messages = core.NewMessageCatalog(map[string]string{
	msgSubjectCreated:    `Subject "{{.Name}}" created`,
	msgSubjectDeleted:    `Subject "{{.Name}}" deleted with {{.Notes}} note(s) and {{.Assignments}} assignment(s)`,
	msgResourceAdded:     `Resource "{{.Title}}" added to {{.Subject}}`,
	msgResourceDeleted:   `Resource "{{.Title}}" deleted from {{.Subject}}`,
	msgNoteAdded:         `Note added to {{.Subject}}`,
	msgNoteDeleted:       `Note deleted from {{.Subject}}`,
	msgAssignmentAdded:   `Assignment "{{.Title}}" submitted in {{.Subject}}`,
	msgAssignmentDeleted: `Assignment "{{.Title}}" deleted`,
	msgMemorySaved:       `Memory "{{.Title}}" saved`,
	msgRemarkAdded:       `{{.Author}} added a remark on {{.Target}}`,
	msgQuizCreated:       `Quiz "{{.Title}}" created with {{.Questions}} question(s)`,
	msgQuizDeleted:       `Quiz "{{.Title}}" deleted`,
	msgQuizSubmitted:     `Quiz "{{.Title}}" completed: {{.Score}}/{{.Total}} ({{.Percentage}}%)`,
	msgProfileUpdated:    `Profile of {{.Name}} updated`,
	msgDocumentRestored:  `Study data restored ({{.Subjects}} subject(s), {{.Quizzes}} quiz(zes))`,
}, true /* strict */)
