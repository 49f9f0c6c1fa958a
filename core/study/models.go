package study

import (
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/content"
)

// NewID returns a time-ordered unique identifier: sorting identifiers in descending order lists
// the newest items first.
var NewID = func() string { return uuid.Must(uuid.NewV7()).String() } // mockable

// ResourceType of a Resource.
type ResourceType string

const (
	ResourceText  ResourceType = "text"
	ResourcePDF   ResourceType = "pdf"
	ResourceImage ResourceType = "image"
	ResourceAudio ResourceType = "audio"
	ResourceVideo ResourceType = "video"
	ResourceURL   ResourceType = "url"
)

var AllResourceTypes = []ResourceType{ResourceText, ResourcePDF, ResourceImage, ResourceAudio, ResourceVideo, ResourceURL}

func (t ResourceType) Valid() bool {
	for _, typ := range AllResourceTypes {
		if t == typ {
			return true
		}
	}
	return false
}

// Binary reports whether resources of this type carry an embedded file.
func (t ResourceType) Binary() bool {
	switch t {
	case ResourcePDF, ResourceImage, ResourceAudio, ResourceVideo:
		return true
	}
	return false
}

// NotificationType of a Notification.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationInfo    NotificationType = "info"
	NotificationWarning NotificationType = "warning"
	NotificationError   NotificationType = "error"
)

type (
	Subject struct {
		ID        string         `json:"id"`
		Name      string         `json:"name"`
		OwnerID   string         `json:"ownerId"`
		Resources []Resource     `json:"resources"`
		CreatedAt core.Timestamp `json:"createdAt"`
	}

	Resource struct {
		ID          string         `json:"id"`
		Title       string         `json:"title"`
		Type        ResourceType   `json:"type"`
		Description string         `json:"description"`
		ContentData null.String    `json:"contentData"`
		MimeType    null.String    `json:"mimeType"`
		DateAdded   core.Timestamp `json:"dateAdded"`
		OwnerID     string         `json:"ownerId"`
	}

	Remark struct {
		Content   string         `json:"content"`
		AuthorID  string         `json:"authorId"`
		Timestamp core.Timestamp `json:"timestamp"`
	}

	Note struct {
		ID        string         `json:"id"`
		SubjectID string         `json:"subjectId"`
		Content   string         `json:"content"`
		Timestamp core.Timestamp `json:"timestamp"`
		OwnerID   string         `json:"ownerId"`
		Remarks   []Remark       `json:"remarks"`
	}

	// FileInfo describes the file handed in with an Assignment; the file itself is not kept.
	FileInfo struct {
		Name      string `json:"name"`
		MimeType  string `json:"mimeType"`
		SizeLabel string `json:"sizeLabel"`
	}

	Assignment struct {
		ID        string         `json:"id"`
		SubjectID string         `json:"subjectId"`
		Title     string         `json:"title"`
		Details   string         `json:"details"`
		FileInfo  *FileInfo      `json:"fileInfo"`
		Date      core.Timestamp `json:"date"`
		OwnerID   string         `json:"ownerId"`
		Remarks   []Remark       `json:"remarks"`
	}

	Question struct {
		ID                 string    `json:"id"`
		Question           string    `json:"question"`
		Options            [4]string `json:"options"`
		CorrectAnswerIndex int       `json:"correctAnswerIndex"`
	}

	QuizResult struct {
		QuizID           string         `json:"quizId"`
		UserID           string         `json:"userId"`
		Score            int            `json:"score"`
		TotalQuestions   int            `json:"totalQuestions"`
		Percentage       int            `json:"percentage"`
		TimeTakenSeconds int            `json:"timeTakenSeconds"`
		CompletedAt      core.Timestamp `json:"completedAt"`
		Answers          map[int]int    `json:"answers"` // question index -> option index
	}

	Quiz struct {
		ID        string         `json:"id"`
		Title     string         `json:"title"`
		Questions []Question     `json:"questions"`
		CreatedBy string         `json:"createdBy"`
		CreatedAt core.Timestamp `json:"createdAt"`
		Results   []QuizResult   `json:"results"`
	}

	// Memory is the singleton thesis document. Its owner is ModifiedBy.
	Memory struct {
		Title        string         `json:"title"`
		Content      string         `json:"content"`
		LastModified core.Timestamp `json:"lastModified"`
		ModifiedBy   string         `json:"modifiedBy"`
		Remarks      []Remark       `json:"remarks"`
	}

	Notification struct {
		ID        string           `json:"id"`
		Type      NotificationType `json:"type"`
		Message   string           `json:"message"`
		Timestamp core.Timestamp   `json:"timestamp"`
		Read      bool             `json:"read"`
	}

	// Document is everything the study platform knows, persisted as a single value.
	Document struct {
		Subjects      []Subject      `json:"subjects"`
		Notes         []Note         `json:"notes"`
		Assignments   []Assignment   `json:"assignments"`
		Quizzes       []Quiz         `json:"quizzes"`
		Memory        *Memory        `json:"memory"`
		Notifications []Notification `json:"notifications"`
	}
)

func NewDocument() Document {
	return Document{
		Subjects:      []Subject{},
		Notes:         []Note{},
		Assignments:   []Assignment{},
		Quizzes:       []Quiz{},
		Notifications: []Notification{},
	}
}

// Inputs

type (
	NewSubject struct {
		Name string `json:"name" validate:"required,notblank,max=120"`
	}

	NewResource struct {
		SubjectID   string          `json:"subjectId" validate:"required"`
		Title       string          `json:"title" validate:"required,notblank,max=200"`
		Type        ResourceType    `json:"type" validate:"required,resource_type"`
		Description string          `json:"description"`
		File        *content.Upload `json:"file"`
	}

	NewNote struct {
		SubjectID string `json:"subjectId" validate:"required"`
		Content   string `json:"content" validate:"required,notblank"`
	}

	NewAssignment struct {
		SubjectID string          `json:"subjectId" validate:"required"`
		Title     string          `json:"title" validate:"required,notblank,max=200"`
		Details   string          `json:"details"`
		File      *content.Upload `json:"file"`
	}

	MemoryInput struct {
		Title   string `json:"title" validate:"required,notblank,max=200"`
		Content string `json:"content"`
	}
)

func (ns *NewSubject) clean() {
	ns.Name = core.CleanString(ns.Name)
}

func (nr *NewResource) clean() {
	nr.SubjectID = core.CleanString(nr.SubjectID)
	nr.Title = core.CleanString(nr.Title)
	nr.Type = ResourceType(core.CleanString(string(nr.Type), true /* lower */))
	nr.Description = core.CleanString(nr.Description)
}

func (nn *NewNote) clean() {
	nn.SubjectID = core.CleanString(nn.SubjectID)
}

func (na *NewAssignment) clean() {
	na.SubjectID = core.CleanString(na.SubjectID)
	na.Title = core.CleanString(na.Title)
	na.Details = core.CleanString(na.Details)
}

func (mi *MemoryInput) clean() {
	mi.Title = core.CleanString(mi.Title)
}
