package study

import (
	"context"
	"sort"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/gommon/bytes"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/content"
	"github.com/trezcool/etudes/core/principal"
)

var (
	// errors
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("you are not allowed to do this")
)

type (
	// Store persists values under keys. It never fails: errors are reported to the diagnostic sink.
	Store interface {
		// Load decodes the value stored under key into v and reports whether it succeeded.
		Load(ctx context.Context, key string, v interface{}) bool
		Save(ctx context.Context, key string, v interface{})
	}

	Config struct {
		DocumentKey       string
		DesignatedStudent string
		MaxUploadSize     int64
	}

	// Service owns the study Document. Mutation handlers are its only writers: each one validates
	// its input, applies the change, records one Notification and saves the Document.
	Service struct {
		cfg        Config
		store      Store
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger

		mu  sync.Mutex
		doc Document
	}
)

var _ principal.Notifier = (*Service)(nil)

// NewService loads the Document from store (an empty one if there is none).
func NewService(
	ctx context.Context,
	cfg Config,
	store Store,
	validate *validator.Validate,
	translator ut.Translator,
	logger core.Logger,
) *Service {
	svc := &Service{
		cfg:        cfg,
		store:      store,
		validate:   validate,
		translator: translator,
		logger:     logger,
	}
	var doc Document
	if !store.Load(ctx, cfg.DocumentKey, &doc) {
		doc = NewDocument()
	}
	doc.normalize()
	svc.doc = doc
	return svc
}

// DesignatedStudent is the id of the student whose work tutors review.
func (svc *Service) DesignatedStudent() string { return svc.cfg.DesignatedStudent }

func (svc *Service) MaxUploadSize() int64 { return svc.cfg.MaxUploadSize }

// commit persists the Document; must be called with svc.mu held.
func (svc *Service) commit(ctx context.Context) {
	svc.store.Save(ctx, svc.cfg.DocumentKey, svc.doc)
}

// notify appends a Notification; must be called with svc.mu held.
func (svc *Service) notify(typ NotificationType, msgName string, data map[string]interface{}) {
	msg, err := messages.Render(msgName, data)
	if err != nil {
		svc.logger.Error("rendering notification", err, data)
		msg = msgName
	}
	svc.doc.Notifications = append(svc.doc.Notifications, Notification{
		ID:        NewID(),
		Type:      typ,
		Message:   msg,
		Timestamp: core.Now(),
	})
}

func (svc *Service) validateStruct(s interface{}) error {
	return core.ValidateStruct(svc.validate, svc.translator, s)
}

func subjectNotFound() error {
	return core.NewValidationError(nil, core.FieldError{Field: "subjectId", Error: "subject not found"})
}

// ownedSubject returns the index of subject `id`, which actor must own.
// uploadSize is the decoded size of u, or its declared size when it carries no payload.
func uploadSize(u *content.Upload) (int64, error) {
	if u.DataURL == "" {
		return u.Size, nil
	}
	p, err := content.Decode(u.DataURL)
	if err != nil {
		return 0, core.NewValidationError(err, core.FieldError{Field: "file", Error: badFileText})
	}
	return int64(len(p.Data)), nil
}

func (svc *Service) ownedSubject(actor principal.Principal, id string) (int, error) {
	idx := svc.doc.subjectIndex(id)
	if idx < 0 {
		return -1, subjectNotFound()
	}
	if svc.doc.Subjects[idx].OwnerID != actor.ID {
		return -1, ErrForbidden
	}
	return idx, nil
}

func (svc *Service) subjectName(id string) string {
	if idx := svc.doc.subjectIndex(id); idx >= 0 {
		return svc.doc.Subjects[idx].Name
	}
	return id
}

// Subjects

func (svc *Service) CreateSubject(ctx context.Context, actor principal.Principal, ns NewSubject) (Subject, error) {
	if !actor.IsStudent() {
		return Subject{}, ErrForbidden
	}
	ns.clean()
	if err := svc.validateStruct(ns); err != nil {
		return Subject{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	s := Subject{
		ID:        NewID(),
		Name:      ns.Name,
		OwnerID:   actor.ID,
		Resources: []Resource{},
		CreatedAt: core.Now(),
	}
	svc.doc.Subjects = append(svc.doc.Subjects, s)
	svc.notify(NotificationSuccess, msgSubjectCreated, map[string]interface{}{"Name": s.Name})
	svc.commit(ctx)
	return s, nil
}

// DeleteSubject removes the Subject with every Note and Assignment attached to it.
func (svc *Service) DeleteSubject(ctx context.Context, actor principal.Principal, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.subjectIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	s := svc.doc.Subjects[idx]
	if s.OwnerID != actor.ID {
		return ErrForbidden
	}

	subjects := make([]Subject, 0, len(svc.doc.Subjects)-1)
	subjects = append(subjects, svc.doc.Subjects[:idx]...)
	svc.doc.Subjects = append(subjects, svc.doc.Subjects[idx+1:]...)

	notes := make([]Note, 0, len(svc.doc.Notes))
	for _, n := range svc.doc.Notes {
		if n.SubjectID != id {
			notes = append(notes, n)
		}
	}
	assignments := make([]Assignment, 0, len(svc.doc.Assignments))
	for _, a := range svc.doc.Assignments {
		if a.SubjectID != id {
			assignments = append(assignments, a)
		}
	}
	data := map[string]interface{}{
		"Name":        s.Name,
		"Notes":       len(svc.doc.Notes) - len(notes),
		"Assignments": len(svc.doc.Assignments) - len(assignments),
	}
	svc.doc.Notes, svc.doc.Assignments = notes, assignments

	svc.notify(NotificationWarning, msgSubjectDeleted, data)
	svc.commit(ctx)
	return nil
}

// Resources

// AddResource prepends a Resource to its Subject. The Resource belongs to the Subject's owner.
func (svc *Service) AddResource(ctx context.Context, actor principal.Principal, nr NewResource) (Resource, error) {
	if !actor.IsStudent() {
		return Resource{}, ErrForbidden
	}
	nr.clean()
	if err := svc.validateStruct(nr); err != nil {
		return Resource{}, err
	}
	var size int64
	if nr.File != nil {
		var err error
		if size, err = uploadSize(nr.File); err != nil {
			return Resource{}, err
		}
		if err := content.CheckSize(size, svc.cfg.MaxUploadSize); err != nil {
			return Resource{}, err
		}
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx, err := svc.ownedSubject(actor, nr.SubjectID)
	if err != nil {
		return Resource{}, err
	}
	s := &svc.doc.Subjects[idx]

	r := Resource{
		ID:          NewID(),
		Title:       nr.Title,
		Type:        nr.Type,
		Description: nr.Description,
		DateAdded:   core.Now(),
		OwnerID:     s.OwnerID,
	}
	if nr.File != nil {
		r.ContentData = null.StringFrom(nr.File.DataURL)
		r.MimeType = null.NewString(nr.File.MimeType, nr.File.MimeType != "")
	}
	s.Resources = append([]Resource{r}, s.Resources...)

	svc.notify(NotificationSuccess, msgResourceAdded, map[string]interface{}{"Title": r.Title, "Subject": s.Name})
	svc.commit(ctx)
	return r, nil
}

func (svc *Service) DeleteResource(ctx context.Context, actor principal.Principal, subjectID, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sIdx := svc.doc.subjectIndex(subjectID)
	if sIdx < 0 {
		return ErrNotFound
	}
	s := &svc.doc.Subjects[sIdx]
	rIdx := -1
	for i, r := range s.Resources {
		if r.ID == id {
			rIdx = i
			break
		}
	}
	if rIdx < 0 {
		return ErrNotFound
	}
	r := s.Resources[rIdx]
	if r.OwnerID != actor.ID {
		return ErrForbidden
	}

	resources := make([]Resource, 0, len(s.Resources)-1)
	resources = append(resources, s.Resources[:rIdx]...)
	s.Resources = append(resources, s.Resources[rIdx+1:]...)

	svc.notify(NotificationWarning, msgResourceDeleted, map[string]interface{}{"Title": r.Title, "Subject": s.Name})
	svc.commit(ctx)
	return nil
}

// Notes

func (svc *Service) AddNote(ctx context.Context, actor principal.Principal, nn NewNote) (Note, error) {
	if !actor.IsStudent() {
		return Note{}, ErrForbidden
	}
	nn.clean()
	if err := svc.validateStruct(nn); err != nil {
		return Note{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx, err := svc.ownedSubject(actor, nn.SubjectID)
	if err != nil {
		return Note{}, err
	}

	n := Note{
		ID:        NewID(),
		SubjectID: nn.SubjectID,
		Content:   nn.Content,
		Timestamp: core.Now(),
		OwnerID:   actor.ID,
		Remarks:   []Remark{},
	}
	svc.doc.Notes = append(svc.doc.Notes, n)

	svc.notify(NotificationSuccess, msgNoteAdded, map[string]interface{}{"Subject": svc.doc.Subjects[idx].Name})
	svc.commit(ctx)
	return n, nil
}

func (svc *Service) DeleteNote(ctx context.Context, actor principal.Principal, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.noteIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	n := svc.doc.Notes[idx]
	if n.OwnerID != actor.ID {
		return ErrForbidden
	}

	notes := make([]Note, 0, len(svc.doc.Notes)-1)
	notes = append(notes, svc.doc.Notes[:idx]...)
	svc.doc.Notes = append(notes, svc.doc.Notes[idx+1:]...)

	svc.notify(NotificationWarning, msgNoteDeleted, map[string]interface{}{"Subject": svc.subjectName(n.SubjectID)})
	svc.commit(ctx)
	return nil
}

// Assignments

// AddAssignment records an Assignment. Only the metadata of its file is kept.
func (svc *Service) AddAssignment(ctx context.Context, actor principal.Principal, na NewAssignment) (Assignment, error) {
	if !actor.IsStudent() {
		return Assignment{}, ErrForbidden
	}
	na.clean()
	if err := svc.validateStruct(na); err != nil {
		return Assignment{}, err
	}
	var size int64
	if na.File != nil {
		var err error
		if size, err = uploadSize(na.File); err != nil {
			return Assignment{}, err
		}
		if err := content.CheckSize(size, svc.cfg.MaxUploadSize); err != nil {
			return Assignment{}, err
		}
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx, err := svc.ownedSubject(actor, na.SubjectID)
	if err != nil {
		return Assignment{}, err
	}

	a := Assignment{
		ID:        NewID(),
		SubjectID: na.SubjectID,
		Title:     na.Title,
		Details:   na.Details,
		Date:      core.Now(),
		OwnerID:   actor.ID,
		Remarks:   []Remark{},
	}
	if na.File != nil {
		a.FileInfo = &FileInfo{
			Name:      na.File.Name,
			MimeType:  na.File.MimeType,
			SizeLabel: bytes.Format(size),
		}
	}
	svc.doc.Assignments = append(svc.doc.Assignments, a)

	svc.notify(NotificationSuccess, msgAssignmentAdded, map[string]interface{}{"Title": a.Title, "Subject": svc.doc.Subjects[idx].Name})
	svc.commit(ctx)
	return a, nil
}

func (svc *Service) DeleteAssignment(ctx context.Context, actor principal.Principal, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.assignmentIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	a := svc.doc.Assignments[idx]
	if a.OwnerID != actor.ID {
		return ErrForbidden
	}

	assignments := make([]Assignment, 0, len(svc.doc.Assignments)-1)
	assignments = append(assignments, svc.doc.Assignments[:idx]...)
	svc.doc.Assignments = append(assignments, svc.doc.Assignments[idx+1:]...)

	svc.notify(NotificationWarning, msgAssignmentDeleted, map[string]interface{}{"Title": a.Title})
	svc.commit(ctx)
	return nil
}

// Memory

// SaveMemory creates or edits the Memory. Only its owner may edit it; remarks are kept.
func (svc *Service) SaveMemory(ctx context.Context, actor principal.Principal, mi MemoryInput) (Memory, error) {
	if !actor.IsStudent() {
		return Memory{}, ErrForbidden
	}
	mi.clean()
	if err := svc.validateStruct(mi); err != nil {
		return Memory{}, err
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	m := Memory{Remarks: []Remark{}}
	if svc.doc.Memory != nil {
		if svc.doc.Memory.ModifiedBy != actor.ID {
			return Memory{}, ErrForbidden
		}
		m.Remarks = svc.doc.Memory.Remarks
	}
	m.Title = mi.Title
	m.Content = mi.Content
	m.LastModified = core.Now()
	m.ModifiedBy = actor.ID
	svc.doc.Memory = &m

	svc.notify(NotificationSuccess, msgMemorySaved, map[string]interface{}{"Title": m.Title})
	svc.commit(ctx)
	return m, nil
}

// Notifications

// Notify records a Notification coming from another part of the platform.
func (svc *Service) Notify(ctx context.Context, typ NotificationType, message string) Notification {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	n := Notification{
		ID:        NewID(),
		Type:      typ,
		Message:   message,
		Timestamp: core.Now(),
	}
	svc.doc.Notifications = append(svc.doc.Notifications, n)
	svc.commit(ctx)
	return n
}

// ProfileUpdated records the profile change of p.
func (svc *Service) ProfileUpdated(p principal.Principal) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.notify(NotificationInfo, msgProfileUpdated, map[string]interface{}{"Name": p.DisplayName})
	svc.commit(context.Background())
}

func (svc *Service) MarkNotificationRead(ctx context.Context, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for i := range svc.doc.Notifications {
		if svc.doc.Notifications[i].ID == id {
			if !svc.doc.Notifications[i].Read {
				svc.doc.Notifications[i].Read = true
				svc.commit(ctx)
			}
			return nil
		}
	}
	return ErrNotFound
}

// ClearNotifications marks every Notification read. Nothing is deleted.
func (svc *Service) ClearNotifications(ctx context.Context) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	for i := range svc.doc.Notifications {
		svc.doc.Notifications[i].Read = true
	}
	svc.commit(ctx)
}

// Notifications returns the feed, newest first.
func (svc *Service) Notifications() []Notification {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	ns := append([]Notification{}, svc.doc.Notifications...)
	sort.SliceStable(ns, func(i, j int) bool { return ns[i].ID > ns[j].ID })
	return ns
}

func (svc *Service) UnreadCount() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	var count int
	for _, n := range svc.doc.Notifications {
		if !n.Read {
			count++
		}
	}
	return count
}

// Reads

// Snapshot returns a deep copy of the Document.
func (svc *Service) Snapshot() Document {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return svc.doc.Clone()
}

func (svc *Service) Subject(id string) (Subject, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.subjectIndex(id)
	if idx < 0 {
		return Subject{}, false
	}
	s := svc.doc.Subjects[idx]
	s.Resources = append([]Resource{}, s.Resources...)
	return s, true
}

// Resource returns Resource `id` of Subject `subjectID`.
func (svc *Service) Resource(subjectID, id string) (Resource, bool) {
	s, ok := svc.Subject(subjectID)
	if !ok {
		return Resource{}, false
	}
	for _, r := range s.Resources {
		if r.ID == id {
			return r, true
		}
	}
	return Resource{}, false
}

func (svc *Service) Memory() (Memory, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if svc.doc.Memory == nil {
		return Memory{}, false
	}
	m := *svc.doc.Memory
	m.Remarks = append([]Remark{}, m.Remarks...)
	return m, true
}

// Backups

// Restore replaces the Document with doc once its invariants hold.
func (svc *Service) Restore(ctx context.Context, actor principal.Principal, doc Document, isPrincipal func(id string) bool) error {
	if actor.ID == "" {
		return ErrForbidden
	}
	if err := doc.Check(isPrincipal); err != nil {
		return err
	}
	doc = doc.Clone()
	doc.normalize()

	svc.mu.Lock()
	defer svc.mu.Unlock()

	svc.doc = doc
	svc.notify(NotificationInfo, msgDocumentRestored, map[string]interface{}{
		"Subjects": len(doc.Subjects),
		"Quizzes":  len(doc.Quizzes),
	})
	svc.commit(ctx)
	return nil
}
