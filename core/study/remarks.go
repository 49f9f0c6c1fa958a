package study

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
)

var ErrRemarkNotAllowed = errors.New("remarks are reserved to tutors, on the designated student's work")

// RemarkTargetKind is the kind of item a Remark is attached to.
type RemarkTargetKind string

const (
	TargetNote       RemarkTargetKind = "note"
	TargetAssignment RemarkTargetKind = "assignment"
	TargetMemory     RemarkTargetKind = "memory"
)

// RemarkTarget designates a Note, an Assignment or the Memory (ID unused).
type RemarkTarget struct {
	Kind RemarkTargetKind
	ID   string
}

func (t RemarkTarget) String() string {
	if t.Kind == TargetMemory {
		return "the memory"
	}
	return fmt.Sprintf("%s %s", t.Kind, t.ID)
}

// CanRemark reports whether viewer may remark on content owned by ownerID.
func CanRemark(viewer principal.Principal, ownerID, designated string) bool {
	return viewer.IsTutor() && designated != "" && ownerID == designated
}

// AddRemark appends a Remark to the target. Remarks are never edited nor removed.
func (svc *Service) AddRemark(ctx context.Context, actor principal.Principal, target RemarkTarget, text string) (Remark, error) {
	text = core.CleanString(text)
	if text == "" {
		return Remark{}, core.NewValidationError(nil, core.FieldError{Field: "content", Error: "this field is required"})
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	var remarks *[]Remark
	switch target.Kind {
	case TargetNote:
		idx := svc.doc.noteIndex(target.ID)
		if idx < 0 {
			return Remark{}, ErrNotFound
		}
		if !CanRemark(actor, svc.doc.Notes[idx].OwnerID, svc.cfg.DesignatedStudent) {
			return Remark{}, ErrRemarkNotAllowed
		}
		remarks = &svc.doc.Notes[idx].Remarks
	case TargetAssignment:
		idx := svc.doc.assignmentIndex(target.ID)
		if idx < 0 {
			return Remark{}, ErrNotFound
		}
		if !CanRemark(actor, svc.doc.Assignments[idx].OwnerID, svc.cfg.DesignatedStudent) {
			return Remark{}, ErrRemarkNotAllowed
		}
		remarks = &svc.doc.Assignments[idx].Remarks
	case TargetMemory:
		if svc.doc.Memory == nil {
			return Remark{}, ErrNotFound
		}
		if !CanRemark(actor, svc.doc.Memory.ModifiedBy, svc.cfg.DesignatedStudent) {
			return Remark{}, ErrRemarkNotAllowed
		}
		remarks = &svc.doc.Memory.Remarks
	default:
		return Remark{}, core.NewValidationError(nil, core.FieldError{Field: "target", Error: "unknown remark target"})
	}

	r := Remark{Content: text, AuthorID: actor.ID, Timestamp: core.Now()}
	*remarks = append(*remarks, r)

	svc.notify(NotificationSuccess, msgRemarkAdded, map[string]interface{}{"Author": actor.DisplayName, "Target": target.String()})
	svc.commit(ctx)
	return r, nil
}
