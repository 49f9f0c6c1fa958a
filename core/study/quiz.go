package study

import (
	"context"
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
)

var (
	ErrAttemptState = errors.New("invalid quiz attempt state")
	ErrIncomplete   = errors.New("every question must be answered")
	ErrEmptyQuiz    = errors.New("the quiz has no questions")
)

// QuizDraft accumulates questions before the quiz is created. It is never persisted.
type QuizDraft struct {
	Title     string
	questions []Question
}

// AddQuestion validates and appends a question.
func (d *QuizDraft) AddQuestion(question string, options [4]string, correctIndex int) error {
	var flds []core.FieldError
	question = core.CleanString(question)
	if question == "" {
		flds = append(flds, core.FieldError{Field: "question", Error: "this field is required"})
	}
	for i := range options {
		options[i] = core.CleanString(options[i])
		if options[i] == "" {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("options[%d]", i), Error: "this field is required"})
		}
	}
	if correctIndex < 0 || correctIndex >= len(options) {
		flds = append(flds, core.FieldError{Field: "correctAnswerIndex", Error: fmt.Sprintf("must be between 0 and %d", len(options)-1)})
	}
	if len(flds) > 0 {
		return core.NewValidationError(nil, flds...)
	}

	d.questions = append(d.questions, Question{
		ID:                 NewID(),
		Question:           question,
		Options:            options,
		CorrectAnswerIndex: correctIndex,
	})
	return nil
}

// RemoveQuestion removes the i-th question.
func (d *QuizDraft) RemoveQuestion(i int) error {
	if i < 0 || i >= len(d.questions) {
		return ErrNotFound
	}
	d.questions = append(d.questions[:i:i], d.questions[i+1:]...)
	return nil
}

func (d *QuizDraft) Questions() []Question {
	return append([]Question{}, d.questions...)
}

// CreateQuiz turns the draft into a Quiz (tutors only). The draft is reset on success.
func (svc *Service) CreateQuiz(ctx context.Context, actor principal.Principal, d *QuizDraft) (Quiz, error) {
	if !actor.IsTutor() {
		return Quiz{}, ErrForbidden
	}
	title := core.CleanString(d.Title)
	var flds []core.FieldError
	if title == "" {
		flds = append(flds, core.FieldError{Field: "title", Error: "this field is required"})
	}
	if len(d.questions) == 0 {
		flds = append(flds, core.FieldError{Field: "questions", Error: "add at least one question"})
	}
	if len(flds) > 0 {
		return Quiz{}, core.NewValidationError(nil, flds...)
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	q := Quiz{
		ID:        NewID(),
		Title:     title,
		Questions: d.Questions(),
		CreatedBy: actor.ID,
		CreatedAt: core.Now(),
		Results:   []QuizResult{},
	}
	svc.doc.Quizzes = append(svc.doc.Quizzes, q)
	*d = QuizDraft{}

	svc.notify(NotificationSuccess, msgQuizCreated, map[string]interface{}{"Title": q.Title, "Questions": len(q.Questions)})
	svc.commit(ctx)
	return q.clone(), nil
}

func (svc *Service) DeleteQuiz(ctx context.Context, actor principal.Principal, id string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.quizIndex(id)
	if idx < 0 {
		return ErrNotFound
	}
	q := svc.doc.Quizzes[idx]
	if !actor.IsTutor() || q.CreatedBy != actor.ID {
		return ErrForbidden
	}

	quizzes := make([]Quiz, 0, len(svc.doc.Quizzes)-1)
	quizzes = append(quizzes, svc.doc.Quizzes[:idx]...)
	svc.doc.Quizzes = append(quizzes, svc.doc.Quizzes[idx+1:]...)

	svc.notify(NotificationWarning, msgQuizDeleted, map[string]interface{}{"Title": q.Title})
	svc.commit(ctx)
	return nil
}

func (svc *Service) Quiz(id string) (Quiz, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.quizIndex(id)
	if idx < 0 {
		return Quiz{}, false
	}
	return svc.doc.Quizzes[idx].clone(), true
}

func (svc *Service) Quizzes() []Quiz {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	quizzes := make([]Quiz, len(svc.doc.Quizzes))
	for i, q := range svc.doc.Quizzes {
		quizzes[i] = q.clone()
	}
	return quizzes
}

// AttemptState of a quiz Attempt.
type AttemptState int

const (
	NotStarted AttemptState = iota
	InProgress
	Submitted
)

func (s AttemptState) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case InProgress:
		return "in progress"
	case Submitted:
		return "submitted"
	}
	return "unknown"
}

// Attempt is one run through a Quiz: NotStarted -> InProgress -> Submitted.
type Attempt struct {
	quiz     Quiz
	state    AttemptState
	start    core.Timestamp
	selected map[int]int
	result   *QuizResult
}

func NewAttempt(q Quiz) *Attempt {
	return &Attempt{quiz: q.clone(), selected: make(map[int]int)}
}

func (a *Attempt) Quiz() Quiz          { return a.quiz }
func (a *Attempt) State() AttemptState { return a.state }

func (a *Attempt) Start() error {
	if a.state != NotStarted {
		return ErrAttemptState
	}
	a.state = InProgress
	a.start = core.Now()
	return nil
}

// Select records the option chosen for a question; choosing again overrides.
func (a *Attempt) Select(question, option int) error {
	if a.state != InProgress {
		return ErrAttemptState
	}
	if question < 0 || question >= len(a.quiz.Questions) {
		return core.NewValidationError(nil, core.FieldError{Field: "question", Error: "no such question"})
	}
	if option < 0 || option >= len(a.quiz.Questions[question].Options) {
		return core.NewValidationError(nil, core.FieldError{Field: "option", Error: "no such option"})
	}
	a.selected[question] = option
	return nil
}

// Selected returns the chosen option of a question.
func (a *Attempt) Selected(question int) (int, bool) {
	opt, ok := a.selected[question]
	return opt, ok
}

// Complete reports whether every question has a selection, which submission requires.
func (a *Attempt) Complete() bool {
	return len(a.selected) == len(a.quiz.Questions)
}

// Result is set once the Attempt is submitted.
func (a *Attempt) Result() (QuizResult, bool) {
	if a.result == nil {
		return QuizResult{}, false
	}
	return *a.result, true
}

func (a *Attempt) score(userID string) QuizResult {
	end := core.Now()
	var score int
	answers := make(map[int]int, len(a.selected))
	for i, q := range a.quiz.Questions {
		opt := a.selected[i]
		answers[i] = opt
		if opt == q.CorrectAnswerIndex {
			score++
		}
	}
	total := len(a.quiz.Questions)
	elapsed := int(end.Sub(a.start).Seconds())
	if elapsed < 0 {
		elapsed = 0
	}
	return QuizResult{
		QuizID:           a.quiz.ID,
		UserID:           userID,
		Score:            score,
		TotalQuestions:   total,
		Percentage:       int(math.Round(100 * float64(score) / float64(total))),
		TimeTakenSeconds: elapsed,
		CompletedAt:      end,
		Answers:          answers,
	}
}

// QuestionReview tells how a question was answered.
type QuestionReview struct {
	Question Question
	Selected int
	Correct  bool
}

// Review of a submitted Attempt, in question order.
func (a *Attempt) Review() []QuestionReview {
	if a.result == nil {
		return nil
	}
	review := make([]QuestionReview, len(a.quiz.Questions))
	for i, q := range a.quiz.Questions {
		sel := a.result.Answers[i]
		review[i] = QuestionReview{Question: q, Selected: sel, Correct: sel == q.CorrectAnswerIndex}
	}
	return review
}

// SubmitAttempt scores a complete Attempt of actor and appends the result to its Quiz.
// Retakes append new results.
func (svc *Service) SubmitAttempt(ctx context.Context, actor principal.Principal, a *Attempt) (QuizResult, error) {
	if a.state != InProgress {
		return QuizResult{}, ErrAttemptState
	}
	if len(a.quiz.Questions) == 0 {
		return QuizResult{}, core.NewValidationError(ErrEmptyQuiz, core.FieldError{Field: "questions", Error: ErrEmptyQuiz.Error()})
	}
	if !a.Complete() {
		return QuizResult{}, core.NewValidationError(ErrIncomplete, core.FieldError{Field: "answers", Error: ErrIncomplete.Error()})
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()

	idx := svc.doc.quizIndex(a.quiz.ID)
	if idx < 0 {
		return QuizResult{}, ErrNotFound
	}
	res := a.score(actor.ID)
	a.state = Submitted
	a.result = &res

	q := &svc.doc.Quizzes[idx]
	stored := res
	stored.Answers = make(map[int]int, len(res.Answers))
	for k, v := range res.Answers {
		stored.Answers[k] = v
	}
	q.Results = append(q.Results, stored)

	svc.notify(NotificationSuccess, msgQuizSubmitted, map[string]interface{}{
		"Title":      q.Title,
		"Score":      res.Score,
		"Total":      res.TotalQuestions,
		"Percentage": res.Percentage,
	})
	svc.commit(ctx)
	return res, nil
}
