package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/etudes/core"
	"github.com/trezcool/etudes/core/principal"
	"github.com/trezcool/etudes/core/study"
)

var optionLetters = [4]string{"A", "B", "C", "D"}

func (cli *commandLine) quiz(ctx context.Context, actor principal.Principal, args []string) error {
	if len(args) == 0 {
		args = []string{"list"}
	}
	flags := cli.newFlagSet("quiz " + args[0])

	switch args[0] {
	case "list":
		quizzes := cli.svc.Quizzes()
		if len(quizzes) == 0 {
			cli.println(cli.styles.faint.Render("no quizzes"))
		}
		for _, q := range quizzes {
			cli.printf("%s %s %s\n", cli.styles.id.Render(q.ID), q.Title,
				cli.styles.faint.Render(fmt.Sprintf("(%d questions, by %s, %d results)", len(q.Questions), q.CreatedBy, len(q.Results))))
		}
		return nil

	case "show":
		if len(args) != 2 {
			cli.printUsage()
			return errHelp
		}
		q, ok := cli.svc.Quiz(args[1])
		if !ok {
			return study.ErrNotFound
		}
		cli.printQuiz(q, actor.IsTutor())
		return nil

	case "create":
		title := flags.StringP("title", "t", "", "The quiz title.")
		questions := flags.StringArrayP("question", "q", nil, "A question: 'QUESTION|A|B|C|D|CORRECT' (CORRECT: A-D or 0-3). Repeatable.")
		if err := parse(flags, args[1:]); err != nil {
			return err
		}
		draft := &study.QuizDraft{Title: *title}
		for i, raw := range *questions {
			question, options, correct, err := parseQuestion(raw)
			if err == nil {
				err = draft.AddQuestion(question, options, correct)
			}
			if err != nil {
				return core.NewValidationError(err, core.FieldError{Field: fmt.Sprintf("question[%d]", i), Error: err.Error()})
			}
		}
		q, err := cli.svc.CreateQuiz(ctx, actor, draft)
		if err != nil {
			return err
		}
		cli.success("quiz %s created: %s", q.Title, q.ID)
		return nil

	case "take":
		answers := flags.StringP("answers", "a", "", "Comma separated answers (A-D or 0-3), prompted when empty.")
		if err := parse(flags, args[1:]); err != nil {
			return err
		}
		if flags.NArg() != 1 {
			flags.Usage()
			return errHelp
		}
		q, ok := cli.svc.Quiz(flags.Arg(0))
		if !ok {
			return study.ErrNotFound
		}
		return cli.takeQuiz(ctx, actor, q, *answers)

	case "delete":
		if len(args) != 2 {
			cli.printUsage()
			return errHelp
		}
		if err := cli.svc.DeleteQuiz(ctx, actor, args[1]); err != nil {
			return err
		}
		cli.success("quiz deleted")
		return nil
	}
	cli.printUsage()
	return errHelp
}

// parseQuestion parses 'QUESTION|A|B|C|D|CORRECT'.
func parseQuestion(raw string) (question string, options [4]string, correct int, err error) {
	parts := strings.Split(raw, "|")
	if len(parts) != 6 {
		return "", options, 0, fmt.Errorf("expected QUESTION|A|B|C|D|CORRECT, got %q", raw)
	}
	copy(options[:], parts[1:5])
	correct, err = parseOption(parts[5])
	return parts[0], options, correct, err
}

// parseOption accepts a letter (A-D) or an index (0-3).
func parseOption(s string) (int, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, l := range optionLetters {
		if s == l {
			return i, nil
		}
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 || i >= len(optionLetters) {
		return 0, fmt.Errorf("%q is not an option (A-D or 0-3)", s)
	}
	return i, nil
}

func (cli *commandLine) printQuiz(q study.Quiz, withAnswers bool) {
	cli.println(cli.styles.title.Render(q.Title))
	for i, question := range q.Questions {
		cli.printf("%d. %s\n", i+1, question.Question)
		for j, opt := range question.Options {
			line := fmt.Sprintf("   %s) %s", optionLetters[j], opt)
			if withAnswers && j == question.CorrectAnswerIndex {
				line = cli.styles.success.Render(line + " *")
			}
			cli.println(line)
		}
	}
	if withAnswers {
		for _, res := range q.Results {
			cli.println(cli.styles.faint.Render(fmt.Sprintf("%s: %d/%d (%d%%) in %ds on %s",
				res.UserID, res.Score, res.TotalQuestions, res.Percentage, res.TimeTakenSeconds, formatTime(res.CompletedAt))))
		}
	}
}

// takeQuiz runs an Attempt, with the given answers or interactively.
func (cli *commandLine) takeQuiz(ctx context.Context, actor principal.Principal, q study.Quiz, answers string) error {
	attempt := study.NewAttempt(q)
	if err := attempt.Start(); err != nil {
		return err
	}

	var given []string
	if answers != "" {
		given = strings.Split(answers, ",")
	}
	for i, question := range q.Questions {
		var answer string
		if i < len(given) {
			answer = given[i]
		} else {
			cli.printf("%d. %s\n", i+1, question.Question)
			for j, opt := range question.Options {
				cli.printf("   %s) %s\n", optionLetters[j], opt)
			}
			var err error
			if answer, err = cli.prompt("answer: "); err != nil {
				return err
			}
		}
		if answer == "" {
			continue // left unanswered
		}
		opt, err := parseOption(answer)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: fmt.Sprintf("answers[%d]", i), Error: err.Error()})
		}
		if err := attempt.Select(i, opt); err != nil {
			return err
		}
	}

	res, err := cli.svc.SubmitAttempt(ctx, actor, attempt)
	if err != nil {
		return err
	}
	for i, r := range attempt.Review() {
		mark, style := "✗", cli.styles.error
		if r.Correct {
			mark, style = "✓", cli.styles.success
		}
		cli.println(style.Render(fmt.Sprintf("%s %d. %s: %s", mark, i+1, r.Question.Question, r.Question.Options[r.Selected])))
		if !r.Correct {
			cli.println(cli.styles.faint.Render("    correct: " + r.Question.Options[r.Question.CorrectAnswerIndex]))
		}
	}
	cli.println(cli.styles.title.Render(fmt.Sprintf("score: %d/%d (%d%%)", res.Score, res.TotalQuestions, res.Percentage)))
	return nil
}
