// Package parser extracts multiple-choice questions from free-text generator output.
//
// The expected layout per question is
//
//	Q: question text
//	A) first option
//	B) second option
//	C) third option
//	D) fourth option
//	Answer: B
//
// Parsing is best effort: whitespace is trimmed, unrelated lines are ignored, and option or
// answer lines that appear before any question are skipped until the next "Q:" line.
package parser

import (
	"fmt"
	"strings"

	"quiz-tutor/internal/domain"
)

const (
	questionMarker = "Q:"
	answerMarker   = "Answer:"
)

var optionMarkers = [...]string{"A)", "B)", "C)", "D)"}

// Issue describes a line or record the parser could not use as-is.
type Issue struct {
	Line    int    // 1-based source line, 0 for record-level issues
	Index   int    // question index for record-level issues, -1 otherwise
	Message string
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("line %d: %s", i.Line, i.Message)
	}
	return fmt.Sprintf("question %d: %s", i.Index, i.Message)
}

// Result is the outcome of parsing one block of text.
type Result struct {
	Questions []domain.QuizQuestion
	Issues    []Issue
}

// Parse converts text into at most domain.MaxQuizQuestions questions in source order.
// Malformed questions are kept and reported in Issues.
func Parse(text string) Result {
	return ParseN(text, domain.MaxQuizQuestions)
}

// ParseN is Parse with an explicit cap. A non-positive limit disables the cap.
func ParseN(text string, limit int) Result {
	var (
		res     Result
		current *domain.QuizQuestion
	)

	commit := func() {
		if current != nil {
			res.Questions = append(res.Questions, *current)
			current = nil
		}
	}

	for i, raw := range strings.Split(text, "\n") {
		lineNo := i + 1
		line := strings.TrimSpace(raw)

		switch {
		case strings.HasPrefix(line, questionMarker):
			commit()
			current = &domain.QuizQuestion{
				Question: strings.TrimSpace(line[len(questionMarker):]),
				Options:  make([]string, 0, domain.OptionsPerQuestion),
			}
		case isOptionLine(line):
			if current == nil {
				res.Issues = append(res.Issues, Issue{Line: lineNo, Index: -1, Message: "option outside of a question, skipped"})
				continue
			}
			current.Options = append(current.Options, line)
		case strings.HasPrefix(line, answerMarker):
			if current == nil {
				res.Issues = append(res.Issues, Issue{Line: lineNo, Index: -1, Message: "answer outside of a question, skipped"})
				continue
			}
			_, after, _ := strings.Cut(line, ":")
			current.Answer = strings.TrimSpace(after)
		}
	}
	commit()

	if limit > 0 && len(res.Questions) > limit {
		res.Questions = res.Questions[:limit]
	}

	for i, q := range res.Questions {
		if err := q.Validate(); err != nil {
			res.Issues = append(res.Issues, Issue{Index: i, Message: err.Error()})
		}
	}
	return res
}

// WellFormed returns the questions that pass validation and how many were dropped.
func (r Result) WellFormed() ([]domain.QuizQuestion, int) {
	out := make([]domain.QuizQuestion, 0, len(r.Questions))
	for _, q := range r.Questions {
		if q.Validate() == nil {
			out = append(out, q)
		}
	}
	return out, len(r.Questions) - len(out)
}

func isOptionLine(line string) bool {
	for _, m := range optionMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}
