package domain

import (
	"context"
	"strings"
	"time"
)

// MaxQuizQuestions is the upper bound on questions kept from one generated quiz.
const MaxQuizQuestions = 15

// OptionsPerQuestion is the number of labeled options a well-formed question carries.
const OptionsPerQuestion = 4

// QuizQuestion is one multiple-choice question as extracted from generator output.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"` // full lines, marker included ("A) ...")
	Answer   string   `json:"answer"`  // correct letter, A-D
}

// AnswerLetter returns the upper-cased, trimmed answer key.
func (q QuizQuestion) AnswerLetter() string {
	return NormalizeAnswer(q.Answer)
}

// Validate reports why a question is malformed, or nil when it has exactly four options and an
// answer letter that points at one of them.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return NewValidationError("question text is required")
	}
	if len(q.Options) != OptionsPerQuestion {
		return NewValidationError("question must have exactly 4 options")
	}
	letter := q.AnswerLetter()
	if len(letter) != 1 || letter[0] < 'A' || letter[0] > 'D' {
		return NewValidationError("answer must be one of A, B, C, D")
	}
	for _, opt := range q.Options {
		if strings.HasPrefix(opt, letter+")") {
			return nil
		}
	}
	return NewValidationError("answer letter does not match any option")
}

// IsCorrect grades a submitted answer against the key. Empty submissions never match.
func (q QuizQuestion) IsCorrect(submitted string) bool {
	normalized := NormalizeAnswer(submitted)
	return normalized != "" && normalized == q.AnswerLetter()
}

// NormalizeAnswer trims and upper-cases an answer letter.
func NormalizeAnswer(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}

// Quiz is an in-progress quiz held in session storage until it is graded.
type Quiz struct {
	ID        string         `json:"id"`
	Topic     string         `json:"topic"`
	Questions []QuizQuestion `json:"questions"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewQuiz creates a new Quiz instance
func NewQuiz(id, topic string, questions []QuizQuestion) *Quiz {
	return &Quiz{
		ID:        id,
		Topic:     topic,
		Questions: questions,
		CreatedAt: time.Now(),
	}
}

// ResultRecord is the graded outcome of one question. Records of one quiz live either in the
// active store or in the deleted store, never in both.
type ResultRecord struct {
	ID            string
	UserID        string
	QuizID        string
	QuestionNo    int
	Topic         string
	Question      string
	UserAnswer    string
	CorrectAnswer string
	IsCorrect     bool
	CreatedAt     time.Time
}

// QuizSummary aggregates the active results of one quiz.
type QuizSummary struct {
	QuizID       string
	Topic        string
	CorrectCount int
	TotalCount   int
}

// SessionContext identifies the logged-in user and the session whose ephemeral state
// (in-progress quiz, pending undo) a workflow operation acts on.
type SessionContext struct {
	SessionID string
	UserID    string
}

// StartQuizResult is returned by QuizWorkflow.StartQuiz.
type StartQuizResult struct {
	Quiz      *Quiz
	Discarded int // malformed questions left out of the quiz
}

// UndoResult reports the outcome of an undo request.
type UndoResult struct {
	Restored bool
	QuizID   string
	Rows     int64
}

// QuizGenerator is the external text generator that produces raw quiz text for a topic.
type QuizGenerator interface {
	GenerateQuizText(ctx context.Context, topic string) (string, error)
}

// ReportRenderer renders a quiz report to a downloadable document.
type ReportRenderer interface {
	RenderReport(quizID string, records []ResultRecord) ([]byte, error)
}

// IDGenerator mints unique, time-ordered identifiers.
type IDGenerator interface {
	NewID() string
}

// ResultRepository persists graded results in the active and deleted stores.
// ErrResultsAlreadyRecorded is returned by ResultRepository.InsertResults when a quiz question
// already has a result for the user.
var ErrResultsAlreadyRecorded = NewValidationError("results already recorded for this quiz")

type ResultRepository interface {
	InsertResults(ctx context.Context, records []ResultRecord) error
	GetResults(ctx context.Context, userID, quizID string) ([]ResultRecord, error)
	GetDeletedResults(ctx context.Context, userID, quizID string) ([]ResultRecord, error)
	ListQuizSummaries(ctx context.Context, userID string) ([]QuizSummary, error)
	// MoveToDeleted and RestoreFromDeleted must run inside a transaction started by a
	// TransactionManager; they return the number of rows moved.
	MoveToDeleted(ctx context.Context, userID, quizID string) (int64, error)
	RestoreFromDeleted(ctx context.Context, userID, quizID string) (int64, error)
}

// TransactionManager runs fn inside a single database transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ValidationError represents a validation error
type ValidationError struct {
	message string
}

func (e *ValidationError) Error() string {
	return e.message
}

func NewValidationError(message string) error {
	return &ValidationError{message: message}
}
