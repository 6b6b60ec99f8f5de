package dto

import "time"

// StartQuizRequest represents the request body for generating a quiz
// @Description Request body for starting a quiz
type StartQuizRequest struct {
	Topic string `json:"topic" validate:"required,max=200"`
}

// QuestionResponse is a question as shown to the quiz taker, without its answer key.
type QuestionResponse struct {
	Index    int      `json:"index"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizResponse represents an in-progress quiz
// @Description In-progress quiz
type QuizResponse struct {
	QuizID    string             `json:"quiz_id"`
	Topic     string             `json:"topic"`
	Questions []QuestionResponse `json:"questions"`
	Discarded int                `json:"discarded,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// SubmitQuizRequest represents the user's answers, keyed by question index
// @Description Request body for submitting answers
type SubmitQuizRequest struct {
	QuizID  string         `json:"quiz_id" validate:"required,max=26"`
	Answers map[int]string `json:"answers" validate:"dive,max=8"`
}

// SubmitQuizResponse references the stored report
type SubmitQuizResponse struct {
	QuizID string `json:"quiz_id"`
}

// ResultResponse is one graded question
type ResultResponse struct {
	QuestionNo    int    `json:"question_no"`
	Question      string `json:"question"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer"`
	IsCorrect     bool   `json:"is_correct"`
}

// ReportResponse represents a graded quiz
// @Description Quiz report
type ReportResponse struct {
	QuizID       string           `json:"quiz_id"`
	Topic        string           `json:"topic"`
	CorrectCount int              `json:"correct_count"`
	TotalCount   int              `json:"total_count"`
	Results      []ResultResponse `json:"results"`
}

// QuizSummaryResponse is one row of the quiz history
type QuizSummaryResponse struct {
	QuizID       string `json:"quiz_id"`
	Topic        string `json:"topic"`
	CorrectCount int    `json:"correct_count"`
	TotalCount   int    `json:"total_count"`
}

// QuizListResponse represents the user's quiz history, newest first
type QuizListResponse struct {
	Quizzes []QuizSummaryResponse `json:"quizzes"`
}

// UndoResponse reports the outcome of an undo request
type UndoResponse struct {
	Restored bool   `json:"restored"`
	QuizID   string `json:"quiz_id,omitempty"`
	Message  string `json:"message"`
}
