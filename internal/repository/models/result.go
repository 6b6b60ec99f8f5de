package models

import (
	"database/sql"
	"time"
)

// Result is one row of the results and deleted_results tables. Both tables share this shape.
type Result struct {
	ID            string         `db:"ID"`
	UserID        string         `db:"USER_ID"`
	QuizID        string         `db:"QUIZ_ID"`
	QuestionNo    int            `db:"QUESTION_NO"`
	Topic         string         `db:"TOPIC"`
	Question      string         `db:"QUESTION"`
	UserAnswer    sql.NullString `db:"USER_ANSWER"` // NULL when the question was left blank
	CorrectAnswer string         `db:"CORRECT_ANSWER"`
	IsCorrect     int            `db:"IS_CORRECT"` // 0 or 1
	CreatedAt     time.Time      `db:"CREATED_AT"`
}

// QuizSummary is the aggregate row returned by the quiz history query.
type QuizSummary struct {
	QuizID       string `db:"QUIZ_ID"`
	Topic        string `db:"TOPIC"`
	TotalCount   int    `db:"TOTAL_COUNT"`
	CorrectCount int    `db:"CORRECT_COUNT"`
}
