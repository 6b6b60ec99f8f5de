package repository

import (
	"context"
	"fmt"
	"time"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/repository/models"
	"quiz-tutor/internal/util"
)

const (
	resultsTable        = "results"
	deletedResultsTable = "deleted_results"

	resultColumns = "ID, USER_ID, QUIZ_ID, QUESTION_NO, TOPIC, QUESTION, USER_ANSWER, CORRECT_ANSWER, IS_CORRECT, CREATED_AT"
)

// ResultRepositoryImpl stores graded results in the results table and soft-deleted ones in
// deleted_results.
type ResultRepositoryImpl struct {
	db DBTX
}

func NewResultRepository(db DBTX) *ResultRepositoryImpl {
	return &ResultRepositoryImpl{db: db}
}

// InsertResults writes every record with the executor from ctx. Oracle has no multi-row VALUES,
// so rows go in one statement each; callers wrap the batch in a transaction.
func (r *ResultRepositoryImpl) InsertResults(ctx context.Context, records []domain.ResultRecord) error {
	query := `INSERT INTO results (` + resultColumns + `)
		VALUES (:ID, :USER_ID, :QUIZ_ID, :QUESTION_NO, :TOPIC, :QUESTION, :USER_ANSWER, :CORRECT_ANSWER, :IS_CORRECT, :CREATED_AT)`

	exec := GetExecutor(ctx, r.db)
	for i := range records {
		if _, err := exec.NamedExecContext(ctx, query, fromDomainResult(&records[i])); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrResultsAlreadyRecorded
			}
			return fmt.Errorf("failed to insert result %d of quiz %s: %w", records[i].QuestionNo, records[i].QuizID, err)
		}
	}
	return nil
}

func (r *ResultRepositoryImpl) GetResults(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	return r.selectResults(ctx, resultsTable, userID, quizID)
}

func (r *ResultRepositoryImpl) GetDeletedResults(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	return r.selectResults(ctx, deletedResultsTable, userID, quizID)
}

func (r *ResultRepositoryImpl) selectResults(ctx context.Context, table, userID, quizID string) ([]domain.ResultRecord, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT ` + resultColumns + ` FROM ` + table +
		` WHERE USER_ID = ? AND QUIZ_ID = ? ORDER BY QUESTION_NO`)

	var rows []models.Result
	if err := exec.SelectContext(ctx, &rows, query, userID, quizID); err != nil {
		return nil, fmt.Errorf("failed to select %s for quiz %s: %w", table, quizID, err)
	}

	records := make([]domain.ResultRecord, 0, len(rows))
	for i := range rows {
		records = append(records, toDomainResult(&rows[i]))
	}
	return records, nil
}

// ListQuizSummaries aggregates the user's active results per quiz, newest quiz first.
func (r *ResultRepositoryImpl) ListQuizSummaries(ctx context.Context, userID string) ([]domain.QuizSummary, error) {
	exec := GetExecutor(ctx, r.db)
	query := exec.Rebind(`SELECT QUIZ_ID, MIN(TOPIC) AS TOPIC, COUNT(*) AS TOTAL_COUNT,
		SUM(CASE WHEN IS_CORRECT = 1 THEN 1 ELSE 0 END) AS CORRECT_COUNT
		FROM results WHERE USER_ID = ? GROUP BY QUIZ_ID ORDER BY QUIZ_ID DESC`)

	var rows []models.QuizSummary
	if err := exec.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list quiz summaries: %w", err)
	}

	summaries := make([]domain.QuizSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, domain.QuizSummary{
			QuizID:       row.QuizID,
			Topic:        row.Topic,
			CorrectCount: row.CorrectCount,
			TotalCount:   row.TotalCount,
		})
	}
	return summaries, nil
}

func (r *ResultRepositoryImpl) MoveToDeleted(ctx context.Context, userID, quizID string) (int64, error) {
	return r.move(ctx, resultsTable, deletedResultsTable, userID, quizID)
}

func (r *ResultRepositoryImpl) RestoreFromDeleted(ctx context.Context, userID, quizID string) (int64, error) {
	return r.move(ctx, deletedResultsTable, resultsTable, userID, quizID)
}

// move copies a quiz's rows from one table to the other and deletes the source rows. It must
// run inside a transaction; a copy/delete count mismatch is returned as an error so the
// transaction rolls back instead of leaving the quiz split across both tables.
func (r *ResultRepositoryImpl) move(ctx context.Context, from, to, userID, quizID string) (int64, error) {
	exec := GetExecutor(ctx, r.db)

	copyQuery := exec.Rebind(`INSERT INTO ` + to + ` (` + resultColumns + `) SELECT ` + resultColumns +
		` FROM ` + from + ` WHERE USER_ID = ? AND QUIZ_ID = ?`)
	res, err := exec.ExecContext(ctx, copyQuery, userID, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to copy quiz %s from %s to %s: %w", quizID, from, to, err)
	}
	copied, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if copied == 0 {
		return 0, nil
	}

	deleteQuery := exec.Rebind(`DELETE FROM ` + from + ` WHERE USER_ID = ? AND QUIZ_ID = ?`)
	res, err = exec.ExecContext(ctx, deleteQuery, userID, quizID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete quiz %s from %s: %w", quizID, from, err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if deleted != copied {
		return 0, fmt.Errorf("moved %d rows of quiz %s but deleted %d from %s", copied, quizID, deleted, from)
	}
	return copied, nil
}

func fromDomainResult(rec *domain.ResultRecord) *models.Result {
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &models.Result{
		ID:            rec.ID,
		UserID:        rec.UserID,
		QuizID:        rec.QuizID,
		QuestionNo:    rec.QuestionNo,
		Topic:         rec.Topic,
		Question:      rec.Question,
		UserAnswer:    util.StringToNullString(rec.UserAnswer),
		CorrectAnswer: rec.CorrectAnswer,
		IsCorrect:     util.BoolToInt(rec.IsCorrect),
		CreatedAt:     createdAt,
	}
}

func toDomainResult(row *models.Result) domain.ResultRecord {
	return domain.ResultRecord{
		ID:            row.ID,
		UserID:        row.UserID,
		QuizID:        row.QuizID,
		QuestionNo:    row.QuestionNo,
		Topic:         row.Topic,
		Question:      row.Question,
		UserAnswer:    util.NullStringToString(row.UserAnswer),
		CorrectAnswer: row.CorrectAnswer,
		IsCorrect:     row.IsCorrect == 1,
		CreatedAt:     row.CreatedAt,
	}
}

var _ domain.ResultRepository = (*ResultRepositoryImpl)(nil)
