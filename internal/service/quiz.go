package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"quiz-tutor/internal/cache"
	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/logger"
	"quiz-tutor/internal/parser"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// MaxTopicLength bounds the topic a user may request a quiz on.
const MaxTopicLength = 200

// startQuizTimeout bounds one shared quiz generation. It covers every generator attempt.
const startQuizTimeout = 3 * time.Minute

// QuizService drives a quiz from topic submission to graded report, plus soft delete and undo
// of finished quizzes. Session-scoped operations take the caller's SessionContext.
type QuizService interface {
	StartQuiz(ctx context.Context, sess domain.SessionContext, topic string) (*domain.StartQuizResult, error)
	CurrentQuiz(ctx context.Context, sess domain.SessionContext) (*domain.Quiz, error)
	GradeQuiz(ctx context.Context, sess domain.SessionContext, quizID string, answers map[int]string) (string, error)
	GetReport(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error)
	ListQuizzes(ctx context.Context, userID string) ([]domain.QuizSummary, error)
	ExportReportPDF(ctx context.Context, userID, quizID string) (filename string, data []byte, err error)
	SoftDeleteQuiz(ctx context.Context, sess domain.SessionContext, quizID string) error
	UndoDelete(ctx context.Context, sess domain.SessionContext) (*domain.UndoResult, error)
}

type quizService struct {
	generator    domain.QuizGenerator
	results      domain.ResultRepository
	txManager    domain.TransactionManager
	sessions     domain.SessionStore
	renderer     domain.ReportRenderer
	ids          domain.IDGenerator
	maxQuestions int
	starts       singleflight.Group
}

// NewQuizService creates a new quiz service
func NewQuizService(
	generator domain.QuizGenerator,
	results domain.ResultRepository,
	txManager domain.TransactionManager,
	sessions domain.SessionStore,
	renderer domain.ReportRenderer,
	ids domain.IDGenerator,
	maxQuestions int,
) QuizService {
	if maxQuestions <= 0 || maxQuestions > domain.MaxQuizQuestions {
		maxQuestions = domain.MaxQuizQuestions
	}
	return &quizService{
		generator:    generator,
		results:      results,
		txManager:    txManager,
		sessions:     sessions,
		renderer:     renderer,
		ids:          ids,
		maxQuestions: maxQuestions,
	}
}

func validateTopic(topic string) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", domain.ValidationErrors{domain.NewMissingFieldError("topic")}
	}
	if n := utf8.RuneCountInString(topic); n > MaxTopicLength {
		return "", domain.ValidationErrors{domain.NewOutOfRangeError("topic", n, 1, MaxTopicLength)}
	}
	return topic, nil
}

func requireQuizID(quizID string) error {
	if strings.TrimSpace(quizID) == "" {
		return domain.ValidationErrors{domain.NewMissingFieldError("quiz_id")}
	}
	return nil
}

// StartQuiz generates a quiz for topic and makes it the session's in-progress quiz, replacing
// any earlier one. Concurrent identical requests from one session share a single generation.
func (s *quizService) StartQuiz(ctx context.Context, sess domain.SessionContext, topic string) (*domain.StartQuizResult, error) {
	topic, err := validateTopic(topic)
	if err != nil {
		return nil, err
	}

	key := cache.GenerateCacheKey("quiz", "start", sess.SessionID, strings.ToLower(topic))
	// The shared call must not die with whichever caller happened to start it.
	ch := s.starts.DoChan(key, func() (interface{}, error) {
		genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), startQuizTimeout)
		defer cancel()
		return s.startQuiz(genCtx, sess, topic)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Get().Debug("Collapsed duplicate quiz request", zap.String("sessionID", sess.SessionID), zap.String("topic", topic))
		}
		return res.Val.(*domain.StartQuizResult), nil
	case <-ctx.Done():
		logger.Get().Warn("Caller stopped waiting for quiz generation",
			zap.String("sessionID", sess.SessionID), zap.String("topic", topic), zap.Error(ctx.Err()))
		return nil, domain.NewGenerationFailedError(ctx.Err())
	}
}

func (s *quizService) startQuiz(ctx context.Context, sess domain.SessionContext, topic string) (*domain.StartQuizResult, error) {
	l := logger.Get()

	text, err := s.generator.GenerateQuizText(ctx, topic)
	if err != nil {
		l.Error("Quiz generation failed", zap.String("topic", topic), zap.String("userID", sess.UserID), zap.Error(err))
		return nil, domain.NewGenerationFailedError(err)
	}

	parsed := parser.ParseN(text, s.maxQuestions)
	for _, issue := range parsed.Issues {
		l.Warn("Quiz text issue", zap.String("topic", topic), zap.String("issue", issue.String()))
	}

	questions, discarded := parsed.WellFormed()
	if len(questions) == 0 {
		return nil, domain.NewGenerationFailedError(
			fmt.Errorf("no usable questions in model output (%d parsed, %d malformed)", len(parsed.Questions), discarded))
	}

	quiz := domain.NewQuiz(s.ids.NewID(), topic, questions)
	if err := s.sessions.SaveQuiz(ctx, sess.SessionID, quiz); err != nil {
		return nil, domain.NewInternalError("failed to store quiz in session", err)
	}

	l.Info("Quiz started",
		zap.String("quizID", quiz.ID),
		zap.String("userID", sess.UserID),
		zap.String("topic", topic),
		zap.Int("questions", len(questions)),
		zap.Int("discarded", discarded))
	return &domain.StartQuizResult{Quiz: quiz, Discarded: discarded}, nil
}

func (s *quizService) CurrentQuiz(ctx context.Context, sess domain.SessionContext) (*domain.Quiz, error) {
	quiz, err := s.sessions.LoadQuiz(ctx, sess.SessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load quiz from session", err)
	}
	if quiz == nil {
		return nil, domain.NewNoActiveQuizError()
	}
	return quiz, nil
}

// GradeQuiz grades the in-progress quiz and persists one result per question in a single
// transaction. Missing or blank answers count as incorrect.
func (s *quizService) GradeQuiz(ctx context.Context, sess domain.SessionContext, quizID string, answers map[int]string) (string, error) {
	l := logger.Get()

	quiz, err := s.CurrentQuiz(ctx, sess)
	if err != nil {
		return "", err
	}
	if quizID != quiz.ID {
		l.Warn("Submission for a quiz that is no longer in progress",
			zap.String("submittedQuizID", quizID), zap.String("activeQuizID", quiz.ID))
		return "", domain.NewNoActiveQuizError().WithContext("quiz_id", quizID)
	}

	now := time.Now()
	records := make([]domain.ResultRecord, 0, len(quiz.Questions))
	correct := 0
	for i, q := range quiz.Questions {
		submitted := strings.TrimSpace(answers[i])
		ok := q.IsCorrect(submitted)
		if ok {
			correct++
		}
		records = append(records, domain.ResultRecord{
			ID:            s.ids.NewID(),
			UserID:        sess.UserID,
			QuizID:        quiz.ID,
			QuestionNo:    i,
			Topic:         quiz.Topic,
			Question:      q.Question,
			UserAnswer:    submitted,
			CorrectAnswer: q.AnswerLetter(),
			IsCorrect:     ok,
			CreatedAt:     now,
		})
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.results.InsertResults(txCtx, records)
	})
	if errors.Is(err, domain.ErrResultsAlreadyRecorded) {
		// A concurrent submission of the same quiz committed first.
		l.Warn("Quiz already graded", zap.String("quizID", quiz.ID), zap.String("userID", sess.UserID))
		return "", domain.NewNoActiveQuizError().WithContext("quiz_id", quiz.ID)
	}
	if err != nil {
		l.Error("Failed to save quiz results", zap.String("quizID", quiz.ID), zap.Error(err))
		return "", domain.NewInternalError("failed to save quiz results", err)
	}

	if err := s.sessions.ClearQuiz(ctx, sess.SessionID); err != nil {
		// Results are committed; a leftover quiz only lets the user resubmit into a stale form.
		l.Warn("Failed to clear graded quiz from session", zap.String("quizID", quiz.ID), zap.Error(err))
	}

	l.Info("Quiz graded",
		zap.String("quizID", quiz.ID),
		zap.String("userID", sess.UserID),
		zap.Int("correct", correct),
		zap.Int("total", len(records)))
	return quiz.ID, nil
}

// GetReport returns the active results of a quiz ordered by question; a deleted or unknown quiz
// yields an empty slice.
func (s *quizService) GetReport(ctx context.Context, userID, quizID string) ([]domain.ResultRecord, error) {
	if err := requireQuizID(quizID); err != nil {
		return nil, err
	}
	records, err := s.results.GetResults(ctx, userID, quizID)
	if err != nil {
		return nil, domain.NewInternalError("failed to load quiz report", err)
	}
	return records, nil
}

func (s *quizService) ListQuizzes(ctx context.Context, userID string) ([]domain.QuizSummary, error) {
	summaries, err := s.results.ListQuizSummaries(ctx, userID)
	if err != nil {
		return nil, domain.NewInternalError("failed to list quizzes", err)
	}
	return summaries, nil
}

func (s *quizService) ExportReportPDF(ctx context.Context, userID, quizID string) (string, []byte, error) {
	records, err := s.GetReport(ctx, userID, quizID)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, domain.NewQuizNotFoundError(quizID)
	}

	data, err := s.renderer.RenderReport(quizID, records)
	if err != nil {
		return "", nil, domain.NewInternalError("failed to render quiz report", err)
	}
	return fmt.Sprintf("quiz_%s.pdf", quizID), data, nil
}

// SoftDeleteQuiz moves a quiz's results to the deleted store and makes it the session's single
// pending undo, replacing any earlier one.
func (s *quizService) SoftDeleteQuiz(ctx context.Context, sess domain.SessionContext, quizID string) error {
	l := logger.Get()
	if err := requireQuizID(quizID); err != nil {
		return err
	}

	var moved int64
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		moved, err = s.results.MoveToDeleted(txCtx, sess.UserID, quizID)
		return err
	})
	if err != nil {
		l.Error("Failed to delete quiz", zap.String("quizID", quizID), zap.Error(err))
		return domain.NewInternalError("failed to delete quiz", err)
	}
	if moved == 0 {
		return domain.NewQuizNotFoundError(quizID)
	}

	if err := s.sessions.SetPendingUndo(ctx, sess.SessionID, quizID); err != nil {
		// The delete stands; only the undo shortcut is lost.
		l.Error("Failed to remember deleted quiz for undo", zap.String("quizID", quizID), zap.Error(err))
	}

	l.Info("Quiz deleted", zap.String("quizID", quizID), zap.String("userID", sess.UserID), zap.Int64("rows", moved))
	return nil
}

// UndoDelete restores the session's pending deleted quiz. With nothing pending it reports
// Restored=false rather than failing.
func (s *quizService) UndoDelete(ctx context.Context, sess domain.SessionContext) (*domain.UndoResult, error) {
	l := logger.Get()

	quizID, err := s.sessions.PendingUndo(ctx, sess.SessionID)
	if err != nil {
		return nil, domain.NewInternalError("failed to read pending undo", err)
	}
	if quizID == "" {
		return &domain.UndoResult{Restored: false}, nil
	}

	var restored int64
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		restored, err = s.results.RestoreFromDeleted(txCtx, sess.UserID, quizID)
		return err
	})
	if err != nil {
		l.Error("Failed to restore quiz", zap.String("quizID", quizID), zap.Error(err))
		return nil, domain.NewInternalError("failed to restore quiz", err)
	}

	if err := s.sessions.ClearPendingUndo(ctx, sess.SessionID); err != nil {
		l.Warn("Failed to clear pending undo", zap.String("quizID", quizID), zap.Error(err))
	}

	if restored == 0 {
		l.Warn("Pending undo had nothing to restore", zap.String("quizID", quizID))
		return &domain.UndoResult{Restored: false, QuizID: quizID}, nil
	}

	l.Info("Quiz restored", zap.String("quizID", quizID), zap.String("userID", sess.UserID), zap.Int64("rows", restored))
	return &domain.UndoResult{Restored: true, QuizID: quizID, Rows: restored}, nil
}
