package handler

import (
	"fmt"

	"quiz-tutor/internal/domain"
	"quiz-tutor/internal/dto"
	"quiz-tutor/internal/logger"
	"quiz-tutor/internal/middleware"
	"quiz-tutor/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service    service.QuizService
	validation *middleware.ValidationMiddleware
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService, validation *middleware.ValidationMiddleware) *QuizHandler {
	return &QuizHandler{
		service:    service,
		validation: validation,
	}
}

func sessionOrUnauthorized(c *fiber.Ctx) (domain.SessionContext, error) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		return domain.SessionContext{}, domain.NewUnauthorizedError("Login required")
	}
	return sess, nil
}

func toQuizResponse(quiz *domain.Quiz, discarded int) dto.QuizResponse {
	questions := make([]dto.QuestionResponse, 0, len(quiz.Questions))
	for i, q := range quiz.Questions {
		questions = append(questions, dto.QuestionResponse{Index: i, Question: q.Question, Options: q.Options})
	}
	return dto.QuizResponse{
		QuizID:    quiz.ID,
		Topic:     quiz.Topic,
		Questions: questions,
		Discarded: discarded,
		CreatedAt: quiz.CreatedAt,
	}
}

// StartQuiz godoc
// @Summary Generate a quiz
// @Description Generates a multiple-choice quiz on the topic and makes it the session's in-progress quiz
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.StartQuizRequest true "Quiz topic"
// @Success 201 {object} dto.QuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes [post]
func (h *QuizHandler) StartQuiz(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}

	var req dto.StartQuizRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	res, err := h.service.StartQuiz(c.UserContext(), sess, req.Topic)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(toQuizResponse(res.Quiz, res.Discarded))
}

// CurrentQuiz godoc
// @Summary Get the in-progress quiz
// @Description Returns the session's in-progress quiz without its answer key
// @Tags quiz
// @Produce json
// @Success 200 {object} dto.QuizResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/current [get]
func (h *QuizHandler) CurrentQuiz(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}

	quiz, err := h.service.CurrentQuiz(c.UserContext(), sess)
	if err != nil {
		return err
	}
	return c.JSON(toQuizResponse(quiz, 0))
}

// SubmitQuiz godoc
// @Summary Submit answers
// @Description Grades the in-progress quiz. Unanswered questions count as incorrect.
// @Tags quiz
// @Accept json
// @Produce json
// @Param request body dto.SubmitQuizRequest true "Answers keyed by question index"
// @Success 200 {object} dto.SubmitQuizResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse "No quiz in progress, or the quiz was replaced"
// @Security ApiKeyAuth
// @Router /quizzes/current/submit [post]
func (h *QuizHandler) SubmitQuiz(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}

	var req dto.SubmitQuizRequest
	if err := h.validation.ParseBody(c, &req); err != nil {
		return err
	}

	quizID, err := h.service.GradeQuiz(c.UserContext(), sess, req.QuizID, req.Answers)
	if err != nil {
		return err
	}
	return c.JSON(dto.SubmitQuizResponse{QuizID: quizID})
}

// GetReport godoc
// @Summary Get a quiz report
// @Description Returns the graded questions of a quiz in order. A deleted quiz has an empty report.
// @Tags quiz
// @Produce json
// @Param quizID path string true "Quiz ID"
// @Success 200 {object} dto.ReportResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizID}/report [get]
func (h *QuizHandler) GetReport(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}
	quizID, _ := c.Locals(middleware.ValidatedQuizIDKey).(string)

	records, err := h.service.GetReport(c.UserContext(), sess.UserID, quizID)
	if err != nil {
		return err
	}

	resp := dto.ReportResponse{QuizID: quizID, Results: make([]dto.ResultResponse, 0, len(records))}
	for _, rec := range records {
		if rec.IsCorrect {
			resp.CorrectCount++
		}
		resp.Topic = rec.Topic
		resp.Results = append(resp.Results, dto.ResultResponse{
			QuestionNo:    rec.QuestionNo,
			Question:      rec.Question,
			UserAnswer:    rec.UserAnswer,
			CorrectAnswer: rec.CorrectAnswer,
			IsCorrect:     rec.IsCorrect,
		})
	}
	resp.TotalCount = len(records)
	return c.JSON(resp)
}

// DownloadReport godoc
// @Summary Download a quiz report as PDF
// @Tags quiz
// @Produce application/pdf
// @Param quizID path string true "Quiz ID"
// @Success 200 {file} file
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizID}/report.pdf [get]
func (h *QuizHandler) DownloadReport(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}
	quizID, _ := c.Locals(middleware.ValidatedQuizIDKey).(string)

	filename, data, err := h.service.ExportReportPDF(c.UserContext(), sess.UserID, quizID)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, filename))
	return c.Send(data)
}

// ListQuizzes godoc
// @Summary List finished quizzes
// @Description Returns per-quiz scores, newest first. Deleted quizzes are excluded.
// @Tags quiz
// @Produce json
// @Success 200 {object} dto.QuizListResponse
// @Security ApiKeyAuth
// @Router /quizzes [get]
func (h *QuizHandler) ListQuizzes(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}

	summaries, err := h.service.ListQuizzes(c.UserContext(), sess.UserID)
	if err != nil {
		return err
	}

	resp := dto.QuizListResponse{Quizzes: make([]dto.QuizSummaryResponse, 0, len(summaries))}
	for _, s := range summaries {
		resp.Quizzes = append(resp.Quizzes, dto.QuizSummaryResponse{
			QuizID:       s.QuizID,
			Topic:        s.Topic,
			CorrectCount: s.CorrectCount,
			TotalCount:   s.TotalCount,
		})
	}
	return c.JSON(resp)
}

// DeleteQuiz godoc
// @Summary Delete a quiz
// @Description Moves a quiz's results to the deleted store. The latest delete of a session can be undone.
// @Tags quiz
// @Produce json
// @Param quizID path string true "Quiz ID"
// @Success 200 {object} dto.MessageResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Security ApiKeyAuth
// @Router /quizzes/{quizID} [delete]
func (h *QuizHandler) DeleteQuiz(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}
	quizID, _ := c.Locals(middleware.ValidatedQuizIDKey).(string)

	if err := h.service.SoftDeleteQuiz(c.UserContext(), sess, quizID); err != nil {
		return err
	}
	return c.JSON(dto.MessageResponse{Message: "Quiz deleted"})
}

// UndoDelete godoc
// @Summary Undo the last delete
// @Description Restores the quiz deleted last in this session. Succeeds with restored=false when there is nothing to undo.
// @Tags quiz
// @Produce json
// @Success 200 {object} dto.UndoResponse
// @Security ApiKeyAuth
// @Router /quizzes/undo [post]
func (h *QuizHandler) UndoDelete(c *fiber.Ctx) error {
	sess, err := sessionOrUnauthorized(c)
	if err != nil {
		return err
	}

	res, err := h.service.UndoDelete(c.UserContext(), sess)
	if err != nil {
		return err
	}
	if !res.Restored {
		logger.Get().Debug("Undo requested with nothing to restore", zap.String("sessionID", sess.SessionID))
		return c.JSON(dto.UndoResponse{Restored: false, QuizID: res.QuizID, Message: "Nothing to undo"})
	}
	return c.JSON(dto.UndoResponse{Restored: true, QuizID: res.QuizID, Message: "Quiz restored"})
}
