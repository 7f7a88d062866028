package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/response"
	"github.com/stemsi/smartquiz-backend/internal/service"
	"github.com/stemsi/smartquiz-backend/internal/validator"
)

// QuizHandler handles quiz catalogue and admin quiz endpoints.
type QuizHandler struct {
	quizService    *service.QuizService
	maxImportBytes int64
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService *service.QuizService, maxImportBytes int64) *QuizHandler {
	return &QuizHandler{
		quizService:    quizService,
		maxImportBytes: maxImportBytes,
	}
}

// ListQuizzes godoc
// GET /api/v1/quizzes
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.List(c.Request.Context())
	if err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quizzes": quizzes})
}

// GetQuiz godoc
// GET /api/v1/quizzes/:quiz_id
// Returns the quiz with its per-difficulty question counts.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, ok := parseUUIDParam(c, "quiz_id")
	if !ok {
		return
	}

	detail, err := h.quizService.Get(c.Request.Context(), quizID)
	if err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"quiz": detail})
}

// ImportQuiz godoc
// POST /api/v1/admin/quizzes
// Imports a quiz document produced by the question generator.
func (h *QuizHandler) ImportQuiz(c *gin.Context) {
	if h.maxImportBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxImportBytes)
	}

	var req model.ImportQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Fail(c, http.StatusRequestEntityTooLarge, response.ErrInvalidPayload)
			return
		}
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, validator.TranslateErrors(err))
		return
	}

	detail, err := h.quizService.Import(c.Request.Context(), req)
	if err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"quiz": detail})
}

// ListQuestions godoc
// GET /api/v1/admin/quizzes/:quiz_id/questions?difficulty=easy
// Lists questions including their correct answers.
func (h *QuizHandler) ListQuestions(c *gin.Context) {
	quizID, ok := parseUUIDParam(c, "quiz_id")
	if !ok {
		return
	}

	var q model.QuestionQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions, err := h.quizService.Questions(c.Request.Context(), quizID, model.Tier(q.Tier))
	if err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// DeleteQuiz godoc
// DELETE /api/v1/admin/quizzes/:quiz_id
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, ok := parseUUIDParam(c, "quiz_id")
	if !ok {
		return
	}

	if err := h.quizService.Delete(c.Request.Context(), quizID); err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "quiz deleted"})
}

// GetStatistics godoc
// GET /api/v1/admin/quizzes/:quiz_id/statistics
func (h *QuizHandler) GetStatistics(c *gin.Context) {
	quizID, ok := parseUUIDParam(c, "quiz_id")
	if !ok {
		return
	}

	stats, err := h.quizService.Statistics(c.Request.Context(), quizID)
	if err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"statistics": stats})
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
