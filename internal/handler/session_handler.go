package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/smartquiz-backend/internal/middleware"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
	"github.com/stemsi/smartquiz-backend/internal/response"
	"github.com/stemsi/smartquiz-backend/internal/service"
	"github.com/stemsi/smartquiz-backend/internal/validator"
)

// SessionHandler drives quiz sessions over plain HTTP.
type SessionHandler struct {
	sessionService *service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// StartSession godoc
// POST /api/v1/sessions
// Starts an attempt. Anonymous callers may play but their results are not
// attributed to anyone.
func (h *SessionHandler) StartSession(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	quizID, err := uuid.Parse(req.QuizID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	st, err := h.sessionService.Start(c.Request.Context(), middleware.GetIdentity(c), quizID)
	if err != nil {
		failWith(c, err, response.ErrQuizNotFound)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": quiz.NewView(st)})
}

// GetSession godoc
// GET /api/v1/sessions/:session_id
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	st, err := h.sessionService.Get(middleware.GetIdentity(c), sessionID)
	h.respond(c, st, err)
}

// SelectOption godoc
// POST /api/v1/sessions/:session_id/select
func (h *SessionHandler) SelectOption(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	var req model.SelectOptionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	st, err := h.sessionService.Select(c.Request.Context(), middleware.GetIdentity(c), sessionID, req.Option)
	h.respond(c, st, err)
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:session_id/submit
// Returns once the next question has been chosen and the feedback is ready.
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	st, err := h.sessionService.Submit(c.Request.Context(), middleware.GetIdentity(c), sessionID)
	h.respond(c, st, err)
}

// NextQuestion godoc
// POST /api/v1/sessions/:session_id/next
func (h *SessionHandler) NextQuestion(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	st, err := h.sessionService.Next(c.Request.Context(), middleware.GetIdentity(c), sessionID)
	h.respond(c, st, err)
}

// AbandonSession godoc
// DELETE /api/v1/sessions/:session_id
func (h *SessionHandler) AbandonSession(c *gin.Context) {
	sessionID, ok := parseUUIDParam(c, "session_id")
	if !ok {
		return
	}

	st, err := h.sessionService.Abandon(c.Request.Context(), middleware.GetIdentity(c), sessionID)
	h.respond(c, st, err)
}

func (h *SessionHandler) respond(c *gin.Context, st quiz.State, err error) {
	if err != nil {
		failWith(c, err, response.ErrSessionNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": quiz.NewView(st)})
}
