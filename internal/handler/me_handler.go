package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/smartquiz-backend/internal/middleware"
	"github.com/stemsi/smartquiz-backend/internal/model"
	"github.com/stemsi/smartquiz-backend/internal/response"
	"github.com/stemsi/smartquiz-backend/internal/service"
	"github.com/stemsi/smartquiz-backend/internal/validator"
)

// MeHandler serves the signed-in user's own attempts.
type MeHandler struct {
	sessionService *service.SessionService
	resultService  *service.ResultService
}

// NewMeHandler creates a new MeHandler.
func NewMeHandler(sessionService *service.SessionService, resultService *service.ResultService) *MeHandler {
	return &MeHandler{
		sessionService: sessionService,
		resultService:  resultService,
	}
}

// GetActiveSession godoc
// GET /api/v1/me/active-session
// Lets a client offer to resume an attempt after a reload.
func (h *MeHandler) GetActiveSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	active, err := h.sessionService.ActiveSession(c.Request.Context(), claims.Subject)
	if err != nil {
		failWith(c, err, response.ErrNoActiveSession)
		return
	}
	if active == nil {
		response.Fail(c, http.StatusNotFound, response.ErrNoActiveSession)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"active_session": active})
}

// ListHistory godoc
// GET /api/v1/me/history?page=1&per_page=10
func (h *MeHandler) ListHistory(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var q model.HistoryQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}
	q.Normalize()

	entries, total, err := h.resultService.History(c.Request.Context(), claims.Subject, q.Page, q.PerPage)
	if err != nil {
		failWith(c, err, response.ErrNotFound)
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"history": entries}, response.NewPagination(q.Page, q.PerPage, total))
}

// GetResult godoc
// GET /api/v1/me/results/:result_id
func (h *MeHandler) GetResult(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	resultID, ok := parseUUIDParam(c, "result_id")
	if !ok {
		return
	}

	res, err := h.resultService.Result(c.Request.Context(), claims.Subject, resultID)
	if err != nil {
		failWith(c, err, response.ErrResultNotFound)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"result": res})
}
