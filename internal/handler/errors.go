package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/smartquiz-backend/internal/importer"
	"github.com/stemsi/smartquiz-backend/internal/quiz"
	"github.com/stemsi/smartquiz-backend/internal/response"
	"github.com/stemsi/smartquiz-backend/internal/service"
)

// classify maps a domain error to its HTTP status and error code.
// notFound names the resource a bare quiz.ErrNotFound refers to.
func classify(err error, notFound response.ErrCode) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrSessionNotFound
	case errors.Is(err, service.ErrNotSessionOwner):
		return http.StatusForbidden, response.ErrNotSessionOwner
	case errors.Is(err, quiz.ErrSessionClosed):
		return http.StatusConflict, response.ErrSessionClosed
	case errors.Is(err, quiz.ErrNotPresenting):
		return http.StatusConflict, response.ErrNotPresenting
	case errors.Is(err, quiz.ErrNextNotReady):
		return http.StatusConflict, response.ErrNextNotReady
	case errors.Is(err, quiz.ErrInvalidOption):
		return http.StatusBadRequest, response.ErrInvalidOption
	case errors.Is(err, quiz.ErrEmptyBank):
		return http.StatusUnprocessableEntity, response.ErrEmptyBank
	case errors.Is(err, importer.ErrInvalidDocument):
		return http.StatusBadRequest, response.ErrInvalidQuizDocument
	case errors.Is(err, quiz.ErrPermissionDenied):
		return http.StatusForbidden, response.ErrPermissionDenied
	case errors.Is(err, quiz.ErrNotFound):
		return http.StatusNotFound, notFound
	}
	return http.StatusInternalServerError, response.ErrInternal
}

// failWith writes the error response for err and logs unexpected failures.
func failWith(c *gin.Context, err error, notFound response.ErrCode) {
	status, code := classify(err, notFound)
	switch {
	case status >= http.StatusInternalServerError:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		response.Fail(c, status, code)
	case code == response.ErrInvalidQuizDocument:
		response.FailWithMessage(c, status, code, err.Error())
	default:
		response.Fail(c, status, code)
	}
}
