package api

import (
	"alcyxob/totalfit/internal/app"
	"alcyxob/totalfit/internal/chat"
	"alcyxob/totalfit/internal/domain"
	"alcyxob/totalfit/internal/service"
	"alcyxob/totalfit/internal/store"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// writeError maps engine errors to HTTP status codes.
func writeError(c *gin.Context, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		abortWithError(c, http.StatusBadRequest, verr.Error())
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, service.ErrMissingCredentials):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNoSession),
		errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrBusy),
		errors.Is(err, app.ErrNothingToSave),
		errors.Is(err, app.ErrAlreadySaved),
		errors.Is(err, app.ErrNotEligible),
		errors.Is(err, chat.ErrBusy),
		errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrExportDisabled):
		abortWithError(c, http.StatusNotImplemented, err.Error())
	case errors.Is(err, store.ErrStoreUnavailable):
		abortWithError(c, http.StatusServiceUnavailable, "Storage is temporarily unavailable")
	default:
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
