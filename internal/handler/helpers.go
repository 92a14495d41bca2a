package handler

import (
	"errors"
	"net/http"

	"diligence/internal/domain"
	"diligence/internal/httputil"
)

// handleError converts domain errors to problem responses
func handleError(w http.ResponseWriter, err error) {
	var transitionErr *domain.TransitionError
	var conflictErr *domain.ConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &transitionErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, transitionErr.Error(), map[string]interface{}{
			"machine": transitionErr.Machine,
			"from":    transitionErr.From,
			"to":      transitionErr.To,
		})
	case errors.As(err, &conflictErr):
		httputil.RespondError(w, http.StatusConflict, conflictErr.Error())
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		httputil.RespondError(w, http.StatusConflict, err.Error())
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// parseBody decodes the request body, writing the error response itself.
// Returns false when the handler should stop.
func parseBody(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := httputil.ParseJSON(w, r, dest); err != nil {
		if errors.Is(err, httputil.ErrBodyTooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, err.Error())
			return false
		}
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}
