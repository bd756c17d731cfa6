package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/AdamBeresnev/aibuilders/internal/httputil"
	"github.com/AdamBeresnev/aibuilders/internal/middleware"
	"github.com/AdamBeresnev/aibuilders/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

// respondError maps service errors onto API status codes. Anything it does
// not recognise is logged and hidden behind a generic 500. A 401 points back
// at the login page with the request as its redirect.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.JSONError(w, http.StatusBadRequest, httputil.ErrorBody{Error: service.ErrValidation.Error(), Fields: verr.Fields})
	case errors.Is(err, service.ErrValidation):
		httputil.JSONError(w, http.StatusBadRequest, httputil.ErrorBody{Error: err.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		httputil.JSONError(w, http.StatusUnauthorized, httputil.ErrorBody{Error: "authentication required", Redirect: middleware.LoginPath(r)})
	case errors.Is(err, service.ErrForbidden):
		httputil.JSONError(w, http.StatusForbidden, httputil.ErrorBody{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		httputil.JSONError(w, http.StatusNotFound, httputil.ErrorBody{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrEmailTaken):
		httputil.JSONError(w, http.StatusConflict, httputil.ErrorBody{Error: err.Error()})
	default:
		httputil.JSONInternalError(w, "request failed", err)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %v: %w", err, service.ErrValidation)
	}
	return nil
}

// idParam parses a uuid path parameter. Malformed ids cannot match a row, so
// they are reported as not found.
func idParam(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s %q: %w", name, chi.URLParam(r, name), service.ErrNotFound)
	}
	return id, nil
}
