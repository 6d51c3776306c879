package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"loopyard/internal/auth"
	"loopyard/internal/logging"
	"loopyard/internal/store"
	"loopyard/internal/upload"
	"loopyard/internal/validate"
)

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type listBody struct {
	Count   int64 `json:"count"`
	Results any   `json:"results"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondList(w http.ResponseWriter, count int64, results any) {
	respondJSON(w, http.StatusOK, listBody{Count: count, Results: results})
}

// respondError maps domain errors onto HTTP statuses. Unrecognized errors
// become opaque 500s so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	if fe, ok := validate.AsFieldErrors(err); ok {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fe.Fields})
		return
	}
	if ve, ok := upload.AsValidationError(err); ok {
		respondJSON(w, http.StatusBadRequest, errorBody{
			Error:  "validation failed",
			Fields: map[string]string{ve.Field: ve.Reason},
		})
		return
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		respondJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	case errors.Is(err, store.ErrSelfToggle):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrForbidden):
		// The scoped queries should make this unreachable; log it so a
		// regression in scoping is visible.
		logging.WithContext(r.Context()).Warn().
			Str("path", r.URL.Path).
			Msg("ownership check rejected a scoped row")
		respondJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case errors.Is(err, store.ErrUserExists):
		respondJSON(w, http.StatusConflict, errorBody{Error: "username already taken"})
	case errors.Is(err, store.ErrEmailExists):
		respondJSON(w, http.StatusConflict, errorBody{Error: "email already registered"})
	case errors.Is(err, store.ErrInvalidCredentials):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
	case errors.Is(err, auth.ErrExpiredToken):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "token expired"})
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrWrongTokenType):
		respondJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid token"})
	default:
		logging.WithContext(r.Context()).Error().
			Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return validate.Field("body", "invalid JSON body")
	}
	return nil
}

// idParam parses the {id} route parameter.
func idParam(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validate.Field("id", "must be a positive integer")
	}
	return id, nil
}

// queryID parses a required integer query parameter such as loop_id.
func queryID(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, validate.Field(name, "this field is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, validate.Field(name, "must be a positive integer")
	}
	return id, nil
}

// pageFrom reads page and page_size query parameters, falling back to the
// store defaults on absent or malformed values.
func pageFrom(r *http.Request) store.Page {
	q := r.URL.Query()
	var page store.Page
	if n, err := strconv.Atoi(q.Get("page")); err == nil {
		page.Number = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil {
		page.Size = n
	}
	return page
}
