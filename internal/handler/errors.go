package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkeller/tripstitch/internal/domain"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

// writeJSON serializes v with the given status. Encoding failures are logged
// by the caller's middleware via the 500 it would already have produced;
// there is nothing useful to do here after headers are sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a service error onto the HTTP status and error body.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{errorDetail{"not_found", unwrapMessage(err)}})
	case errors.Is(err, domain.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{errorDetail{"validation_error", unwrapMessage(err)}})
	case errors.Is(err, domain.ErrNeedsManualAssignment):
		writeJSON(w, http.StatusConflict, errorResponse{errorDetail{"needs_manual_assignment", unwrapMessage(err)}})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{errorDetail{"internal", "internal server error"}})
	}
}

// respondBadRequest rejects a request before it reaches the service layer
// (missing or malformed body, bad path parameter).
func respondBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{errorDetail{"bad_request", message}})
}

// unwrapMessage strips the "pkg.Type.Method:" call-chain prefixes services
// attach, leaving the human-readable part.
// e.g. "service.TripService.Create: validation error: name is required"
// becomes "validation error: name is required".
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for {
		idx := strings.Index(msg, ": ")
		if idx < 0 {
			return msg
		}
		prefix := msg[:idx]
		// Call-chain prefixes look like "service.TripService.Create" or
		// "repo.TripRepo.GetByID"; anything with a space is real content.
		if strings.ContainsAny(prefix, " \t") || !strings.Contains(prefix, ".") {
			return msg
		}
		msg = msg[idx+2:]
	}
}

// uuidParam extracts and parses a UUID path parameter.
func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// pageParams reads optional page/limit query parameters. Unparseable values
// are treated as absent.
func pageParams(r *http.Request) domain.PaginationParams {
	var page, limit *int
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page = &v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		limit = &v
	}
	return domain.NewPaginationParams(page, limit)
}

// decodeBody decodes the JSON request body into v, rejecting unknown fields
// so typos in client payloads fail loudly.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
