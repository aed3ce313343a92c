package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bilan/internal/core"
	"bilan/internal/ledger"
	"bilan/internal/log"
	"bilan/internal/services"
)

// validationErrors answer 422; anything a client could fix in the payload.
var validationErrors = []error{
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
	core.ErrInvalidAmount,
	core.ErrInvalidQuantity,
	core.ErrInvalidItem,
	core.ErrEmptyName,
	core.ErrEmptyDescription,
	core.ErrNegativePrice,
	ErrMissingField,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// errorResponse maps a service error to its response.
func errorResponse(err error) *JSONResponseBuilder {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return NotFoundError(err.Error())
	case errors.Is(err, services.ErrNegativeMarginUnconfirmed):
		return ConfirmationRequiredError(err.Error())
	case errors.Is(err, core.ErrInvalidRange):
		return BadRequestError(err.Error())
	case isValidationError(err):
		return UnprocessableEntityError(err.Error())
	}
	return InternalServerError("internal error")
}

// fail writes the mapped error and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse(err)
	if resp.statusCode >= http.StatusInternalServerError {
		log.FromContext(r.Context()).WithComponent(log.ComponentHTTP).ErrorContext(r.Context(), "Request failed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err.Error())
	}
	resp.Write(w)
}

// invalid writes a 422 for a field that failed to parse.
func invalid(w http.ResponseWriter, field string, err error) {
	UnprocessableEntityError(field + ": " + err.Error()).Write(w)
}

// pathID parses a positive integer path segment.
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
