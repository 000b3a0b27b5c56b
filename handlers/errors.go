package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"postboard/schemas"
)

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const uploadTimeoutMessage = "Upload took too long. Please try a smaller file or a faster connection."

// writeError translates domain errors into client responses. Anything
// unrecognized is logged and reported without detail.
func writeError(rw http.ResponseWriter, r *http.Request, err error) {
	var (
		maxBytesErr   *http.MaxBytesError
		validationErr *schemas.ValidationError
		tooLargeErr   *schemas.PayloadTooLargeError
		notFoundErr   *schemas.NotFoundError
	)

	switch {
	case errors.As(err, &maxBytesErr):
		writeJSON(rw, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "PayloadTooLarge",
			Message: fmt.Sprintf("Request body must be less than %s. Please use a smaller file.", schemas.FormatBytes(maxBytesErr.Limit)),
		})
	case errors.Is(err, schemas.ErrUploadTimeout):
		writeJSON(rw, http.StatusRequestTimeout, ErrorResponse{Error: "UploadTimeout", Message: uploadTimeoutMessage})
	case errors.As(err, &validationErr):
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation",
			Message: validationErr.Error(),
			Fields:  validationErr.Fields,
		})
	case errors.As(err, &tooLargeErr):
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{Error: "PayloadTooLarge", Message: tooLargeErr.Error()})
	case errors.Is(err, schemas.ErrUnsupportedMediaType):
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{Error: "UnsupportedMediaType", Message: err.Error()})
	case errors.As(err, &notFoundErr):
		writeJSON(rw, http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: notFoundErr.Error()})
	case errors.Is(err, schemas.ErrNotFound):
		writeJSON(rw, http.StatusNotFound, ErrorResponse{Error: "NotFound", Message: "Not found"})
	case errors.Is(err, schemas.ErrUnauthorized):
		slog.Debug("Unauthorized request", "path", r.URL.Path, "error", err)
		writeJSON(rw, http.StatusUnauthorized, ErrorResponse{Error: "Unauthorized", Message: "Not authorized, token failed"})
	default:
		slog.Error("Request failed",
			"request_id", RequestIDFromContext(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeJSON(rw, http.StatusInternalServerError, ErrorResponse{Error: "Internal", Message: "Something went wrong"})
	}
}

func writeRateLimited(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusTooManyRequests, ErrorResponse{
		Error:   "TooManyRequests",
		Message: "Too many requests, please try again later",
	})
}

func writeRouteNotFound(rw http.ResponseWriter, r *http.Request) {
	writeError(rw, r, &schemas.NotFoundError{Entity: "Route"})
}
