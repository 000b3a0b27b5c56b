package schemas

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation           = errors.New("validation")
	ErrNotFound             = errors.New("not_found")
	ErrUnsupportedMediaType = errors.New("unsupported_media_type")
	ErrPayloadTooLarge      = errors.New("payload_too_large")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrUploadTimeout        = errors.New("upload_timeout")
)

// ValidationError carries one message per offending field.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string]string{}}
}

func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = message
}

// OrNil lets callers collect violations and return them in one go.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	// identical messages on several fields are reported once
	seen := map[string]bool{}
	var msgs []string
	for _, name := range names {
		if msg := e.Fields[name]; !seen[msg] {
			seen[msg] = true
			msgs = append(msgs, msg)
		}
	}
	return strings.Join(msgs, ", ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// PayloadTooLargeError names the ceiling that was hit so the client can act on it.
type PayloadTooLargeError struct {
	Subject string
	Limit   int64
}

func (e *PayloadTooLargeError) Error() string {
	return fmt.Sprintf("%s must be less than %s. Please use a smaller file.", e.Subject, FormatBytes(e.Limit))
}

func (e *PayloadTooLargeError) Unwrap() error {
	return ErrPayloadTooLarge
}

// FormatBytes renders whole MiB as "10MB", anything else in bytes.
func FormatBytes(n int64) string {
	const mib = 1 << 20
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	if n >= mib {
		return fmt.Sprintf("%.1fMB", float64(n)/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}

// NotFoundError names the missing entity ("User", "Post").
type NotFoundError struct {
	Entity string
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
