package apierr

import (
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Code identifies a failure kind. Clients branch on Code, not on the
// human-readable message, which is not a stable contract.
type Code string

const (
	CodeAuthFailed       Code = "AUTH_FAILED"
	CodeInvalidToken     Code = "INVALID_TOKEN"
	CodeTokenExpired     Code = "TOKEN_EXPIRED"
	CodePermissionDenied Code = "PERMISSION_DENIED"
	CodeCSRFInvalid      Code = "CSRF_TOKEN_INVALID"
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeNotFound         Code = "RESOURCE_NOT_FOUND"
	CodeDuplicate        Code = "DUPLICATE_RESOURCE"
	CodeRateLimited      Code = "RATE_LIMIT_EXCEEDED"
	CodeTenantIsolation  Code = "TENANT_ISOLATION_VIOLATION"

	// CodeInternal covers panics and other unexpected failures. It is not
	// part of the recoverable client taxonomy.
	CodeInternal Code = "INTERNAL_ERROR"
)

// StatusFor maps a code to its HTTP status. The pairing is fixed: a code
// must never ship with a different status.
func StatusFor(code Code) int {
	switch code {
	case CodeAuthFailed, CodeInvalidToken, CodeTokenExpired:
		return http.StatusUnauthorized
	case CodePermissionDenied, CodeCSRFInvalid, CodeTenantIsolation:
		return http.StatusForbidden
	case CodeValidation:
		return http.StatusUnprocessableEntity
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDuplicate:
		return http.StatusConflict
	case CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError describes a single invalid field in a request body.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Envelope is the wire shape of every non-2xx response.
type Envelope struct {
	Error     string         `json:"error"`
	Code      Code           `json:"code"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	RequestID string         `json:"request_id"`
}

// Write emits the error envelope for the given code with the status the
// code maps to.
func Write(w http.ResponseWriter, r *http.Request, code Code, msg string, details map[string]any) {
	env := Envelope{
		Error:     msg,
		Code:      code,
		Details:   details,
		Timestamp: time.Now().UTC(),
		RequestID: chimiddleware.GetReqID(r.Context()),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusFor(code))
	json.NewEncoder(w).Encode(env)
}

// NotFound writes the standard not-found envelope. Cross-tenant lookups use
// this too, so ownership is never leaked.
func NotFound(w http.ResponseWriter, r *http.Request) {
	Write(w, r, CodeNotFound, "resource not found", nil)
}

// Internal writes the 500 envelope. Handlers log the cause themselves; the
// client only gets the request id to quote.
func Internal(w http.ResponseWriter, r *http.Request) {
	Write(w, r, CodeInternal, "internal server error", nil)
}

// Validation writes a field-level validation failure.
func Validation(w http.ResponseWriter, r *http.Request, fields []FieldError) {
	Write(w, r, CodeValidation, "validation failed", map[string]any{"fields": fields})
}

// PermissionDenied writes a permission failure echoing the missing permission.
func PermissionDenied(w http.ResponseWriter, r *http.Request, required string) {
	Write(w, r, CodePermissionDenied, "permission denied", map[string]any{
		"required_permission": required,
	})
}

// RateLimited writes a 429 with the retry metadata the contract requires.
func RateLimited(w http.ResponseWriter, r *http.Request, retryAfter int, limit int, window string) {
	Write(w, r, CodeRateLimited, "rate limit exceeded", map[string]any{
		"retry_after": retryAfter,
		"limit":       limit,
		"window":      window,
	})
}
