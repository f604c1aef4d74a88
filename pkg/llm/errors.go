package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a provider error so callers can pick the right recovery:
// rotation, backoff, or giving up.
type Kind string

const (
	// KindInvalidInput marks empty or malformed caller input. Never retried.
	KindInvalidInput Kind = "invalid_input"
	// KindQuotaExhausted means no configured key has headroom. Retryable
	// after the reported wait.
	KindQuotaExhausted Kind = "quota_exhausted"
	// KindRateLimited means the provider throttled the active key.
	// Triggers one rotation attempt, then one retry.
	KindRateLimited Kind = "rate_limited"
	// KindTransient is a network or provider error unrelated to quota.
	// Retried with exponential backoff.
	KindTransient Kind = "transient"
	// KindFatal is a malformed request or unsupported input. Not retried.
	KindFatal Kind = "fatal"
)

// Error is a structured AI provider error with classification.
type Error struct {
	Kind        Kind   // Classification of the error
	Message     string // Human-readable message
	Retryable   bool   // Whether the operation can be retried
	WaitSeconds int    // For quota errors: seconds until the nearest window reset
	StatusCode  int    // HTTP status code if applicable
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Kind))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.WaitSeconds > 0 {
		parts = append(parts, fmt.Sprintf("wait %ds", e.WaitSeconds))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured provider error.
func NewError(kind Kind, message string, retryable bool, cause error) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// ClassifyError categorizes a raw provider/transport error into a
// structured Error. Unknown errors classify as fatal: blind retries against
// an error we cannot name waste quota.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	// Already classified.
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr
	}

	errStr := err.Error()
	lower := strings.ToLower(errStr)

	statusCode := 0
	for _, code := range []int{400, 401, 403, 404, 422, 429, 500, 502, 503, 504} {
		if strings.Contains(errStr, fmt.Sprintf("%d", code)) {
			statusCode = code
			break
		}
	}

	// Quota and throttling signals. Providers use both 429 and quota
	// wording, so check these before the generic buckets.
	if strings.Contains(errStr, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "quota") || strings.Contains(lower, "resource exhausted") ||
		strings.Contains(lower, "too many requests") {
		e := NewError(KindRateLimited, "provider throttled the request", true, err)
		e.StatusCode = statusCode
		return e
	}

	// Authentication and permission failures (not retryable).
	if strings.Contains(errStr, "401") || strings.Contains(errStr, "403") ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "permission denied") {
		e := NewError(KindFatal, "authentication failed", false, err)
		e.StatusCode = statusCode
		return e
	}

	// Malformed request or missing model (not retryable without a config change).
	if strings.Contains(errStr, "400") || strings.Contains(errStr, "404") ||
		strings.Contains(errStr, "422") || strings.Contains(lower, "invalid request") ||
		(strings.Contains(lower, "model") && strings.Contains(lower, "not found")) {
		e := NewError(KindFatal, "malformed request", false, err)
		e.StatusCode = statusCode
		return e
	}

	// Timeouts and connection failures (retryable with backoff).
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "broken pipe") ||
		strings.Contains(lower, "context canceled") {
		e := NewError(KindTransient, "transport failure", true, err)
		e.StatusCode = statusCode
		return e
	}

	// 5xx server errors (retryable with backoff).
	if strings.Contains(errStr, "500") || strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "503") || strings.Contains(errStr, "504") ||
		strings.Contains(lower, "internal server error") || strings.Contains(lower, "service unavailable") ||
		strings.Contains(lower, "overloaded") {
		e := NewError(KindTransient, "provider server error", true, err)
		e.StatusCode = statusCode
		return e
	}

	e := NewError(KindFatal, "provider error", false, err)
	e.StatusCode = statusCode
	return e
}

// KindOf extracts the Kind from an error, or KindFatal for unclassified errors.
func KindOf(err error) Kind {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind
	}
	return KindFatal
}

// IsRetryable returns true if the error declares itself retryable.
func IsRetryable(err error) bool {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Retryable
	}
	return false
}
