package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
	}{
		{"rate limit status", errors.New("error, status code: 429, message: slow down"), KindRateLimited, true},
		{"quota wording", errors.New("quota exceeded for this project"), KindRateLimited, true},
		{"resource exhausted", errors.New("RESOURCE EXHAUSTED: try later"), KindRateLimited, true},
		{"unauthorized", errors.New("error, status code: 401, message: invalid api key"), KindFatal, false},
		{"forbidden", errors.New("403 permission denied"), KindFatal, false},
		{"bad request", errors.New("error, status code: 400, message: invalid request"), KindFatal, false},
		{"model missing", errors.New("model gemini-9000 not found"), KindFatal, false},
		{"timeout", errors.New("context deadline exceeded"), KindTransient, true},
		{"connection refused", errors.New("dial tcp: connection refused"), KindTransient, true},
		{"server error", errors.New("error, status code: 503, message: service unavailable"), KindTransient, true},
		{"overloaded", errors.New("the model is overloaded"), KindTransient, true},
		{"unknown", errors.New("something inexplicable"), KindFatal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classified := ClassifyError(tt.err)
			require.NotNil(t, classified)
			assert.Equal(t, tt.kind, classified.Kind)
			assert.Equal(t, tt.retryable, classified.Retryable)
			assert.ErrorIs(t, classified, tt.err, "cause must be preserved for errors.Is")
		})
	}
}

func TestClassifyError_Nil(t *testing.T) {
	assert.Nil(t, ClassifyError(nil))
}

func TestClassifyError_AlreadyClassified(t *testing.T) {
	original := NewError(KindQuotaExhausted, "all keys exhausted", true, nil)
	original.WaitSeconds = 42

	classified := ClassifyError(fmt.Errorf("wrapped: %w", original))
	assert.Same(t, original, classified)
}

func TestError_Message(t *testing.T) {
	e := &Error{
		Kind:        KindQuotaExhausted,
		Message:     "all keys exhausted",
		WaitSeconds: 30,
	}
	msg := e.Error()
	assert.Contains(t, msg, "quota_exhausted")
	assert.Contains(t, msg, "wait 30s")
	assert.Contains(t, msg, "all keys exhausted")
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindTransient, KindOf(NewError(KindTransient, "x", true, nil)))
	assert.Equal(t, KindFatal, KindOf(errors.New("plain")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewError(KindTransient, "x", true, nil)))
	assert.False(t, IsRetryable(NewError(KindFatal, "x", false, nil)))
	assert.False(t, IsRetryable(errors.New("plain")))
}
