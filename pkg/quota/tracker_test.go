package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abcd"))
	assert.Equal(t, 2, EstimateTokens("abcde"))
	assert.Equal(t, 25, EstimateTokens(string(make([]byte, 100))))
}

func TestCanMakeRequest_MinuteRequestLimit(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 2, DailyRequests: 100, MinuteTokens: 10000})

	for i := 0; i < 2; i++ {
		d := tr.CanMakeRequest(10)
		require.True(t, d.Allowed)
		tr.RecordUsage(10)
	}

	d := tr.CanMakeRequest(10)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "minute request limit")
	assert.Greater(t, d.WaitSeconds, 0)
	assert.LessOrEqual(t, d.WaitSeconds, 61)
}

func TestCanMakeRequest_DailyRequestLimit(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 100, DailyRequests: 2, MinuteTokens: 10000})

	tr.RecordUsage(1)
	tr.RecordUsage(1)

	d := tr.CanMakeRequest(1)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "daily request limit")
	assert.Greater(t, d.WaitSeconds, 0)
}

func TestCanMakeRequest_TokenBudget(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 100, DailyRequests: 100, MinuteTokens: 100})

	d := tr.CanMakeRequest(101)
	assert.False(t, d.Allowed)
	assert.Contains(t, d.Reason, "token budget")

	tr.RecordUsage(50)

	assert.False(t, tr.CanMakeRequest(51).Allowed)
	assert.True(t, tr.CanMakeRequest(50).Allowed)
}

func TestCanMakeRequest_ChecksConsumeNothing(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 1, DailyRequests: 1, MinuteTokens: 100})

	for i := 0; i < 50; i++ {
		assert.True(t, tr.CanMakeRequest(10).Allowed)
	}
}

func TestRollover_MinuteWindow(t *testing.T) {
	current := time.Date(2026, 3, 10, 12, 0, 30, 0, time.UTC)
	tr := NewTracker(Limits{MinuteRequests: 1, DailyRequests: 100, MinuteTokens: 100})
	tr.now = func() time.Time { return current }

	tr.RecordUsage(100)
	assert.False(t, tr.CanMakeRequest(1).Allowed)

	// Cross the minute boundary: both request and token counters reset.
	current = current.Add(31 * time.Second)
	d := tr.CanMakeRequest(100)
	assert.True(t, d.Allowed)

	u := tr.Usage()
	assert.Equal(t, 0, u.MinuteRequests)
	assert.Equal(t, 0, u.MinuteTokens)
	assert.Equal(t, 1, u.DailyRequests)
}

func TestRollover_DayWindow(t *testing.T) {
	current := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	tr := NewTracker(Limits{MinuteRequests: 100, DailyRequests: 1, MinuteTokens: 10000})
	tr.now = func() time.Time { return current }

	tr.RecordUsage(10)
	assert.False(t, tr.CanMakeRequest(1).Allowed)

	// Cross UTC midnight: daily counter hard-resets.
	current = current.Add(2 * time.Minute)
	assert.True(t, tr.CanMakeRequest(1).Allowed)
	assert.Equal(t, 0, tr.Usage().DailyRequests)
}

func TestUsage_HealthAnnotations(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 10, DailyRequests: 1000, MinuteTokens: 100000})

	u := tr.Usage()
	assert.True(t, u.Healthy)
	assert.Empty(t, u.Warnings)
	assert.Empty(t, u.Errors)

	for i := 0; i < 8; i++ {
		tr.RecordUsage(1)
	}
	u = tr.Usage()
	assert.True(t, u.Healthy)
	require.Len(t, u.Warnings, 1)
	assert.Contains(t, u.Warnings[0], "minute requests")

	tr.RecordUsage(1)
	tr.RecordUsage(1)
	u = tr.Usage()
	assert.False(t, u.Healthy)
	require.Len(t, u.Errors, 1)
	assert.Contains(t, u.Errors[0], "minute requests")
}

func TestReset(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 1, DailyRequests: 1, MinuteTokens: 10})
	tr.RecordUsage(10)
	require.False(t, tr.CanMakeRequest(1).Allowed)

	tr.Reset()

	assert.True(t, tr.CanMakeRequest(1).Allowed)
	u := tr.Usage()
	assert.Equal(t, 0, u.MinuteRequests)
	assert.Equal(t, 0, u.DailyRequests)
	assert.Equal(t, 0, u.MinuteTokens)
}

func TestMinWaitSeconds(t *testing.T) {
	tr := NewTracker(Limits{MinuteRequests: 1, DailyRequests: 100, MinuteTokens: 100})
	assert.Equal(t, 0, tr.MinWaitSeconds())

	tr.RecordUsage(1)
	wait := tr.MinWaitSeconds()
	assert.Greater(t, wait, 0)
	assert.LessOrEqual(t, wait, 61)
}
