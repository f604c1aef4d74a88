// Package quota tracks per-API-key usage against sliding minute/day windows
// and rotates between keys when the active one runs out of headroom.
package quota

import (
	"fmt"
	"sync"
	"time"
)

// Limits holds the configured caps for one API key.
type Limits struct {
	MinuteRequests int
	DailyRequests  int
	MinuteTokens   int
}

// DefaultLimits returns the provider free-tier defaults.
func DefaultLimits() Limits {
	return Limits{
		MinuteRequests: 15,
		DailyRequests:  1500,
		MinuteTokens:   1_000_000,
	}
}

// Decision is the outcome of a quota check. It never carries an error:
// callers must check Allowed before issuing a provider call.
type Decision struct {
	Allowed     bool   `json:"allowed"`
	Reason      string `json:"reason,omitempty"`
	WaitSeconds int    `json:"wait_seconds,omitempty"`
}

// Usage is a point-in-time snapshot of one key's window counters.
type Usage struct {
	MinuteRequests   int      `json:"minute_requests"`
	MinuteLimit      int      `json:"minute_limit"`
	DailyRequests    int      `json:"daily_requests"`
	DailyLimit       int      `json:"daily_limit"`
	MinuteTokens     int      `json:"minute_tokens"`
	TokenMinuteLimit int      `json:"token_minute_limit"`
	Healthy          bool     `json:"healthy"`
	Warnings         []string `json:"warnings"`
	Errors           []string `json:"errors"`
}

// Utilization thresholds for the telemetry snapshot.
const (
	warnUtilization      = 0.80
	unhealthyUtilization = 0.95
)

// EstimateTokens approximates the token cost of text before a call is made.
// The provider reports exact counts after the fact; four characters per
// token is close enough for budgeting.
func EstimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// Tracker counts requests and tokens for a single API key across wall-clock
// minute and day windows. Counters hard-reset at window boundaries; there is
// no partial decay. All methods are safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	limits Limits

	// Injectable clock for tests.
	now func() time.Time

	minuteWindow   time.Time // truncated to the minute
	dayWindow      time.Time // UTC calendar day
	minuteRequests int
	dailyRequests  int
	minuteTokens   int
}

// NewTracker creates a tracker with the given limits.
func NewTracker(limits Limits) *Tracker {
	return &Tracker{
		limits: limits,
		now:    time.Now,
	}
}

// rollover resets counters whose wall-clock window has passed.
// Caller must hold t.mu.
func (t *Tracker) rollover(now time.Time) {
	minute := now.UTC().Truncate(time.Minute)
	if !minute.Equal(t.minuteWindow) {
		t.minuteWindow = minute
		t.minuteRequests = 0
		t.minuteTokens = 0
	}

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.Equal(t.dayWindow) {
		t.dayWindow = day
		t.dailyRequests = 0
	}
}

// secondsToMinuteReset returns seconds until the next minute boundary.
func secondsToMinuteReset(now time.Time) int {
	next := now.UTC().Truncate(time.Minute).Add(time.Minute)
	return int(next.Sub(now.UTC()).Seconds()) + 1
}

// secondsToDayReset returns seconds until the next UTC midnight.
func secondsToDayReset(now time.Time) int {
	next := now.UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	return int(next.Sub(now.UTC()).Seconds()) + 1
}

// CanMakeRequest decides whether a call with the given estimated token cost
// fits inside every window. It mutates nothing except window rollover and
// never returns an error.
func (t *Tracker) CanMakeRequest(estimatedTokens int) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rollover(now)

	if t.minuteRequests >= t.limits.MinuteRequests {
		return Decision{
			Allowed:     false,
			Reason:      fmt.Sprintf("minute request limit reached (%d/%d)", t.minuteRequests, t.limits.MinuteRequests),
			WaitSeconds: secondsToMinuteReset(now),
		}
	}

	if t.dailyRequests >= t.limits.DailyRequests {
		return Decision{
			Allowed:     false,
			Reason:      fmt.Sprintf("daily request limit reached (%d/%d)", t.dailyRequests, t.limits.DailyRequests),
			WaitSeconds: secondsToDayReset(now),
		}
	}

	if t.minuteTokens+estimatedTokens > t.limits.MinuteTokens {
		return Decision{
			Allowed:     false,
			Reason:      fmt.Sprintf("minute token budget exceeded (%d+%d > %d)", t.minuteTokens, estimatedTokens, t.limits.MinuteTokens),
			WaitSeconds: secondsToMinuteReset(now),
		}
	}

	return Decision{Allowed: true}
}

// RecordUsage counts one completed request and its actual token cost.
// Call this only after a provider response was actually received;
// abandoned calls must not consume budget.
func (t *Tracker) RecordUsage(actualTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(t.now())
	t.minuteRequests++
	t.dailyRequests++
	t.minuteTokens += actualTokens
}

// Reset clears all counters. Administrative use only.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.minuteRequests = 0
	t.dailyRequests = 0
	t.minuteTokens = 0
}

// Usage returns a snapshot of the current windows with health annotations:
// warnings at 80% utilization, unhealthy above 95%.
func (t *Tracker) Usage() Usage {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(t.now())

	u := Usage{
		MinuteRequests:   t.minuteRequests,
		MinuteLimit:      t.limits.MinuteRequests,
		DailyRequests:    t.dailyRequests,
		DailyLimit:       t.limits.DailyRequests,
		MinuteTokens:     t.minuteTokens,
		TokenMinuteLimit: t.limits.MinuteTokens,
		Healthy:          true,
		Warnings:         []string{},
		Errors:           []string{},
	}

	windows := []struct {
		name  string
		used  int
		limit int
	}{
		{"minute requests", t.minuteRequests, t.limits.MinuteRequests},
		{"daily requests", t.dailyRequests, t.limits.DailyRequests},
		{"minute tokens", t.minuteTokens, t.limits.MinuteTokens},
	}

	for _, w := range windows {
		if w.limit <= 0 {
			continue
		}
		utilization := float64(w.used) / float64(w.limit)
		if utilization > unhealthyUtilization {
			u.Healthy = false
			u.Errors = append(u.Errors, fmt.Sprintf("%s at %.0f%% of limit (%d/%d)", w.name, utilization*100, w.used, w.limit))
		} else if utilization >= warnUtilization {
			u.Warnings = append(u.Warnings, fmt.Sprintf("%s at %.0f%% of limit (%d/%d)", w.name, utilization*100, w.used, w.limit))
		}
	}

	return u
}

// MinWaitSeconds returns how long until this key's nearest blocked window
// resets, or zero when the key has headroom right now.
func (t *Tracker) MinWaitSeconds() int {
	d := t.CanMakeRequest(0)
	if d.Allowed {
		return 0
	}
	return d.WaitSeconds
}
