package quota

import (
	"fmt"
	"sync"
	"time"
)

// ExhaustedError reports that no key in the pool has quota headroom.
// WaitSeconds is the minimum wait until the nearest window reset across
// all keys.
type ExhaustedError struct {
	WaitSeconds int
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("all API keys exhausted, retry in %ds", e.WaitSeconds)
}

// IsRetryable implements the retry.RetryableError interface: exhaustion
// clears on window rollover.
func (e *ExhaustedError) IsRetryable() bool {
	return true
}

// Key pairs an API key with its quota tracker.
type Key struct {
	Value   string
	Tracker *Tracker
}

// keyState is the rotator's bookkeeping for one key.
type keyState struct {
	key *Key

	consecutiveErrors int
	// exhaustedUntil marks a provider-reported exhaustion. Local counters
	// track what we sent; the provider is authoritative about what it
	// will still accept, so a rejected key sits out until the next
	// minute window.
	exhaustedUntil time.Time
}

// Rotator owns an ordered pool of API keys and a round-robin pointer to the
// active one. All keys are treated as equivalent capacity. State is
// in-memory and process-scoped.
type Rotator struct {
	mu             sync.Mutex
	keys           []*keyState
	active         int
	errorThreshold int

	// Injectable clock for tests.
	now func() time.Time
}

// NewRotator builds a rotator over the given ordered key list. Each key
// gets its own tracker with the same limits. errorThreshold is how many
// consecutive provider errors force rotation away from a key.
func NewRotator(apiKeys []string, limits Limits, errorThreshold int) *Rotator {
	if errorThreshold <= 0 {
		errorThreshold = 3
	}

	r := &Rotator{
		errorThreshold: errorThreshold,
		now:            time.Now,
	}
	for _, k := range apiKeys {
		r.keys = append(r.keys, &keyState{
			key: &Key{Value: k, Tracker: NewTracker(limits)},
		})
	}
	return r
}

// Size returns the number of keys in the pool.
func (r *Rotator) Size() int {
	return len(r.keys)
}

// hasHeadroom reports whether a key can take at least one more request.
// Caller must hold r.mu.
func (r *Rotator) hasHeadroom(s *keyState) bool {
	if r.now().Before(s.exhaustedUntil) {
		return false
	}
	return s.key.Tracker.CanMakeRequest(0).Allowed
}

// minWait computes the shortest wait until any key becomes usable again.
// Caller must hold r.mu.
func (r *Rotator) minWait() int {
	min := 0
	for _, s := range r.keys {
		wait := s.key.Tracker.MinWaitSeconds()
		if until := int(s.exhaustedUntil.Sub(r.now()).Seconds()) + 1; r.now().Before(s.exhaustedUntil) && until > wait {
			wait = until
		}
		if min == 0 || wait < min {
			min = wait
		}
	}
	return min
}

// ActiveKey returns the current key, advancing round-robin past keys
// without headroom. When every key is blocked it returns an
// *ExhaustedError carrying the minimum wait until the nearest reset.
func (r *Rotator) ActiveKey() (*Key, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return nil, &ExhaustedError{WaitSeconds: 0}
	}

	for i := 0; i < len(r.keys); i++ {
		idx := (r.active + i) % len(r.keys)
		if r.hasHeadroom(r.keys[idx]) {
			r.active = idx
			return r.keys[idx].key, nil
		}
	}

	return nil, &ExhaustedError{WaitSeconds: r.minWait()}
}

// find locates a key's state by value. Caller must hold r.mu.
func (r *Rotator) find(keyValue string) *keyState {
	for _, s := range r.keys {
		if s.key.Value == keyValue {
			return s
		}
	}
	return nil
}

// MarkExhausted records a provider-reported quota rejection for a key and
// advances the pointer to the next key with headroom.
func (r *Rotator) MarkExhausted(keyValue string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.find(keyValue)
	if s == nil {
		return
	}

	s.exhaustedUntil = r.now().UTC().Truncate(time.Minute).Add(time.Minute)
	s.consecutiveErrors = 0
	r.advanceLocked()
}

// MarkError counts a provider error against a key. After errorThreshold
// consecutive errors the pointer advances to the next usable key.
func (r *Rotator) MarkError(keyValue string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.find(keyValue)
	if s == nil {
		return
	}

	s.consecutiveErrors++
	if s.consecutiveErrors >= r.errorThreshold {
		s.consecutiveErrors = 0
		r.advanceLocked()
	}
}

// MarkSuccess resets a key's consecutive error count.
func (r *Rotator) MarkSuccess(keyValue string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.find(keyValue); s != nil {
		s.consecutiveErrors = 0
	}
}

// advanceLocked moves the pointer to the next key with headroom, wrapping
// around the pool. If no key qualifies the pointer still advances by one so
// rotation stays round-robin once windows reset. Caller must hold r.mu.
func (r *Rotator) advanceLocked() {
	if len(r.keys) == 0 {
		return
	}

	for i := 1; i <= len(r.keys); i++ {
		idx := (r.active + i) % len(r.keys)
		if r.hasHeadroom(r.keys[idx]) {
			r.active = idx
			return
		}
	}
	r.active = (r.active + 1) % len(r.keys)
}

// Usage returns the telemetry snapshot for the active key, which is the
// key serving traffic right now. An empty pool reports an unhealthy,
// all-zero snapshot.
func (r *Rotator) Usage() Usage {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.keys) == 0 {
		return Usage{
			Healthy:  false,
			Warnings: []string{},
			Errors:   []string{"no API keys configured"},
		}
	}

	return r.keys[r.active].key.Tracker.Usage()
}
