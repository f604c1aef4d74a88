package llm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/leadforge/leadforge-engine/pkg/logging"
	"github.com/leadforge/leadforge-engine/pkg/quota"
)

// Gate wraps provider clients with quota enforcement, key rotation, and
// classified retry. It implements Client, so callers see one logical
// provider regardless of how many keys sit behind it.
//
// Retry policy:
//   - transient errors: exponential backoff (1s, 2s, 4s), bounded attempts
//   - rate-limited errors: mark the key exhausted, rotate, try the next key
//   - fatal errors: count against the key's rotation threshold, no retry
//
// Usage is recorded against a key only when a response was actually
// received; calls that never reached the provider consume no budget.
type Gate struct {
	rotator   *quota.Rotator
	newClient func(apiKey string) (Client, error)
	model     string
	logger    *zap.Logger

	maxAttempts int
	baseDelay   time.Duration
	timeout     time.Duration

	mu      sync.Mutex
	clients map[string]Client
}

var _ Client = (*Gate)(nil)

// GateOption customizes gate behavior.
type GateOption func(*Gate)

// WithBaseDelay overrides the first backoff delay. Tests use this to avoid
// real sleeps.
func WithBaseDelay(d time.Duration) GateOption {
	return func(g *Gate) { g.baseDelay = d }
}

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) GateOption {
	return func(g *Gate) { g.timeout = d }
}

// WithMaxAttempts overrides the bounded attempt count for transient errors.
func WithMaxAttempts(n int) GateOption {
	return func(g *Gate) { g.maxAttempts = n }
}

// NewGate builds a quota gate over the given rotator. newClient constructs a
// provider client for one API key; the gate caches one client per key.
func NewGate(rotator *quota.Rotator, newClient func(apiKey string) (Client, error), model string, logger *zap.Logger, opts ...GateOption) *Gate {
	g := &Gate{
		rotator:     rotator,
		newClient:   newClient,
		model:       model,
		logger:      logger,
		maxAttempts: 3,
		baseDelay:   time.Second,
		timeout:     30 * time.Second,
		clients:     make(map[string]Client),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model identifier.
func (g *Gate) Model() string {
	return g.model
}

// clientFor returns the cached client for a key, constructing it on first use.
func (g *Gate) clientFor(key *quota.Key) (Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if c, ok := g.clients[key.Value]; ok {
		return c, nil
	}

	c, err := g.newClient(key.Value)
	if err != nil {
		return nil, err
	}
	g.clients[key.Value] = c
	return c, nil
}

// acquire finds a key whose quota windows can absorb the estimated cost.
// Keys whose request windows have headroom but whose token budget cannot
// fit this call are marked exhausted so rotation moves past them.
func (g *Gate) acquire(estimatedTokens int) (*quota.Key, error) {
	for i := 0; i < g.rotator.Size(); i++ {
		key, err := g.rotator.ActiveKey()
		if err != nil {
			return nil, err
		}

		decision := key.Tracker.CanMakeRequest(estimatedTokens)
		if decision.Allowed {
			return key, nil
		}

		g.logger.Debug("key has no headroom for request, rotating",
			zap.String("key", logging.MaskKey(key.Value)),
			zap.String("reason", decision.Reason))
		g.rotator.MarkExhausted(key.Value)
	}

	key, err := g.rotator.ActiveKey()
	if err != nil {
		return nil, err
	}
	decision := key.Tracker.CanMakeRequest(estimatedTokens)
	if decision.Allowed {
		return key, nil
	}
	return nil, &quota.ExhaustedError{WaitSeconds: decision.WaitSeconds}
}

// Complete runs one prompt through the quota gate. The retry loop is an
// explicit bounded counter rather than unbounded recursion: every iteration
// either returns, rotates to a different key, or backs off and retries.
func (g *Gate) Complete(ctx context.Context, prompt, system string) (*CompletionResult, error) {
	if g.rotator.Size() == 0 {
		return nil, &Error{
			Kind:      KindQuotaExhausted,
			Message:   "no API keys configured",
			Retryable: false,
		}
	}

	estimated := quota.EstimateTokens(prompt + system)

	var lastErr error
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		key, err := g.acquire(estimated)
		if err != nil {
			var exhausted *quota.ExhaustedError
			if errors.As(err, &exhausted) {
				return nil, &Error{
					Kind:        KindQuotaExhausted,
					Message:     "all API keys exhausted",
					Retryable:   true,
					WaitSeconds: exhausted.WaitSeconds,
					Cause:       err,
				}
			}
			return nil, err
		}

		client, err := g.clientFor(key)
		if err != nil {
			return nil, fmt.Errorf("create provider client: %w", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		result, err := client.Complete(callCtx, prompt, system)
		cancel()

		if err == nil {
			key.Tracker.RecordUsage(result.TotalTokens)
			g.rotator.MarkSuccess(key.Value)
			return result, nil
		}

		classified := ClassifyError(err)
		lastErr = classified

		switch classified.Kind {
		case KindRateLimited:
			// The provider is authoritative: even if local counters show
			// headroom, a throttled key sits out until its window resets.
			g.logger.Warn("provider throttled key, rotating",
				zap.String("key", logging.MaskKey(key.Value)),
				zap.Error(classified))
			g.rotator.MarkExhausted(key.Value)

		case KindTransient:
			g.rotator.MarkError(key.Value)
			delay := g.baseDelay << attempt
			g.logger.Warn("transient provider error, backing off",
				zap.String("key", logging.MaskKey(key.Value)),
				zap.Duration("delay", delay),
				zap.Int("attempt", attempt+1),
				zap.Error(classified))

			select {
			case <-ctx.Done():
				return nil, NewError(KindTransient, "context canceled during backoff", false, ctx.Err())
			case <-time.After(delay):
			}

		default:
			g.rotator.MarkError(key.Value)
			g.logger.Error("fatal provider error",
				zap.String("key", logging.MaskKey(key.Value)),
				zap.Error(classified))
			return nil, classified
		}
	}

	if lastErr == nil {
		lastErr = NewError(KindTransient, "retries exhausted", false, nil)
	}
	return nil, lastErr
}

// Usage returns the active key's quota telemetry.
func (g *Gate) Usage() quota.Usage {
	return g.rotator.Usage()
}
