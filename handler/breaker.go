package handler

import (
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/edgekit/relay/response"
	"github.com/edgekit/relay/state"
)

// BreakerConfig holds circuit breaker settings for a guarded handler.
type BreakerConfig struct {
	// Name identifies the breaker in logs and gobreaker state changes.
	Name string

	// FailureThreshold is the number of consecutive handler failures that
	// trips the circuit (default: 5).
	FailureThreshold uint32

	// ResetTimeout is how long the circuit stays open before probing the
	// handler again (default: 30s).
	ResetTimeout time.Duration

	// HalfOpenRequests is the number of probe requests allowed while
	// half-open (default: 1).
	HalfOpenRequests uint32

	// Unavailable renders the response served while the circuit is open.
	// Defaults to a 503 JSON body.
	Unavailable func(*state.State) response.Renderer
}

// Breaker guards a handler Func with a circuit breaker. While the circuit
// is open, requests short-circuit to the configured unavailable response
// through the fixed-response mapping, so the open-state error is still
// boxed and observable downstream.
type Breaker struct {
	cb          *gobreaker.CircuitBreaker
	unavailable func(*state.State) response.Renderer
	logger      *zap.Logger
}

// NewBreaker creates a Breaker from cfg. Zero-valued settings fall back to
// the documented defaults.
func NewBreaker(cfg BreakerConfig, logger *zap.Logger) *Breaker {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout == 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.HalfOpenRequests == 0 {
		cfg.HalfOpenRequests = 1
	}
	if cfg.Unavailable == nil {
		cfg.Unavailable = func(*state.State) response.Renderer {
			return response.JSON(http.StatusServiceUnavailable, map[string]string{
				"error": "service unavailable",
			})
		}
	}
	if logger == nil {
		logger = DefaultLogger
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.HalfOpenRequests,
		Timeout:     cfg.ResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Breaker{
		cb:          gobreaker.NewCircuitBreaker(settings),
		unavailable: cfg.Unavailable,
		logger:      logger,
	}
}

// Wrap returns a Func that executes fn under the circuit breaker. Handler
// errors count as failures; once the circuit opens, the open-state error is
// mapped to the unavailable response without invoking fn.
func (b *Breaker) Wrap(fn Func) Func {
	return func(s *state.State, r *http.Request) (response.Renderer, error) {
		v, err := b.cb.Execute(func() (interface{}, error) {
			return fn(s, r)
		})
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, MapErrWithCustomizedResponse(err, s, b.unavailable)
		}
		if err != nil {
			return nil, err
		}
		renderer, _ := v.(response.Renderer)
		return renderer, nil
	}
}
