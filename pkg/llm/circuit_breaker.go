package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// CircuitState represents the current state of the circuit breaker.
type CircuitState int

const (
	// CircuitClosed lets requests through.
	CircuitClosed CircuitState = iota
	// CircuitOpen rejects requests until the cool-down elapses.
	CircuitOpen
	// CircuitHalfOpen lets a single trial request through.
	CircuitHalfOpen
)

// String returns a human-readable string for the circuit state.
func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// Threshold is the number of consecutive provider failures that opens the circuit.
	Threshold int
	// ResetAfter is how long the circuit stays open before a trial request is allowed.
	ResetAfter time.Duration
}

// DefaultCircuitBreakerConfig returns the breaker settings used for model providers.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Threshold:  5,
		ResetAfter: 30 * time.Second,
	}
}

// CircuitBreaker fails fast while a model provider is down so that scans and
// chat turns do not each wait for the provider to time out.
type CircuitBreaker struct {
	mu               sync.Mutex
	consecutiveFails int
	threshold        int
	resetAfter       time.Duration
	lastFailure      time.Time
	state            CircuitState
	now              func() time.Time
}

// NewCircuitBreaker creates a closed circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		threshold:  config.Threshold,
		resetAfter: config.ResetAfter,
		state:      CircuitClosed,
		now:        time.Now,
	}
}

// Allow reports whether a request may proceed. An open circuit moves to
// half-open once ResetAfter has elapsed and admits one trial request.
func (cb *CircuitBreaker) Allow() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return nil
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailure) > cb.resetAfter {
			cb.state = CircuitHalfOpen
			return nil
		}
		return NewError(ErrorTypeEndpoint,
			fmt.Sprintf("provider unavailable (failed %d times)", cb.consecutiveFails), true, nil)
	default:
		return NewError(ErrorTypeEndpoint, "provider recovery check in flight", true, nil)
	}
}

// Record updates the breaker with the outcome of a request. Only failures
// that point at the provider count; bad input and cancellations do not.
func (cb *CircuitBreaker) Record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch {
	case err == nil:
		cb.consecutiveFails = 0
		cb.state = CircuitClosed
	case countsAsProviderFailure(err):
		cb.consecutiveFails++
		cb.lastFailure = cb.now()
		if cb.state == CircuitHalfOpen || cb.consecutiveFails >= cb.threshold {
			cb.state = CircuitOpen
		}
	case cb.state == CircuitHalfOpen:
		// Inconclusive trial; the next request tries again.
		cb.state = CircuitOpen
	}
}

// State returns the current state of the circuit breaker.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

func countsAsProviderFailure(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	llmErr := ClassifyError(err)
	switch llmErr.Type {
	case ErrorTypeAuth, ErrorTypeModel, ErrorTypeEndpoint:
		return true
	}
	return llmErr.StatusCode == 429 || llmErr.StatusCode >= 500
}

// guardedVision wraps a VisionClient with a circuit breaker.
type guardedVision struct {
	VisionClient
	breaker *CircuitBreaker
}

// WithVisionBreaker returns a VisionClient that fails fast while the breaker is open.
func WithVisionBreaker(client VisionClient, breaker *CircuitBreaker) VisionClient {
	return &guardedVision{VisionClient: client, breaker: breaker}
}

func (g *guardedVision) AnalyzeImage(ctx context.Context, prompt string, imageDataURI string) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		return "", err
	}
	reply, err := g.VisionClient.AnalyzeImage(ctx, prompt, imageDataURI)
	g.breaker.Record(err)
	return reply, err
}

// Close closes the wrapped client when it holds resources.
func (g *guardedVision) Close() error {
	if c, ok := g.VisionClient.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// guardedChat wraps a ChatClient with a circuit breaker.
type guardedChat struct {
	ChatClient
	breaker *CircuitBreaker
}

// Close closes the wrapped client when it holds resources.
func (g *guardedChat) Close() error {
	if c, ok := g.ChatClient.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// WithChatBreaker returns a ChatClient that fails fast while the breaker is open.
func WithChatBreaker(client ChatClient, breaker *CircuitBreaker) ChatClient {
	return &guardedChat{ChatClient: client, breaker: breaker}
}

func (g *guardedChat) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := g.breaker.Allow(); err != nil {
		return "", err
	}
	reply, err := g.ChatClient.Chat(ctx, messages)
	g.breaker.Record(err)
	return reply, err
}
