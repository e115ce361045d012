package transport

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/orp-io/orp/internal/logger"
)

// Strategy defines the redial backoff strategy interface
type Strategy interface {
	// NextDelay returns the next delay duration and whether to continue retrying
	NextDelay() (time.Duration, bool)
	// Reset resets the strategy to initial state
	Reset()
}

// ExponentialBackoff implements exponential backoff with jitter
type ExponentialBackoff struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	MaxRetries   int

	currentDelay time.Duration
	retryCount   int
	mu           sync.Mutex
}

// NewExponentialBackoff creates a new exponential backoff strategy
func NewExponentialBackoff(initialDelay, maxDelay time.Duration, multiplier float64, maxRetries int) *ExponentialBackoff {
	return &ExponentialBackoff{
		InitialDelay: initialDelay,
		MaxDelay:     maxDelay,
		Multiplier:   multiplier,
		MaxRetries:   maxRetries,
		currentDelay: initialDelay,
	}
}

// NextDelay returns the next delay with exponential backoff and jitter
func (e *ExponentialBackoff) NextDelay() (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.MaxRetries > 0 && e.retryCount >= e.MaxRetries {
		return 0, false
	}

	// Jitter the published delay by ±20% so redial storms from several
	// processes sharing a device spread out.
	jitterFloat := 0.8 + (0.4 * rand.Float64())
	delay := time.Duration(float64(e.currentDelay) * jitterFloat)

	e.currentDelay = time.Duration(float64(e.currentDelay) * e.Multiplier)
	if e.currentDelay > e.MaxDelay {
		e.currentDelay = e.MaxDelay
	}
	e.retryCount++

	return delay, true
}

// Reset resets the backoff strategy
func (e *ExponentialBackoff) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.currentDelay = e.InitialDelay
	e.retryCount = 0
}

// LinearBackoff implements a fixed-delay backoff strategy
type LinearBackoff struct {
	Delay      time.Duration
	MaxRetries int

	retryCount int
	mu         sync.Mutex
}

// NewLinearBackoff creates a new linear backoff strategy
func NewLinearBackoff(delay time.Duration, maxRetries int) *LinearBackoff {
	return &LinearBackoff{
		Delay:      delay,
		MaxRetries: maxRetries,
	}
}

// NextDelay returns a fixed delay for linear backoff
func (l *LinearBackoff) NextDelay() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.MaxRetries > 0 && l.retryCount >= l.MaxRetries {
		return 0, false
	}

	l.retryCount++
	return l.Delay, true
}

// Reset resets the backoff strategy
func (l *LinearBackoff) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.retryCount = 0
}

// Redialer re-opens a dropped serial link using a backoff strategy. The
// dial callback performs one open attempt; success resets the strategy.
type Redialer struct {
	strategy  Strategy
	logger    logger.Logger
	dial      func(ctx context.Context) error
	onSuccess func()
	onFailure func(err error)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// NewRedialer creates a new redialer
func NewRedialer(strategy Strategy, log logger.Logger) *Redialer {
	return &Redialer{
		strategy: strategy,
		logger:   log,
		stopCh:   make(chan struct{}),
	}
}

// SetCallbacks sets the dial attempt and outcome callbacks
func (r *Redialer) SetCallbacks(dial func(context.Context) error, onSuccess func(), onFailure func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dial = dial
	r.onSuccess = onSuccess
	r.onFailure = onFailure
}

// Start begins redialing in the background
func (r *Redialer) Start(ctx context.Context) {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return
	}
	if r.dial == nil {
		r.mu.Unlock()
		r.logger.Error("Cannot start redialing: dial callback is nil")
		return
	}
	r.running = true
	r.stopCh = make(chan struct{}) // Recreate channel for reuse after Stop()
	r.mu.Unlock()

	go r.redialLoop(ctx)
}

// Stop stops the redial process
func (r *Redialer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return
	}

	r.running = false
	close(r.stopCh)
}

// IsRunning reports whether a redial loop is active
func (r *Redialer) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

func (r *Redialer) redialLoop(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			return
		default:
		}

		err := r.dial(ctx)
		if err == nil {
			r.strategy.Reset()
			if r.onSuccess != nil {
				r.onSuccess()
			}
			return
		}

		delay, shouldRetry := r.strategy.NextDelay()
		if !shouldRetry {
			r.logger.Error("Maximum redial attempts reached")
			if r.onFailure != nil {
				r.onFailure(err)
			}
			return
		}

		r.logger.WithError(err).WithField("retry_in", delay).Warn("Serial dial failed, retrying")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-r.stopCh:
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}
