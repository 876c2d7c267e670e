package core

// limiter.go bounds how many registrations are processed at once.
//
// Each registration may copy up to ten files into the store, so admitting an
// unbounded number of them at the same time would let a burst of requests
// exhaust disk bandwidth and database connections. Slots are handed out by a
// buffered-channel semaphore; a request that cannot get one within maxWait
// fails with ErrTooManyRegistrations.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyRegistrations is returned when every slot stays busy for longer
// than the wait timeout. Clients should retry after a short delay.
var ErrTooManyRegistrations = errors.New("too many registrations in progress, please try again later")

const (
	DefaultMaxConcurrentRegistrations = 8
	DefaultMaxWaitTime                = 15 * time.Second
)

// RegistrationLimiter is a counting semaphore with drain support.
type RegistrationLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	active  int
	drained chan struct{} // closed whenever active drops to zero
}

// NewRegistrationLimiter allows at most maxConcurrent registrations at once.
func NewRegistrationLimiter(maxConcurrent int, maxWait time.Duration) *RegistrationLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentRegistrations
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	drained := make(chan struct{})
	close(drained)

	return &RegistrationLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		drained: drained,
	}
}

// Acquire waits for a slot. The caller must call Release exactly once after a
// nil return.
func (l *RegistrationLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.inc()
		return nil
	case <-timer.C:
		return ErrTooManyRegistrations
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryAcquire takes a slot only if one is free right now.
func (l *RegistrationLimiter) TryAcquire() bool {
	select {
	case l.slots <- struct{}{}:
		l.inc()
		return true
	default:
		return false
	}
}

// Release frees a slot taken by Acquire or TryAcquire.
func (l *RegistrationLimiter) Release() {
	l.mu.Lock()
	l.active--
	if l.active == 0 {
		close(l.drained)
	}
	l.mu.Unlock()

	<-l.slots
}

func (l *RegistrationLimiter) inc() {
	l.mu.Lock()
	if l.active == 0 {
		l.drained = make(chan struct{})
	}
	l.active++
	l.mu.Unlock()
}

// ActiveCount returns the number of registrations holding a slot.
func (l *RegistrationLimiter) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// MaxConcurrent returns the slot count.
func (l *RegistrationLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no registration holds a slot or ctx is done.
// Used during shutdown so in-flight registrations can commit.
func (l *RegistrationLimiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	drained := l.drained
	l.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a point-in-time view of the limiter.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

func (l *RegistrationLimiter) Status() LimiterStatus {
	active := l.ActiveCount()
	return LimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
