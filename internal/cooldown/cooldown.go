// Package cooldown tracks per-(sender, command) invocation cooldowns.
package cooldown

import (
	"strings"
	"sync"
	"time"
)

// Limiter stores an expiry timestamp per (sender, command) pair. Expiry is
// lazy: entries are checked against the clock on acquisition, so no sweep
// is needed for correctness. Sweep exists only as memory hygiene.
//
// Note the check-then-set under one lock still leaves the documented race
// between truly simultaneous invocations arriving over separate transport
// deliveries; that is accepted, not eliminated.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	until  map[string]time.Time
	exempt map[string]struct{}

	now func() time.Time
}

func New(window time.Duration, exempt ...string) *Limiter {
	if window <= 0 {
		window = 3 * time.Second
	}
	ex := make(map[string]struct{}, len(exempt))
	for _, name := range exempt {
		ex[strings.ToLower(name)] = struct{}{}
	}
	return &Limiter{
		window: window,
		until:  map[string]time.Time{},
		exempt: ex,
		now:    time.Now,
	}
}

// SetWindow updates the cooldown length. Active cooldowns keep their
// original expiry.
func (l *Limiter) SetWindow(d time.Duration) {
	if d <= 0 {
		return
	}
	l.mu.Lock()
	l.window = d
	l.mu.Unlock()
}

// TryAcquire returns (true, 0) and starts the cooldown timer, or
// (false, remaining whole seconds) while the sender is still cooling down.
// Exempt commands are always allowed and consume no state.
func (l *Limiter) TryAcquire(sender, command string) (bool, int) {
	command = strings.ToLower(command)
	if _, ok := l.exempt[command]; ok {
		return true, 0
	}
	key := sender + "|" + command

	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if exp, ok := l.until[key]; ok && exp.After(now) {
		secs := int(exp.Sub(now).Seconds())
		if exp.Sub(now)%time.Second != 0 {
			secs++ // report whole seconds, rounded up
		}
		return false, secs
	}
	l.until[key] = now.Add(l.window)
	return true, 0
}

// Clear removes one active cooldown, or every cooldown of the sender when
// command is empty. Admin override only; not part of the regular flow.
func (l *Limiter) Clear(sender, command string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if command != "" {
		key := sender + "|" + strings.ToLower(command)
		if _, ok := l.until[key]; ok {
			delete(l.until, key)
			return 1
		}
		return 0
	}
	n := 0
	prefix := sender + "|"
	for k := range l.until {
		if strings.HasPrefix(k, prefix) {
			delete(l.until, k)
			n++
		}
	}
	return n
}

// Sweep drops expired entries.
func (l *Limiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, exp := range l.until {
		if !exp.After(now) {
			delete(l.until, k)
		}
	}
}
