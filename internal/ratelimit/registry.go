package ratelimit

import (
	"sync"
	"time"
)

// Registry keeps one Window limiter per provider so that every call site
// hitting the same provider shares the same counter, while callers to
// different providers never delay each other.
type Registry struct {
	mu       sync.Mutex
	limiters map[string]*Window
}

func NewRegistry() *Registry {
	return &Registry{limiters: make(map[string]*Window)}
}

// For returns the limiter for the named provider, creating it with the given
// settings on first use. Settings are fixed at creation; later calls with
// different values get the existing limiter.
func (r *Registry) For(name string, maxCalls int, period time.Duration) *Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.limiters[name]; ok {
		return w
	}
	w := NewWindow(maxCalls, period)
	r.limiters[name] = w
	return w
}
