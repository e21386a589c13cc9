package http

import (
	"sync"
	"time"
)

// loginLimiter throttles login attempts per client IP to slow credential
// stuffing. Counters reset after the window elapses.
type loginLimiter struct {
	mu          sync.Mutex
	clients     map[string]*clientAttempts
	maxAttempts int
	window      time.Duration
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

type clientAttempts struct {
	windowStart time.Time
	attempts    int
}

func newLoginLimiter(maxAttempts int, window time.Duration) *loginLimiter {
	rl := &loginLimiter{
		clients:     make(map[string]*clientAttempts),
		maxAttempts: maxAttempts,
		window:      window,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// allow records an attempt for ip and reports whether it is within the
// limit.
func (rl *loginLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[ip]
	if !ok || now.Sub(client.windowStart) > rl.window {
		rl.clients[ip] = &clientAttempts{windowStart: now, attempts: 1}
		return true
	}

	client.attempts++
	return client.attempts <= rl.maxAttempts
}

func (rl *loginLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStale()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *loginLimiter) cleanupStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.window)
	for ip, client := range rl.clients {
		if client.windowStart.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *loginLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}
