package gateway

import (
	"sync"

	"golang.org/x/time/rate"
)

// Keep the limiter map from growing without bound
const maxTrackedCallers = 10000

// RateClassConfig sets the token bucket for one rate-limit class
type RateClassConfig struct {
	PerSecond rate.Limit
	Burst     int
}

// RateLimiter keeps one token bucket per (class, caller) pair.
// Each route declares its class, so one noisy logical operation cannot
// starve the rest of the surface
type RateLimiter struct {
	mu       sync.Mutex
	classes  map[string]RateClassConfig
	fallback RateClassConfig
	limiters map[string]*rate.Limiter
}

func NewRateLimiter(classes map[string]RateClassConfig, fallback RateClassConfig) *RateLimiter {
	return &RateLimiter{
		classes:  classes,
		fallback: fallback,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Allow reports whether the caller may proceed within its class window
func (rl *RateLimiter) Allow(class string, caller string) bool {
	return rl.getLimiter(class, caller).Allow()
}

func (rl *RateLimiter) getLimiter(class string, caller string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := class + "|" + caller
	limiter, ok := rl.limiters[key]
	if !ok {
		if len(rl.limiters) >= maxTrackedCallers {
			rl.limiters = make(map[string]*rate.Limiter)
		}

		cfg, ok := rl.classes[class]
		if !ok {
			cfg = rl.fallback
		}

		limiter = rate.NewLimiter(cfg.PerSecond, cfg.Burst)
		rl.limiters[key] = limiter
	}

	return limiter
}
