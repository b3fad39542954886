package utils

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"rhfetch/internal"
)

// TokenBucketLimiter implements rate limiting using a token bucket algorithm
type TokenBucketLimiter struct {
	rate       int64
	bucket     int64
	maxBucket  int64
	lastUpdate time.Time
	mutex      sync.Mutex
}

// NewTokenBucketLimiter creates a new rate limiter
func NewTokenBucketLimiter(bytesPerSecond int64) internal.RateLimiter {
	return &TokenBucketLimiter{
		rate:       bytesPerSecond,
		bucket:     bytesPerSecond,
		maxBucket:  bytesPerSecond,
		lastUpdate: time.Now(),
	}
}

// Wait blocks until the specified number of bytes can be consumed
func (r *TokenBucketLimiter) Wait(ctx context.Context, n int) error {
	if r.rate <= 0 {
		return nil // No rate limiting
	}

	for {
		r.mutex.Lock()

		// Refill the bucket based on elapsed time
		now := time.Now()
		elapsed := now.Sub(r.lastUpdate).Seconds()
		r.bucket += int64(elapsed * float64(r.rate))
		if r.bucket > r.maxBucket {
			r.bucket = r.maxBucket
		}
		r.lastUpdate = now

		if r.bucket >= int64(n) {
			r.bucket -= int64(n)
			r.mutex.Unlock()
			return nil
		}

		// Not enough tokens, compute the wait for the deficit
		deficit := int64(n) - r.bucket
		waitTime := time.Duration(float64(deficit) / float64(r.rate) * float64(time.Second))
		r.mutex.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}
}

// SetRate updates the rate limit
func (r *TokenBucketLimiter) SetRate(bytesPerSecond int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.rate = bytesPerSecond
	r.maxBucket = bytesPerSecond
	if r.bucket > r.maxBucket {
		r.bucket = r.maxBucket
	}
}

// RateLimitedReader wraps a reader so each Read consumes limiter tokens
type RateLimitedReader struct {
	reader  io.Reader
	limiter internal.RateLimiter
	ctx     context.Context
}

// NewRateLimitedReader creates a reader constrained by the given limiter
func NewRateLimitedReader(ctx context.Context, r io.Reader, limiter internal.RateLimiter) *RateLimitedReader {
	return &RateLimitedReader{reader: r, limiter: limiter, ctx: ctx}
}

// Read implements io.Reader
func (r *RateLimitedReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 && r.limiter != nil {
		if lerr := r.limiter.Wait(r.ctx, n); lerr != nil {
			return n, lerr
		}
	}
	return n, err
}

// ParseRateLimit converts a human rate string (1M, 500K, 2G, 1024) into
// bytes per second. An empty string means no limit.
func ParseRateLimit(rateStr string) (int64, error) {
	rateStr = strings.TrimSpace(rateStr)
	if rateStr == "" {
		return 0, nil
	}

	// Handle pure numbers (bytes per second)
	if val, err := strconv.ParseInt(rateStr, 10, 64); err == nil {
		if val < 0 {
			return 0, fmt.Errorf("rate limit cannot be negative: %s", rateStr)
		}
		return val, nil
	}

	if len(rateStr) < 2 {
		return 0, fmt.Errorf("invalid rate format: %s", rateStr)
	}

	// Extract number and suffix, accepting both "1M" and "1MB" forms
	rateUpper := strings.ToUpper(rateStr)
	numStr := rateStr[:len(rateStr)-1]
	suffix := rateUpper[len(rateUpper)-1:]
	if strings.HasSuffix(rateUpper, "B") && len(rateUpper) >= 3 {
		numStr = rateStr[:len(rateStr)-2]
		suffix = rateUpper[len(rateUpper)-2 : len(rateUpper)-1]
	}

	baseValue, err := strconv.ParseFloat(numStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rate format: %s", rateStr)
	}
	if baseValue < 0 {
		return 0, fmt.Errorf("rate limit cannot be negative: %s", rateStr)
	}

	var multiplier float64
	switch suffix {
	case "K":
		multiplier = 1024
	case "M":
		multiplier = 1024 * 1024
	case "G":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported rate suffix: %s", suffix)
	}

	return int64(baseValue * multiplier), nil
}
