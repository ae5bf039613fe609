// Package ratelimit bounds how often one caller may hit an endpoint.
package ratelimit

import (
	"context"
	"time"
)

// Limits caps requests per sliding window. A zero field disables that window.
type Limits struct {
	PerMinute int
	PerHour   int
}

func (l Limits) Enabled() bool {
	return l.PerMinute > 0 || l.PerHour > 0
}

type Limiter interface {
	Allow(ctx context.Context, key string, limits Limits) (bool, error)
}

type window struct {
	duration time.Duration
	limit    int
}

func (l Limits) windows() []window {
	return []window{
		{time.Minute, l.PerMinute},
		{time.Hour, l.PerHour},
	}
}
