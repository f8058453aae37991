package utils

import (
	"context"
	"time"
)

// Query timeout tiers. Lookups and single-row reads get the fast tier,
// list endpoints the default, and the analytics aggregations the slow one.
const (
	FastQueryTimeout    = 10 * time.Second
	DefaultQueryTimeout = 30 * time.Second
	SlowQueryTimeout    = 60 * time.Second
)

// GetQueryContext derives a query context with the given timeout. A nil
// parent falls back to context.Background so cron jobs can use it too.
func GetQueryContext(parentCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	return context.WithTimeout(parentCtx, timeout)
}

func GetFastQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, FastQueryTimeout)
}

func GetDefaultQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, DefaultQueryTimeout)
}

func GetSlowQueryContext(parentCtx context.Context) (context.Context, context.CancelFunc) {
	return GetQueryContext(parentCtx, SlowQueryTimeout)
}
