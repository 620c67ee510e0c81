package database

import (
	"context"
	"time"
)

// getContext creates a context with timeout
func getContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), timeout)
}

// NullInt64 converts an optional id into a value lib/pq accepts
func NullInt64(id *uint) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}
