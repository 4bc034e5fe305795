package common

import (
	"context"
	"slices"
	"time"
)

type contextKey int

const (
	callerKey contextKey = iota
	startKey
)

// Caller is whoever a mutation request acts for
type Caller struct {
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles,omitempty"`
	Anonymous bool     `json:"anonymous,omitempty"`
}

// HasRole reports whether the caller carries role
func (c Caller) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// WithCaller stores the authenticated caller
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFrom returns the caller stored by the auth middleware
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(callerKey).(Caller)
	return c, ok
}

// WithStartTime marks when the request started
func WithStartTime(ctx context.Context, start time.Time) context.Context {
	return context.WithValue(ctx, startKey, start)
}

// Elapsed is the time since WithStartTime, or zero when unmarked
func Elapsed(ctx context.Context) time.Duration {
	if start, ok := ctx.Value(startKey).(time.Time); ok {
		return time.Since(start)
	}
	return 0
}
