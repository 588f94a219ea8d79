package core

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type ctxKey int

const (
	runIDCtxKey ctxKey = iota
	actorCtxKey
)

// WithRunID attaches a simulation run id to the context. Subsystems and
// providers include it in their log records so a whole tick can be
// correlated.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDCtxKey, id)
}

// RunID returns the run id if present.
func RunID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(runIDCtxKey).(string)
	return id, ok && id != ""
}

// EnsureRunID returns the context's run id, minting one when absent.
func EnsureRunID(ctx context.Context) (context.Context, string) {
	if id, ok := RunID(ctx); ok {
		return ctx, id
	}
	id := newRunID()
	return WithRunID(ctx, id), id
}

// WithActor records which agent the current operation acts for.
func WithActor(ctx context.Context, agentID string) context.Context {
	return context.WithValue(ctx, actorCtxKey, agentID)
}

// Actor returns the acting agent id if present.
func Actor(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorCtxKey).(string)
	return id, ok && id != ""
}

func newRunID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "run-unknown"
	}
	return "run-" + hex.EncodeToString(buf[:])
}
