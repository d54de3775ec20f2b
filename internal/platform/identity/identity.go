// Package identity carries the authenticated caller through a request context.
package identity

import (
	"context"
	"errors"
	"strings"
)

// HeaderCallerIdentity is the HTTP header the API gateway uses to forward the caller.
const HeaderCallerIdentity = "X-Caller-Identity"

var ErrMissingCaller = errors.New("caller identity missing")

type callerKey struct{}

// WithCaller returns a copy of ctx carrying caller.
func WithCaller(ctx context.Context, caller string) context.Context {
	return context.WithValue(ctx, callerKey{}, strings.TrimSpace(caller))
}

// CallerFromContext extracts the caller stored by WithCaller.
func CallerFromContext(ctx context.Context) (string, bool) {
	caller, ok := ctx.Value(callerKey{}).(string)
	if !ok || caller == "" {
		return "", false
	}
	return caller, true
}

// ContextResolver resolves the caller from the request context.
type ContextResolver struct{}

// CallerIdentity returns ErrMissingCaller when the context carries no caller.
func (ContextResolver) CallerIdentity(ctx context.Context) (string, error) {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return "", ErrMissingCaller
	}
	return caller, nil
}
