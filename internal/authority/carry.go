// ABOUTME: context.Context carriage for the authority context
// ABOUTME: Provides WithContext/FromContext for trusted backend plumbing

package authority

import (
	"context"
)

// ctxKey is the key type for storing a Context in context.Context.
type ctxKey struct{}

// WithContext returns a new context.Context with the authority context
// attached. Only trusted request-handling code should call this.
func WithContext(ctx context.Context, actx Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, actx)
}

// FromContext retrieves the authority context, returning the zero value (which
// authorizes nothing) and false if none is attached.
func FromContext(ctx context.Context) (Context, bool) {
	actx, ok := ctx.Value(ctxKey{}).(Context)
	return actx, ok
}

// MustFromContext retrieves the authority context, panicking if not present.
func MustFromContext(ctx context.Context) Context {
	actx, ok := FromContext(ctx)
	if !ok {
		panic("authority: Context not found in context")
	}
	return actx
}
