package tools

import "context"

// CallContext carries per-call identity into tool handlers. The account
// lookup falls back to the caller's number when the backend supplies no
// account ID.
type CallContext struct {
	ContactID string
	CallerID  string
	SessionID string
}

type callContextKey struct{}

// WithCallContext returns a context carrying the call identity.
func WithCallContext(ctx context.Context, cc CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, cc)
}

// CallContextFrom extracts the call identity, if present.
func CallContextFrom(ctx context.Context) (CallContext, bool) {
	cc, ok := ctx.Value(callContextKey{}).(CallContext)
	return cc, ok
}
