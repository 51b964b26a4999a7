package ctxutil

import "context"

type requestKey struct{}

// Request correlates one inbound call in logs and spans.
type Request struct {
	ID      string
	TraceID string
}

func WithRequest(ctx context.Context, r Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

func RequestFrom(ctx context.Context) (Request, bool) {
	if ctx == nil {
		return Request{}, false
	}
	r, ok := ctx.Value(requestKey{}).(Request)
	return r, ok
}
