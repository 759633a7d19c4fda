package context

import "context"

type requestIDKey struct{}

type categoryIDKey struct{}

// WithRequestID stores the inbound request id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(requestIDKey{}).(string)
	return value
}

// WithCategoryID tags the context with the category a request is browsing.
func WithCategoryID(ctx context.Context, categoryID string) context.Context {
	return context.WithValue(ctx, categoryIDKey{}, categoryID)
}

func CategoryIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value, _ := ctx.Value(categoryIDKey{}).(string)
	return value
}
