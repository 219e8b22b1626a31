package order

import "context"

type idempotencyKey struct{}

// WithIdempotencyKey tags ctx with the key of a single confirmation so the
// order service can drop duplicates of the same submission.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func IdempotencyKey(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(idempotencyKey{}).(string)
	return key, ok && key != ""
}
