package failure

import "context"

// Refresher renews the caller's session. It reports false when the session
// cannot be renewed and the user has to sign in again.
type Refresher func(ctx context.Context) (bool, error)

// RetryAfterRefresh runs op. If op fails with KindAuthExpired, the session is
// refreshed exactly once and op is retried exactly once. A failed refresh
// yields ErrSessionExpired; a second auth failure is returned as is.
func RetryAfterRefresh[T any](ctx context.Context, refresh Refresher, op func(context.Context) (T, error)) (T, error) {
	result, err := op(ctx)
	if err == nil || !Is(err, KindAuthExpired) || refresh == nil {
		return result, err
	}

	ok, refreshErr := refresh(ctx)
	if refreshErr != nil || !ok {
		var zero T
		return zero, &Error{Kind: KindAuthExpired, Op: "refresh session", Message: ErrSessionExpired.Message, Err: refreshErr}
	}

	return op(ctx)
}
