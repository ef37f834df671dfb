package failure

import (
	"context"
	"errors"
	"testing"
)

func TestRetryAfterRefresh(t *testing.T) {
	expired := Wrap(KindAuthExpired, "list groups", errors.New("token is expired"))

	t.Run("success does not refresh", func(t *testing.T) {
		refreshes := 0
		got, err := RetryAfterRefresh(context.Background(), func(context.Context) (bool, error) {
			refreshes++
			return true, nil
		}, func(context.Context) (string, error) {
			return "ok", nil
		})
		if err != nil || got != "ok" {
			t.Fatalf("expected ok, got %q, %v", got, err)
		}
		if refreshes != 0 {
			t.Fatalf("expected no refresh, got %d", refreshes)
		}
	})

	t.Run("auth expiry refreshes once and retries once", func(t *testing.T) {
		calls, refreshes := 0, 0
		got, err := RetryAfterRefresh(context.Background(), func(context.Context) (bool, error) {
			refreshes++
			return true, nil
		}, func(context.Context) (int, error) {
			calls++
			if calls == 1 {
				return 0, expired
			}
			return 42, nil
		})
		if err != nil || got != 42 {
			t.Fatalf("expected 42, got %d, %v", got, err)
		}
		if calls != 2 || refreshes != 1 {
			t.Fatalf("expected 2 calls and 1 refresh, got %d and %d", calls, refreshes)
		}
	})

	t.Run("second auth failure is not retried again", func(t *testing.T) {
		calls, refreshes := 0, 0
		_, err := RetryAfterRefresh(context.Background(), func(context.Context) (bool, error) {
			refreshes++
			return true, nil
		}, func(context.Context) (int, error) {
			calls++
			return 0, expired
		})
		if !Is(err, KindAuthExpired) {
			t.Fatalf("expected auth expired, got %v", err)
		}
		if calls != 2 || refreshes != 1 {
			t.Fatalf("expected 2 calls and 1 refresh, got %d and %d", calls, refreshes)
		}
	})

	t.Run("failed refresh asks for sign in", func(t *testing.T) {
		calls := 0
		_, err := RetryAfterRefresh(context.Background(), func(context.Context) (bool, error) {
			return false, nil
		}, func(context.Context) (int, error) {
			calls++
			return 0, expired
		})
		if !errors.Is(err, ErrSessionExpired) {
			t.Fatalf("expected ErrSessionExpired, got %v", err)
		}
		if calls != 1 {
			t.Fatalf("expected op not to be retried, got %d calls", calls)
		}
	})

	t.Run("other failures are returned untouched", func(t *testing.T) {
		denied := Permission("load snapshot", "")
		refreshes := 0
		_, err := RetryAfterRefresh(context.Background(), func(context.Context) (bool, error) {
			refreshes++
			return true, nil
		}, func(context.Context) (int, error) {
			return 0, denied
		})
		if err != error(denied) || refreshes != 0 {
			t.Fatalf("expected permission error without refresh, got %v after %d refreshes", err, refreshes)
		}
	})
}
