package internal

import (
	"context"
	"time"
)

type ctxKey string

const ContextUserKey ctxKey = "user"

// AuthUser is the request-scoped principal placed in context by the auth
// middleware. IsAdmin and Permissions are recomputed from the role
// associations on every request, never cached between requests.
type AuthUser struct {
	ID          int64
	Username    string
	Email       string
	IsAdmin     bool
	Permissions []string
}

func (u *AuthUser) HasPermission(permission string) bool {
	if u.IsAdmin {
		return true
	}
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func UserFromContext(ctx context.Context) (*AuthUser, bool) {
	if ctx == nil {
		return nil, false
	}
	u, ok := ctx.Value(ContextUserKey).(*AuthUser)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *AuthUser) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

// WithTimeout returns a context with timeout, defaulting to 5 seconds if duration is zero or negative.
func WithTimeout(ctx context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	if duration <= 0 {
		duration = 5 * time.Second
	}
	return context.WithTimeout(ctx, duration)
}
