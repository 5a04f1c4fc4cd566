package httpapi

import (
	"context"

	"github.com/and161185/geocam/internal/service"
)

type ctxKey string

const claimsKey ctxKey = "geocam.claims"

// WithClaims stores verified token claims in ctx.
func WithClaims(ctx context.Context, c service.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromCtx fetches verified token claims from ctx.
func ClaimsFromCtx(ctx context.Context) (service.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(service.Claims)
	return c, ok
}
