package auth

import (
	"context"

	"github.com/gin-gonic/gin"
)

// ContextPrincipalKey は gin.Context 上で Principal を共有するためのキーです。
const ContextPrincipalKey = "auth.principal"

type principalContextKey struct{}

// WithPrincipal は Principal を保持した新しいコンテキストを返します。
func WithPrincipal(ctx context.Context, principal *Principal) context.Context {
	if principal == nil {
		return ctx
	}
	p := *principal
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext はコンテキストから Principal のコピーを取り出します。
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}

// CurrentPrincipal は gin ハンドラー向けのヘルパーです。
func CurrentPrincipal(c *gin.Context) (Principal, bool) {
	if v, ok := c.Get(ContextPrincipalKey); ok {
		if p, ok := v.(Principal); ok {
			return p, true
		}
	}
	if c.Request == nil {
		return Principal{}, false
	}
	return PrincipalFromContext(c.Request.Context())
}
