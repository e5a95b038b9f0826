package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/meqenet/meqenet-back/internal/apierr"
	"github.com/meqenet/meqenet-back/internal/models"
)

const claimsKey = "auth.claims"

type ctxKey struct{}

var (
	errMissingToken = apierr.Unauthenticated("missing_token", "Authentication token required.")
	errForbidden    = apierr.Forbidden("forbidden", "You do not have access to this resource.")
)

func abort(c *gin.Context, err error) {
	status, body := apierr.Response(err)
	c.AbortWithStatusJSON(status, body)
}

// Middleware requires a valid bearer token. A missing or malformed header is
// 401, a token that fails verification is 403.
func Middleware(gate *Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			abort(c, errMissingToken)
			return
		}

		claims, err := gate.Verify(c.Request.Context(), parts[1])
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(claimsKey, claims)
		c.Request = c.Request.WithContext(WithClaims(c.Request.Context(), claims))
		c.Next()
	}
}

// RequireRoles must run after Middleware.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			abort(c, errMissingToken)
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		abort(c, errForbidden)
	}
}

func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ctxKey{}, claims)
}

func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ctxKey{}).(*Claims)
	return claims, ok
}
