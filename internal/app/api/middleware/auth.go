package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/lojinha-pet/billing/pkg/config"
	"github.com/lojinha-pet/billing/pkg/response"
)

const (
	// RoleAdmin is the tenant administrator role carried in the token.
	RoleAdmin = "admin"

	ctxTenantKey = "tenant_key"
	ctxRole      = "role"
)

// Claims is the token payload issued by the main application. TenantKey is
// the caller's company registration number.
type Claims struct {
	TenantKey string `json:"tenant_key"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// AuthMiddleware validates the bearer token and attaches the caller's tenant
// key and role to the request. Requests without a valid identity are rejected
// with 401.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if header == "" || token == header {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		claims := &Claims{}
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.Auth.JWTSecret), nil
		})
		if err != nil || !parsed.Valid || claims.TenantKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token"))
			return
		}

		c.Set(ctxTenantKey, claims.TenantKey)
		c.Set(ctxRole, claims.Role)
		ctx := context.WithValue(c.Request.Context(), "tenant_key", claims.TenantKey)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin rejects callers that are not tenant administrators. Must run
// after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxRole) != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, response.ErrorT[any](response.APIResponseCodeForbidden, "administrator role required"))
			return
		}
		c.Next()
	}
}

// TenantKeyFromGin returns the authenticated caller's tenant key, or "" when
// the request was not authenticated.
func TenantKeyFromGin(c *gin.Context) string {
	return c.GetString(ctxTenantKey)
}
