// Package middleware contains the Gin middleware of the crafting API.
//
// Auth resolves "Authorization: Bearer <token>" to a player and stores it in
// the Gin context. AdminOnly guards the admin routes with a static shared
// secret compared in constant time.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Flint2004/infinite-crafting/internal/domain"
)

const (
	userIDKey = "userID"
	userKey   = "user"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Auth rejects requests without a valid player token with 401. On success
// the user is available through UserFrom and the request logger carries
// user_id.
func Auth(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.Request)
		if !ok {
			unauthorized(c, "missing bearer token")
			return
		}
		u, err := a.Authenticate(c.Request.Context(), token)
		if err != nil || u == nil {
			if err != nil {
				LoggerFrom(c).Debug().Err(err).Msg("authentication failed")
			}
			unauthorized(c, "invalid token")
			return
		}

		c.Set(userIDKey, u.ID)
		c.Set(userKey, u)
		WithLogFields(c, func(zc zerolog.Context) zerolog.Context {
			return zc.Str("user_id", u.ID)
		})
		c.Next()
	}
}

// AdminOnly accepts only "Authorization: Bearer <key>". An empty key rejects
// every request.
func AdminOnly(key string) gin.HandlerFunc {
	want := []byte(key)
	return func(c *gin.Context) {
		got, ok := bearerToken(c.Request)
		if key == "" || !ok || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
			unauthorized(c, "admin authorization required")
			return
		}
		c.Next()
	}
}

// UserFrom returns the user stored by Auth, or nil.
func UserFrom(c *gin.Context) *domain.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*domain.User); ok {
			return u
		}
	}
	return nil
}

// UserIDFrom returns the authenticated user id, or "".
func UserIDFrom(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func bearerToken(r *http.Request) (string, bool) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
