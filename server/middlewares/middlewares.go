package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// SubjectHeader carries the authenticated user id to the handlers.
const SubjectHeader = "sub"

var ErrUnauthorized = errors.New("unauthorized")

// tokenFromRequest reads "Authorization: Bearer <jwt>", falling back to the
// "token" query parameter for websocket upgrades where browsers can't set
// headers.
func tokenFromRequest(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if token := strings.TrimPrefix(auth, "Bearer "); token != auth {
			return strings.TrimSpace(token)
		}
	}
	return c.Query("token")
}

// ParseSubject validates an HS256 token signed with secret and returns its
// subject. An empty secret validates nothing.
func ParseSubject(secret, token string) (string, error) {
	if secret == "" {
		return "", errors.Wrap(ErrUnauthorized, "jwt secret is not configured")
	}
	if token == "" {
		return "", errors.Wrap(ErrUnauthorized, "empty jwt token")
	}
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", errors.Wrap(ErrUnauthorized, err.Error())
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.Wrap(ErrUnauthorized, "token has no subject")
	}
	return sub, nil
}

// JWT middleware validates the caller's jwt and replaces the "sub" header
// with the user id found in it. It aborts with 401 on a missing, invalid or
// expired token.
func JWT(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := ParseSubject(secret, tokenFromRequest(c))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Request.Header.Del(SubjectHeader)
		c.Request.Header.Add(SubjectHeader, sub)
		c.Set(SubjectHeader, sub)
		c.Next()
	}
}
