package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// userID pulls the subject out of a verified token, falling back to the
// user_id claim some issuers use instead.
func userID(claims jwt.MapClaims) string {
	if sub, _ := claims["sub"].(string); sub != "" {
		return sub
	}
	id, _ := claims["user_id"].(string)
	return id
}

func parseBearer(c *gin.Context, secret []byte) (jwt.MapClaims, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, false
	}
	token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	return claims, ok
}

// RequireAuth rejects requests without a valid HS256 bearer token and puts
// the user id into the gin context.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := parseBearer(c, secret)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid bearer token"})
			c.Abort()
			return
		}
		c.Set("user_id", userID(claims))
		c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present but never
// rejects the request. Used when JWT_SECRET is unset in development.
func OptionalAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(secret) > 0 {
			if claims, ok := parseBearer(c, secret); ok {
				c.Set("user_id", userID(claims))
			}
		}
		c.Next()
	}
}
