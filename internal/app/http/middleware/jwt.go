package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/Pradumn88/lms-college-site-sub000/internal/app/http/respond"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const TokenTTL = 24 * time.Hour

// IssueToken signs the access token that AuthMiddleware accepts.
func IssueToken(secret string, userID uint, email, role string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"exp":     time.Now().Add(TokenTTL).Unix(),
	})
	return t.SignedString([]byte(secret))
}

func parseBearer(header, secret string) (jwt.MapClaims, error) {
	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header || strings.TrimSpace(tokenString) == "" {
		return nil, fmt.Errorf("bearer token malformed")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims jwt.MapClaims) bool {
	userID, ok := claims["user_id"].(float64)
	if !ok || userID <= 0 {
		return false
	}
	c.Set("user_id", uint(userID))
	if email, ok := claims["email"].(string); ok {
		c.Set("email", email)
	}
	if role, ok := claims["role"].(string); ok {
		c.Set("role", role)
	}
	return true
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			respond.Unauthorized(c, "Authorization header missing")
			return
		}

		claims, err := parseBearer(authHeader, secret)
		if err != nil {
			respond.Unauthorized(c, err.Error())
			return
		}
		if !setClaims(c, claims) {
			respond.Unauthorized(c, "Invalid token claims")
			return
		}
		c.Next()
	}
}

// OptionalAuth identifies the caller when a valid token is sent and lets
// anonymous requests through otherwise.
func OptionalAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			if claims, err := parseBearer(authHeader, secret); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		if role == "" {
			respond.Unauthorized(c, "Role not found in token")
			return
		}
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		respond.Forbidden(c, "Access denied")
	}
}
