// internal/middleware/helpers.go
package middleware

import (
	"showroom-service/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
)

// GetClaims returns the claims stored by Auth().
func GetClaims(c *gin.Context) (*jwt.Claims, bool) {
	v, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := v.(*jwt.Claims)
	return claims, ok
}

// MustGetClaims gets claims from context or panics
func MustGetClaims(c *gin.Context) *jwt.Claims {
	claims, ok := GetClaims(c)
	if !ok {
		panic("claims not found in context")
	}
	return claims
}

// IsAdmin checks if user is an admin
func IsAdmin(c *gin.Context) bool {
	claims, ok := GetClaims(c)
	return ok && claims.IsAdmin()
}
