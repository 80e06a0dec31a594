package middleware

import (
	"net/http"
	"strings"

	"anoa.com/skillexchange/internal/repository"
	"anoa.com/skillexchange/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	auth     service.AuthService
	userRepo repository.UserRepository
}

func NewAuthMiddleware(auth service.AuthService, userRepo repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{
		auth:     auth,
		userRepo: userRepo,
	}
}

// RequireAuth validates the bearer token, loads the account and stores
// user_id and is_staff in the request context. Deactivated accounts are
// rejected.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		// Fallback to query parameter "token" (useful for WebSockets)
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}

		userID, err := m.auth.ParseToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account not found or deactivated"})
			c.Abort()
			return
		}

		c.Set("user_id", userID.String())
		c.Set("is_staff", user.IsStaff)
		c.Next()
	}
}

// RequireStaff must run after RequireAuth.
func (m *AuthMiddleware) RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			c.JSON(http.StatusForbidden, gin.H{"error": "staff access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// IsStaff reports whether the authenticated user is staff.
func IsStaff(c *gin.Context) bool {
	v, exists := c.Get("is_staff")
	if !exists {
		return false
	}
	isStaff, ok := v.(bool)
	return ok && isStaff
}
