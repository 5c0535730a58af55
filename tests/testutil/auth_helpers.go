package testutil

import (
	"github.com/auth0/go-jwt-middleware/v2/validator"
	"github.com/gin-gonic/gin"
)

// TestIssuer is the token issuer used by test claims
const TestIssuer = "https://test.auth0.com/"

// MockValidatedClaims creates a mock ValidatedClaims for testing
func MockValidatedClaims(subject, issuer string) *validator.ValidatedClaims {
	return &validator.ValidatedClaims{
		RegisteredClaims: validator.RegisteredClaims{
			Issuer:  issuer,
			Subject: subject,
		},
	}
}

// SetMockAuthContext sets up a mock authenticated context for testing
func SetMockAuthContext(c *gin.Context, userID string) {
	c.Set("user_id", userID)
	c.Set("validated_claims", MockValidatedClaims(userID, TestIssuer))
}

// MockAuthMiddleware stands in for the JWT middleware. An empty userID leaves the
// request anonymous, as the optional middleware does when no token is sent.
func MockAuthMiddleware(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			SetMockAuthContext(c, userID)
		}
		c.Next()
	}
}

// SwitchableAuth lets one router serve requests as different users
type SwitchableAuth struct {
	UserID string
}

// Middleware authenticates each request as the current UserID
func (a *SwitchableAuth) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.UserID != "" {
			SetMockAuthContext(c, a.UserID)
		}
		c.Next()
	}
}
