package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bookstore/internal/policy"
	"bookstore/internal/repositories"
)

const principalKey = "auth.principal"

// Middleware resolves the bearer token into a policy.Principal and stores
// it on the gin context. Requests without a (valid) token pass through
// anonymous; endpoint-level policy decides what anonymous callers may do.
func Middleware(m *Manager, users repositories.UserRepository, customers repositories.CustomerRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}
		userID, err := m.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		user, err := users.GetByID(nil, userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		p := &policy.Principal{User: user}
		if customer, err := customers.GetByUserID(nil, userID); err == nil {
			p.Customer = customer
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// CurrentPrincipal returns the principal for the request, or nil when the
// caller is anonymous.
func CurrentPrincipal(c *gin.Context) *policy.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*policy.Principal)
	return p
}
