package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const ownerKey = "alertify.owner"

// OwnerHeader identifies the acting user. Real authentication is handled
// upstream (gateway); the API only needs a stable owner identity to scope
// contacts and alerts.
const OwnerHeader = "X-Owner"

func OwnerRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := c.GetHeader(OwnerHeader)
		if owner == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing owner identity"})
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func CurrentOwner(c *gin.Context) string {
	return c.GetString(ownerKey)
}
