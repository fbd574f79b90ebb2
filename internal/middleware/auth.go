package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// WantsJSON reports whether the client asked for JSON instead of redirects.
func WantsJSON(c *gin.Context) bool {
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c).Authenticated() {
			c.Next()
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		Flash(c, "info", "Please log in to access this page.")
		c.Redirect(http.StatusSeeOther, "/login")
		c.Abort()
	}
}

// RequireAdmin sends everyone but admins back to the catalog.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentActor(c).IsAdmin {
			c.Next()
			return
		}
		if WantsJSON(c) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Redirect(http.StatusSeeOther, "/")
		c.Abort()
	}
}
