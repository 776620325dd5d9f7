package handlers

import "github.com/gin-gonic/gin"

// Context keys populated by the auth middleware.
const (
	ContextUserID  = "userID"
	ContextIsAdmin = "isAdmin"
)

// currentUserID returns the authenticated user's ID from the request context.
func currentUserID(c *gin.Context) (uint64, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint64)
	return id, ok
}

// isAdmin reports whether the authenticated user holds admin rights.
func isAdmin(c *gin.Context) bool {
	value, exists := c.Get(ContextIsAdmin)
	if !exists {
		return false
	}
	admin, ok := value.(bool)
	return ok && admin
}
