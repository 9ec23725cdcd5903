package httpkit

import (
	"github.com/gin-gonic/gin"
)

// Actor returns the authenticated actor id, or "" when the request is anonymous.
func Actor(c *gin.Context) string {
	v, ok := c.Get(ContextActorIDKey)
	if !ok {
		return ""
	}
	actor, _ := v.(string)
	return actor
}
