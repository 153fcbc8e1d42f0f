package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/salonci/salon-pos/internal/httperr"
	"github.com/salonci/salon-pos/internal/httpresp"
)

// RequireRole limite une route aux rôles listés. S'empile après
// AuthMiddleware, qui pose le rôle dans le contexte.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		role, _ := c.Get(ContextUserRole)
		roleStr, _ := role.(string)

		if _, ok := allowed[roleStr]; !ok {
			httpresp.Fail(c, httperr.Authorization("role_insuffisant",
				"Vous n'avez pas les droits pour cette action."))
			c.Abort()
			return
		}
		c.Next()
	}
}
