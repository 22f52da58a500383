package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campusplan/timetable-api/internal/models"
	appErrors "github.com/campusplan/timetable-api/pkg/errors"
	"github.com/campusplan/timetable-api/pkg/response"
)

// RequireRoles enforces role-based access control for routes.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if _, ok := allowed[claims.Role]; ok {
			c.Next()
			return
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}

// RequireDepartmentScope lets admins and deans through unconditionally and
// restricts department representatives to their own department. The
// department is read from the named query or path parameter.
func RequireDepartmentScope(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		if claims.Role != models.RoleDepartmentRep {
			c.Next()
			return
		}

		requested := c.Param(param)
		if requested == "" {
			requested = c.Query(param)
		}
		if requested == "" || claims.DepartmentID == "" || requested != claims.DepartmentID {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "department scope mismatch"))
			c.Abort()
			return
		}
		c.Next()
	}
}
