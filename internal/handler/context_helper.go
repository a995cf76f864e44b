package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/yoga-escrow-api/internal/middleware"
	"github.com/noah-isme/yoga-escrow-api/internal/models"
	appErrors "github.com/noah-isme/yoga-escrow-api/pkg/errors"
)

// teacherHandle resolves the calling teacher's handle from the access token.
func teacherHandle(c *gin.Context) (string, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return "", appErrors.ErrUnauthorized
	}
	if claims.Role != models.RoleTeacher || claims.Handle == "" {
		return "", appErrors.Clone(appErrors.ErrForbidden, "a teacher token is required")
	}
	return claims.Handle, nil
}
