package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/booking-api/internal/middleware"
	"github.com/noah-isme/booking-api/internal/models"
	appErrors "github.com/noah-isme/booking-api/pkg/errors"
	"github.com/noah-isme/booking-api/pkg/response"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// tenantScope derives the owner scope from the JWT claims and writes a 401 when there is none.
func tenantScope(c *gin.Context) (models.TenantScope, bool) {
	scope, ok := models.TenantScopeFromClaims(claimsFromContext(c))
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.TenantScope{}, false
	}
	return scope, true
}
