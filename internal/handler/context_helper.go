package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kgadmissions/enquiry-api/internal/middleware"
	"github.com/kgadmissions/enquiry-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.StaffClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.StaffClaims)
	if !ok {
		return nil
	}
	return claims
}
