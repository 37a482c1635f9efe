package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/school-academic-api/internal/middleware"
	"github.com/noah-isme/school-academic-api/internal/models"
	"github.com/noah-isme/school-academic-api/internal/service"
	appErrors "github.com/noah-isme/school-academic-api/pkg/errors"
	"github.com/noah-isme/school-academic-api/pkg/response"
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

// requireActor writes 401 and returns false when the request carries no claims.
func requireActor(c *gin.Context) (service.Actor, bool) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return service.Actor{}, false
	}
	return service.ActorFromClaims(claims), true
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
}
