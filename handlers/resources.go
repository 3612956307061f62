package handlers

import (
	"errors"
	"net/http"

	"eduscan-api/services"

	"github.com/gin-gonic/gin"
)

type ResourceHandler struct {
	resources *services.ResourceService
}

func NewResourceHandler(resources *services.ResourceService) *ResourceHandler {
	return &ResourceHandler{resources: resources}
}

// GetActivity picks a random activity for ?type= and ?grade=.
func (h *ResourceHandler) GetActivity(c *gin.Context) {
	a, err := h.resources.GenerateActivity(c.Query("type"), c.Query("grade"))
	if errors.Is(err, services.ErrUnknownDifficulty) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":           err.Error(),
			"supported_types": services.DifficultyTypes(),
		})
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *ResourceHandler) GetStrategies(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": services.Strategies()})
}
