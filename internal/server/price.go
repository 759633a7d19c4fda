package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetProductPrice(c *gin.Context) {
	withProperties, err := parseOptionalBool(c.Query("with_properties"))
	if err != nil {
		AbortWithError(c, newValidationError("with_properties", "invalid_with_properties", "invalid with_properties"))
		return
	}

	resp, err := s.priceSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")), withProperties != nil && *withProperties)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
