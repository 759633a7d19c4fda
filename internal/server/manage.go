package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
)

func (s *Server) GetProductProperties(c *gin.Context) {
	resp, err := s.catalogSvc.GetProductProperties(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProductProperties(c *gin.Context) {
	var req catalogdomain.UpdatePropertiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ProductID = strings.TrimSpace(c.Param("id"))

	if err := s.catalogSvc.UpdateProperties(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	s.GetProductProperties(c)
}

func (s *Server) UpdateProductPropertyGroups(c *gin.Context) {
	var req catalogdomain.UpdatePropertyGroupsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ProductID = strings.TrimSpace(c.Param("id"))

	if err := s.catalogSvc.UpdatePropertyGroups(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	s.GetProductProperties(c)
}
