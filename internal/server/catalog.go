package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	pricedomain "github.com/smallbiznis/storefront/internal/price/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/zap"
)

func (s *Server) GetCategory(c *gin.Context) {
	resp, err := s.catalogSvc.GetCategory(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTopCategory(c *gin.Context) {
	resp, err := s.facetSvc.TopCategoryOfCategory(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type categoryProduct struct {
	catalogdomain.Product
	Prices *pricedomain.PriceResponse `json:"prices,omitempty"`
}

func (s *Server) ListCategoryProducts(c *gin.Context) {
	categoryID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	products, pageInfo, err := s.facetSvc.ListProducts(ctx, parseFilterSet(c, categoryID), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]categoryProduct, 0, len(products))
	for _, p := range products {
		prices, err := s.priceSvc.Get(ctx, p.ID.String(), false)
		if err != nil {
			logger.FromContext(ctx).Warn("price lookup failed",
				zap.String("product_id", p.ID.String()),
				zap.Error(err),
			)
			AbortWithError(c, err)
			return
		}
		items = append(items, categoryProduct{Product: p, Prices: prices})
	}

	c.JSON(http.StatusOK, gin.H{"data": items, "page_info": pageInfo})
}

func (s *Server) ListForSale(c *gin.Context) {
	var query struct {
		Limit      string `form:"limit"`
		CategoryID string `form:"category_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	limit := 0
	if raw := strings.TrimSpace(query.Limit); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "invalid limit"))
			return
		}
		limit = parsed
	}

	resp, err := s.catalogSvc.ListForSale(c.Request.Context(), catalogdomain.ListForSaleRequest{
		Limit:      limit,
		CategoryID: strings.TrimSpace(query.CategoryID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProduct(c *gin.Context) {
	resp, err := s.catalogSvc.GetProduct(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProductTopCategory(c *gin.Context) {
	resp, err := s.facetSvc.TopCategoryOfProduct(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
