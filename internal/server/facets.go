package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	"go.uber.org/zap"
)

const facetCacheKey = "facet_cache"

func (s *Server) GetFacets(c *gin.Context) {
	categoryID, err := parsePathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, hit, err := s.facetSvc.Facets(c.Request.Context(), parseFilterSet(c, categoryID))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if hit {
		c.Set(facetCacheKey, "hit")
	} else {
		c.Set(facetCacheKey, "miss")
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// FacetRateLimit throttles facet computation per client ip.
func (s *Server) FacetRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.facetLimiter.Enabled() {
			c.Next()
			return
		}

		res := s.facetLimiter.Allow(c.Request.Context(), c.ClientIP())
		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			logger.FromContext(c.Request.Context()).Warn("facet rate limit exceeded",
				zap.String("route", c.FullPath()),
			)
			retryAfter := int(res.RetryAfter.Seconds() + 0.999)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			AbortWithError(c, ErrRateLimited)
			return
		}
		c.Next()
	}
}
