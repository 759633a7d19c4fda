package server

import (
	"math"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	facetdomain "github.com/smallbiznis/storefront/internal/facet/domain"
)

func parseOptionalBool(value string) (*bool, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(trimmed)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parsePathID(c *gin.Context) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil || id <= 0 {
		return 0, facetdomain.ErrInvalidID
	}
	return id, nil
}

// parseFilterSet reads the facet filters of a category listing:
//
//	filter[<property_id>]=v1|v2
//	range[<property_id>]=min,max
//	price_min=..&price_max=..
//	manufacturer=<id>,<id>
//	sort=-price
//
// Unknown ids are skipped and malformed numbers read as zero.
func parseFilterSet(c *gin.Context, categoryID snowflake.ID) facetdomain.FilterSet {
	f := facetdomain.FilterSet{
		CategoryID: categoryID,
		Select:     make(map[snowflake.ID]string),
		Number:     make(map[snowflake.ID]facetdomain.Range),
		Sort:       strings.TrimSpace(c.Query("sort")),
	}

	for key, raw := range c.QueryMap("filter") {
		id, ok := parseID(key)
		if !ok {
			continue
		}
		if len(facetdomain.SelectValues(raw)) == 0 {
			continue
		}
		f.Select[id] = raw
	}

	for key, raw := range c.QueryMap("range") {
		id, ok := parseID(key)
		if !ok {
			continue
		}
		f.Number[id] = parseRange(raw)
	}

	minRaw, hasMin := c.GetQuery("price_min")
	maxRaw, hasMax := c.GetQuery("price_max")
	if hasMin || hasMax {
		f.Price = &facetdomain.PriceRange{Min: parseDecimal(minRaw), Max: parseDecimal(maxRaw)}
	}

	for _, raw := range strings.Split(c.Query("manufacturer"), ",") {
		if id, ok := parseID(raw); ok {
			f.Manufacturers = append(f.Manufacturers, id)
		}
	}
	return f
}

func parseID(raw string) (snowflake.ID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseRange(raw string) facetdomain.Range {
	lo, hi, _ := strings.Cut(raw, ",")
	return facetdomain.Range{Min: parseFloat(lo), Max: parseFloat(hi)}
}

func parseFloat(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func parseDecimal(raw string) decimal.Decimal {
	v, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero
	}
	return v
}
