package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/storefront/internal/cache"
	"github.com/smallbiznis/storefront/internal/catalog/catalogtest"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/storefront/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/storefront/internal/catalog/service"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/events"
	facetrepository "github.com/smallbiznis/storefront/internal/facet/repository"
	facetservice "github.com/smallbiznis/storefront/internal/facet/service"
	"github.com/smallbiznis/storefront/internal/observability"
	priceservice "github.com/smallbiznis/storefront/internal/price/service"
	"github.com/smallbiznis/storefront/internal/ratelimit"
	taxdomain "github.com/smallbiznis/storefront/internal/tax/domain"
	taxrepository "github.com/smallbiznis/storefront/internal/tax/repository"
	taxservice "github.com/smallbiznis/storefront/internal/tax/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testShop struct {
	engine   *gin.Engine
	b        *catalogtest.Builder
	category catalogdomain.Category
	color    catalogdomain.Property
	red      catalogdomain.PropertyOption
	shirt    catalogdomain.Product
	mug      catalogdomain.Product
}

func newTestShop(t *testing.T) *testShop {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := catalogtest.NewDB(t)
	b := catalogtest.NewBuilder(t, db)
	log := zap.NewNop()
	catalogRepo := catalogrepository.Provide()
	settings := config.NewStaticShopSettings(config.DefaultShopSettings())

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:        db,
		Log:       log,
		GenID:     b.Node,
		Repo:      catalogRepo,
		Publisher: events.NewLocalBus(log, nil),
		Clock:     clock.NewSystemClock(),
	})
	facetSvc := facetservice.New(facetservice.Params{
		DB:          db,
		Log:         log,
		Repo:        facetrepository.Provide(),
		CatalogRepo: catalogRepo,
		Settings:    settings,
		FacetCache:  cache.NewMemoryFacetCache(time.Minute),
		Mappings:    cache.NewCatalogMappingCache(),
	})
	priceSvc := priceservice.New(priceservice.Params{
		DB:          db,
		Log:         log,
		CatalogRepo: catalogRepo,
		Taxes:       taxservice.NewResolver(taxservice.ResolverParams{Repository: taxrepository.NewRepository(db)}),
		Settings:    settings,
	})
	limiter := ratelimit.NewFacetLimiter(ratelimit.Params{
		Cfg:   config.Config{FacetRateLimit: 1, FacetRateLimitBurst: 2},
		Clock: clock.NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		Log:   log,
	})

	engine := NewEngine(observability.Config{}, nil)
	NewServer(ServerParams{
		Gin:          engine,
		CatalogSvc:   catalogSvc,
		FacetSvc:     facetSvc,
		PriceSvc:     priceSvc,
		FacetLimiter: limiter,
	})

	shop := &testShop{engine: engine, b: b}
	shop.category = b.Category("Shirts", nil, false)
	shop.color = b.Property(catalogdomain.Property{Name: "Color", Filterable: true})
	shop.red = b.Option(shop.color, "Red", 1, "")
	blue := b.Option(shop.color, "Blue", 2, "")
	tax := b.Tax("19")
	shop.shirt = b.Product(catalogtest.ProductSpec{Name: "Shirt", Price: "100", Tax: &tax, Categories: []catalogdomain.Category{shop.category}})
	shop.mug = b.Product(catalogtest.ProductSpec{Name: "Mug", Price: "50", Categories: []catalogdomain.Category{shop.category}})
	b.FilterValue(shop.shirt, shop.color, shop.red.ID.String())
	b.FilterValue(shop.mug, shop.color, blue.ID.String())
	return shop
}

func (s *testShop) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func errorType(payload map[string]any) string {
	e, _ := payload["error"].(map[string]any)
	typ, _ := e["type"].(string)
	return typ
}

func TestCategoryEndpoints(t *testing.T) {
	shop := newTestShop(t)

	rec, payload := shop.do(t, http.MethodGet, "/api/categories/"+shop.category.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "Shirts", data["name"])

	rec, payload = shop.do(t, http.MethodGet, "/api/categories/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(payload))

	rec, payload = shop.do(t, http.MethodGet, "/api/categories/"+shop.b.Node.Generate().String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorType(payload))
}

func TestListCategoryProductsAppliesFilters(t *testing.T) {
	shop := newTestShop(t)
	base := "/api/categories/" + shop.category.ID.String() + "/products"

	rec, payload := shop.do(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["data"], 2)
	assert.EqualValues(t, 2, payload["page_info"].(map[string]any)["total"])

	rec, payload = shop.do(t, http.MethodGet, base+"?filter["+shop.color.ID.String()+"]="+shop.red.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := payload["data"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Shirt", item["name"])
	prices := item["prices"].(map[string]any)
	assert.Equal(t, "84.03", prices["price_net"])

	rec, payload = shop.do(t, http.MethodGet, base+"?price_min=40&price_max=60&sort=bogus", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items = payload["data"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "Mug", items[0].(map[string]any)["name"])

	rec, payload = shop.do(t, http.MethodGet, base+"?page_size=1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["data"], 1)
	assert.Equal(t, true, payload["page_info"].(map[string]any)["has_more"])
}

func TestListCategoryProductsSurfacesDanglingTax(t *testing.T) {
	shop := newTestShop(t)
	require.NoError(t, shop.b.DB.Delete(&taxdomain.Tax{}, "id = ?", *shop.shirt.TaxID).Error)

	rec, payload := shop.do(t, http.MethodGet, "/api/categories/"+shop.category.ID.String()+"/products", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal_error", payload["error"].(map[string]any)["type"])
}

func TestFacetsEndpointIsRateLimited(t *testing.T) {
	shop := newTestShop(t)
	path := "/api/categories/" + shop.category.ID.String() + "/facets?filter[" + shop.color.ID.String() + "]=" + shop.red.ID.String()

	rec, payload := shop.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	fields := data["select_fields"].([]any)
	require.Len(t, fields, 1)
	field := fields[0].(map[string]any)
	assert.Equal(t, true, field["show_reset"])
	items := field["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Red", first["name"])
	assert.EqualValues(t, 1, first["quantity"])
	assert.Equal(t, true, first["checked"])
	assert.EqualValues(t, 2, items[1].(map[string]any)["quantity"])
	assert.NotNil(t, data["price"])

	rec, _ = shop.do(t, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload = shop.do(t, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorType(payload))
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestProductPriceEndpoint(t *testing.T) {
	shop := newTestShop(t)

	rec, payload := shop.do(t, http.MethodGet, "/api/products/"+shop.shirt.ID.String()+"/price?with_properties=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := payload["data"].(map[string]any)
	assert.Equal(t, "gross", data["calculator"])
	assert.Equal(t, "100", data["price_gross"])
	assert.Equal(t, "15.97", data["tax"])

	rec, _ = shop.do(t, http.MethodGet, "/api/products/"+shop.shirt.ID.String()+"/price?with_properties=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = shop.do(t, http.MethodGet, "/api/products/"+shop.b.Node.Generate().String()+"/price", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTopCategoryEndpoints(t *testing.T) {
	shop := newTestShop(t)
	child := shop.b.Category("Polos", &shop.category, false)

	rec, payload := shop.do(t, http.MethodGet, "/api/categories/"+child.ID.String()+"/top", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shirts", payload["data"].(map[string]any)["name"])

	rec, payload = shop.do(t, http.MethodGet, "/api/products/"+shop.shirt.ID.String()+"/top-category", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Shirts", payload["data"].(map[string]any)["name"])
}

func TestManagePropertiesEndpoints(t *testing.T) {
	shop := newTestShop(t)
	path := "/api/manage/products/" + shop.mug.ID.String() + "/properties"

	rec, _ := shop.do(t, http.MethodPut, path, map[string]any{
		"type":   "filter",
		"values": map[string][]string{shop.color.ID.String(): {shop.red.ID.String()}},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, payload := shop.do(t, http.MethodGet, "/api/categories/"+shop.category.ID.String()+"/products?filter["+shop.color.ID.String()+"]="+shop.red.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, payload["data"], 2)

	rec, payload = shop.do(t, http.MethodPut, path, map[string]any{"type": "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", errorType(payload))

	rec, _ = shop.do(t, http.MethodPut, path, "not an object")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	shop := newTestShop(t)
	rec, payload := shop.do(t, http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", errorType(payload))
}
