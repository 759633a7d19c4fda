package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/cache"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/facet/domain"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/pkg/db/option"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SortKeys are the product columns a listing may be sorted by.
var SortKeys = map[string]bool{
	"name":            true,
	"price":           true,
	"effective_price": true,
	"sku":             true,
	"position":        true,
	"created_at":      true,
}

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	CatalogRepo catalogdomain.Repository
	Settings    *config.ShopSettingsHolder
	FacetCache  cache.FacetCache
	Mappings    cache.CatalogMappingCache
	Metrics     *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	catalogRepo catalogdomain.Repository
	settings    *config.ShopSettingsHolder
	facetCache  cache.FacetCache
	mappings    cache.CatalogMappingCache
	metrics     *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	facetCache := p.FacetCache
	if facetCache == nil {
		facetCache = cache.NewNoopFacetCache()
	}
	mappings := p.Mappings
	if mappings == nil {
		mappings = cache.NewCatalogMappingCache()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("facet.service"),
		repo:        p.Repo,
		catalogRepo: p.CatalogRepo,
		settings:    p.Settings,
		facetCache:  facetCache,
		mappings:    mappings,
		metrics:     p.Metrics,
	}
}

// ParseSort turns "price" or "-price" into a whitelisted sort option.
func ParseSort(raw string) option.QuerySortBy {
	raw = strings.TrimSpace(raw)
	direction := "asc"
	if strings.HasPrefix(raw, "-") {
		direction = "desc"
		raw = strings.TrimPrefix(raw, "-")
	}
	return option.WithQuerySortBy(raw, direction, SortKeys)
}

func (s *Service) ResolveProducts(ctx context.Context, filters domain.FilterSet) ([]snowflake.ID, error) {
	snap, err := s.loadSnapshot(ctx, filters)
	if err != nil {
		return nil, err
	}
	ids := snap.resolve(filters)
	s.metrics.RecordResolvedProducts(ctx, len(ids))
	return ids, nil
}

func (s *Service) ListProducts(ctx context.Context, filters domain.FilterSet, page pagination.Pagination) ([]catalogdomain.Product, pagination.PageInfo, error) {
	snap, err := s.loadSnapshot(ctx, filters)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}

	ids := snap.resolve(filters)
	s.metrics.RecordResolvedProducts(ctx, len(ids))

	products := make([]catalogdomain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := snap.product(id); ok {
			products = append(products, p)
		}
	}
	items, info := pagination.Slice(products, page)
	return items, info, nil
}

func (s *Service) PriceFacet(ctx context.Context, filters domain.FilterSet) (*domain.PriceFacet, error) {
	snap, err := s.loadSnapshot(ctx, filters)
	if err != nil {
		return nil, err
	}
	return s.priceFacet(snap, filters), nil
}

func (s *Service) priceFacet(snap *snapshot, filters domain.FilterSet) *domain.PriceFacet {
	if filters.Price != nil {
		r := filters.Price.Normalize()
		return &domain.PriceFacet{ShowReset: true, Min: r.Min, Max: r.Max}
	}

	ids := snap.resolve(filters)
	if len(ids) == 0 {
		return nil
	}

	lo, hi, ok := snap.priceRange(ids)
	if !ok {
		return &domain.PriceFacet{Disabled: true}
	}
	places := s.settings.Get().DecimalPlaces
	return &domain.PriceFacet{Min: lo.Round(places), Max: hi.Round(places)}
}

func (s *Service) ManufacturerFacet(ctx context.Context, filters domain.FilterSet) (*domain.ManufacturerFacet, error) {
	snap, err := s.loadSnapshot(ctx, filters)
	if err != nil {
		return nil, err
	}
	return s.manufacturerFacet(ctx, snap, filters)
}

func (s *Service) manufacturerFacet(ctx context.Context, snap *snapshot, filters domain.FilterSet) (*domain.ManufacturerFacet, error) {
	withoutOwn := filters.Clone()
	withoutOwn.Manufacturers = nil

	ids := snap.resolve(withoutOwn)
	if len(ids) == 0 {
		return nil, nil
	}
	manufacturerIDs := snap.manufacturerIDs(ids)
	if len(manufacturerIDs) == 0 {
		return nil, nil
	}

	manufacturers, err := s.repo.ListManufacturers(ctx, s.db, manufacturerIDs)
	if err != nil {
		return nil, err
	}

	selected := make(map[snowflake.ID]bool, len(filters.Manufacturers))
	for _, id := range filters.Manufacturers {
		selected[id] = true
	}
	facet := &domain.ManufacturerFacet{
		ShowReset: len(filters.Manufacturers) > 0,
		Items:     make([]domain.ManufacturerItem, 0, len(manufacturers)),
	}
	for _, m := range manufacturers {
		facet.Items = append(facet.Items, domain.ManufacturerItem{Obj: m, Selected: selected[m.ID]})
	}
	return facet, nil
}

func (s *Service) ProductFacets(ctx context.Context, filters domain.FilterSet) (*domain.ProductFacets, error) {
	snap, err := s.loadSnapshot(ctx, filters)
	if err != nil {
		return nil, err
	}
	m, err := s.loadMappings(ctx, snap)
	if err != nil {
		return nil, err
	}
	return snap.productFacets(filters, m), nil
}

func (s *Service) Facets(ctx context.Context, filters domain.FilterSet) (*domain.Facets, bool, error) {
	ctx, span := otel.Tracer("storefront/facet").Start(ctx, "facet.compute")
	defer span.End()

	key := cache.FacetKey(filters.CategoryID.String(), filters.Canonical())

	var cached domain.Facets
	hit, err := s.facetCache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("facet cache read failed", zap.String("backend", s.facetCache.Backend()), zap.Error(err))
	}
	s.metrics.RecordCacheLookup(ctx, s.facetCache.Backend(), hit)
	span.SetAttributes(attribute.Bool("facet.cache_hit", hit))
	if hit {
		return &cached, true, nil
	}

	start := time.Now()
	snap, err := s.loadSnapshot(ctx, filters)
	if err != nil {
		return nil, false, err
	}
	m, err := s.loadMappings(ctx, snap)
	if err != nil {
		return nil, false, err
	}

	product := snap.productFacets(filters, m)
	manufacturers, err := s.manufacturerFacet(ctx, snap, filters)
	if err != nil {
		return nil, false, err
	}
	facets := &domain.Facets{
		SelectFields:  product.SelectFields,
		NumberFields:  product.NumberFields,
		Price:         s.priceFacet(snap, filters),
		Manufacturers: manufacturers,
	}
	s.metrics.RecordFacetComputation(ctx, time.Since(start), filters.ActiveCount())

	if err := s.facetCache.Set(ctx, key, facets); err != nil {
		s.log.Warn("facet cache write failed", zap.String("backend", s.facetCache.Backend()), zap.Error(err))
	}
	return facets, false, nil
}

func (s *Service) CalculateSteps(ctx context.Context, baseIDs []snowflake.ID, property *catalogdomain.Property, min, max float64) ([]domain.NumberStep, error) {
	if property == nil {
		return []domain.NumberStep{}, nil
	}

	variants, err := s.repo.ListActiveVariants(ctx, s.db, baseIDs)
	if err != nil {
		return nil, err
	}
	productIDs := append([]snowflake.ID{}, baseIDs...)
	for _, v := range variants {
		productIDs = append(productIDs, v.ID)
	}
	values, err := s.repo.ListFilterValues(ctx, s.db, productIDs)
	if err != nil {
		return nil, err
	}

	var filterSteps []catalogdomain.FilterStep
	if property.StepType == catalogdomain.StepTypeSteps {
		if filterSteps, err = s.catalogRepo.ListFilterSteps(ctx, s.db, property.ID); err != nil {
			return nil, err
		}
	}
	return calculateSteps(values, property, filterSteps, min, max), nil
}

func (s *Service) TopCategoryOfCategory(ctx context.Context, categoryID string) (*catalogdomain.Category, error) {
	id, err := parseID(categoryID)
	if err != nil {
		return nil, err
	}
	category, err := s.catalogRepo.FindCategoryByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return s.topOf(ctx, category)
}

func (s *Service) TopCategoryOfProduct(ctx context.Context, productID string) (*catalogdomain.Category, error) {
	id, err := parseID(productID)
	if err != nil {
		return nil, err
	}
	product, err := s.catalogRepo.FindProductByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrProductNotFound
	}

	category, err := s.catalogRepo.FirstCategoryOfProduct(ctx, s.db, product.FamilyID())
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return s.topOf(ctx, category)
}

func (s *Service) topOf(ctx context.Context, category *catalogdomain.Category) (*catalogdomain.Category, error) {
	if category.ParentID == nil {
		return category, nil
	}
	all, err := s.catalogRepo.ListCategories(ctx, s.db)
	if err != nil {
		return nil, err
	}
	byID := make(map[snowflake.ID]catalogdomain.Category, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}

	current := *category
	visited := map[snowflake.ID]bool{current.ID: true}
	for current.ParentID != nil {
		parent, ok := byID[*current.ParentID]
		if !ok || visited[parent.ID] {
			break
		}
		visited[parent.ID] = true
		current = parent
	}
	return &current, nil
}

// loadSnapshot reads the category's base products, their active variants
// and the filter values of both.
func (s *Service) loadSnapshot(ctx context.Context, filters domain.FilterSet) (*snapshot, error) {
	category, err := s.catalogRepo.FindCategoryByID(ctx, s.db, filters.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}

	categoryIDs := []snowflake.ID{category.ID}
	if category.ShowAllProducts {
		all, err := s.catalogRepo.ListCategories(ctx, s.db)
		if err != nil {
			return nil, err
		}
		categoryIDs = withDescendants(category.ID, all)
	}

	base, err := s.repo.ListBaseProducts(ctx, s.db, categoryIDs, option.WithSortBy(ParseSort(filters.Sort)))
	if err != nil {
		return nil, err
	}
	baseIDs := make([]snowflake.ID, 0, len(base))
	for _, p := range base {
		baseIDs = append(baseIDs, p.ID)
	}

	variants, err := s.repo.ListActiveVariants(ctx, s.db, baseIDs)
	if err != nil {
		return nil, err
	}
	productIDs := append([]snowflake.ID{}, baseIDs...)
	for _, v := range variants {
		productIDs = append(productIDs, v.ID)
	}

	values, err := s.repo.ListFilterValues(ctx, s.db, productIDs)
	if err != nil {
		return nil, err
	}
	return newSnapshot(base, variants, values), nil
}

func withDescendants(root snowflake.ID, all []catalogdomain.Category) []snowflake.ID {
	children := make(map[snowflake.ID][]snowflake.ID)
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	out := []snowflake.ID{root}
	seen := map[snowflake.ID]bool{root: true}
	for i := 0; i < len(out); i++ {
		for _, child := range children[out[i]] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
		}
	}
	return out
}

// loadMappings returns the property and option lookups, cached across
// requests, plus the filter steps of the stepped number properties in snap.
func (s *Service) loadMappings(ctx context.Context, snap *snapshot) (mappings, error) {
	m := mappings{steps: make(map[snowflake.ID][]catalogdomain.FilterStep)}

	properties, ok := s.mappings.GetProperties()
	if !ok {
		list, err := s.catalogRepo.ListProperties(ctx, s.db)
		if err != nil {
			return m, err
		}
		properties = make(map[string]catalogdomain.Property, len(list))
		for _, p := range list {
			properties[p.ID.String()] = p
		}
		s.mappings.SetProperties(properties)
	}
	m.properties = properties

	options, ok := s.mappings.GetOptions()
	if !ok {
		list, err := s.catalogRepo.ListOptions(ctx, s.db, nil)
		if err != nil {
			return m, err
		}
		options = make(map[string]catalogdomain.PropertyOption, len(list))
		for _, o := range list {
			options[o.ID.String()] = o
		}
		s.mappings.SetOptions(options)
	}
	m.options = options

	for _, v := range snap.values {
		prop, ok := m.property(v.PropertyID)
		if !ok || !prop.IsNumber() || prop.StepType != catalogdomain.StepTypeSteps {
			continue
		}
		if _, loaded := m.steps[prop.ID]; loaded {
			continue
		}
		steps, err := s.catalogRepo.ListFilterSteps(ctx, s.db, prop.ID)
		if err != nil {
			return m, err
		}
		m.steps[prop.ID] = steps
	}
	return m, nil
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
