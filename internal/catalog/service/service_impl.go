package service

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/events"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultForSaleLimit = 5

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	Publisher events.Publisher
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	genID     *snowflake.Node
	publisher events.Publisher
	clock     clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("catalog.service"),
		repo:      p.Repo,
		genID:     p.GenID,
		publisher: p.Publisher,
		clock:     p.Clock,
	}
}

func (s *Service) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	categoryID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	category, err := s.repo.FindCategoryByID(ctx, s.db, categoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, domain.ErrCategoryNotFound
	}
	return category, nil
}

func (s *Service) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindProductByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

func (s *Service) ListForSale(ctx context.Context, req domain.ListForSaleRequest) ([]domain.Product, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultForSaleLimit
	}

	var categoryID *snowflake.ID
	if raw := strings.TrimSpace(req.CategoryID); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			return nil, err
		}
		categoryID = &id
	}

	return s.repo.ListForSale(ctx, s.db, categoryID, limit)
}

func (s *Service) GetProductProperties(ctx context.Context, id string) (*domain.ProductPropertiesResponse, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	groupIDs, err := s.repo.ListProductGroupIDs(ctx, s.db, product.ID)
	if err != nil {
		return nil, err
	}
	allGroups, err := s.repo.ListPropertyGroups(ctx, s.db)
	if err != nil {
		return nil, err
	}
	groupProps, err := s.repo.ListGroupProperties(ctx, s.db, groupIDs)
	if err != nil {
		return nil, err
	}

	propertyIDs := make([]snowflake.ID, 0, len(groupProps))
	for _, gp := range groupProps {
		propertyIDs = append(propertyIDs, gp.ID)
	}
	options, err := s.repo.ListOptions(ctx, s.db, propertyIDs)
	if err != nil {
		return nil, err
	}
	optionsByProperty := make(map[snowflake.ID][]domain.PropertyOption)
	for _, opt := range options {
		optionsByProperty[opt.PropertyID] = append(optionsByProperty[opt.PropertyID], opt)
	}

	selected := make(map[domain.ValueType]map[snowflake.ID][]string, 3)
	for _, vt := range []domain.ValueType{domain.ValueTypeDefault, domain.ValueTypeFilter, domain.ValueTypeDisplay} {
		values, err := s.repo.ListValues(ctx, s.db, product.ID, vt)
		if err != nil {
			return nil, err
		}
		byProperty := make(map[snowflake.ID][]string)
		for _, v := range values {
			byProperty[v.PropertyID] = append(byProperty[v.PropertyID], v.Value)
		}
		selected[vt] = byProperty
	}

	groupNames := make(map[snowflake.ID]string, len(allGroups))
	for _, g := range allGroups {
		groupNames[g.ID] = g.Name
	}

	build := func(vt domain.ValueType, include func(p *domain.Property) bool) []domain.GroupEntry {
		out := make([]domain.GroupEntry, 0, len(groupIDs))
		for _, groupID := range groupIDs {
			entry := domain.GroupEntry{
				ID:         groupID.String(),
				Name:       groupNames[groupID],
				Properties: []domain.PropertyEntry{},
			}
			for i := range groupProps {
				gp := &groupProps[i]
				if gp.GroupID != groupID || !include(&gp.Property) {
					continue
				}
				entry.Properties = append(entry.Properties, propertyEntry(&gp.Property, optionsByProperty[gp.ID], selected[vt][gp.ID]))
			}
			out = append(out, entry)
		}
		return out
	}

	assigned := make(map[snowflake.ID]bool, len(groupIDs))
	for _, id := range groupIDs {
		assigned[id] = true
	}
	groups := make([]domain.GroupSelection, 0, len(allGroups))
	for _, g := range allGroups {
		groups = append(groups, domain.GroupSelection{
			ID:       g.ID.String(),
			Name:     g.Name,
			Selected: assigned[g.ID],
		})
	}

	return &domain.ProductPropertiesResponse{
		ProductID:     product.ID.String(),
		Configurables: build(domain.ValueTypeDefault, func(p *domain.Property) bool { return p.Configurable }),
		Filterables:   build(domain.ValueTypeFilter, func(p *domain.Property) bool { return p.Filterable }),
		Displayables:  build(domain.ValueTypeDisplay, func(p *domain.Property) bool { return p.DisplayOnProduct }),
		Groups:        groups,
	}, nil
}

func propertyEntry(p *domain.Property, options []domain.PropertyOption, values []string) domain.PropertyEntry {
	chosen := make(map[string]bool, len(values))
	for _, v := range values {
		chosen[v] = true
	}

	entry := domain.PropertyEntry{
		ID:                 p.ID.String(),
		Name:               p.Name,
		Type:               p.Type,
		Options:            make([]domain.OptionSelection, 0, len(options)),
		Values:             append([]string{}, values...),
		DisplayTextField:   p.IsText() || p.IsNumber(),
		DisplaySelectField: p.IsSelect(),
	}
	for _, opt := range options {
		entry.Options = append(entry.Options, domain.OptionSelection{
			ID:       opt.ID.String(),
			Name:     opt.Name,
			Selected: chosen[opt.ID.String()],
		})
	}
	return entry
}

func (s *Service) UpdateProperties(ctx context.Context, req domain.UpdatePropertiesRequest) error {
	if !req.Type.Valid() {
		return domain.ErrInvalidValueType
	}
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(req.Values))
	for key := range req.Values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, key := range keys {
			propertyID, err := parseID(key)
			if err != nil {
				return domain.ErrInvalidProperty
			}
			property, err := s.repo.FindPropertyByID(ctx, tx, propertyID)
			if err != nil {
				return err
			}
			if property == nil {
				return domain.ErrInvalidProperty
			}

			var optionIDs map[string]bool
			if property.IsSelect() {
				options, err := s.repo.ListOptions(ctx, tx, []snowflake.ID{property.ID})
				if err != nil {
					return err
				}
				optionIDs = make(map[string]bool, len(options))
				for _, opt := range options {
					optionIDs[opt.ID.String()] = true
				}
			}

			rows := make([]domain.ProductPropertyValue, 0, len(req.Values[key]))
			for _, raw := range req.Values[key] {
				value := normalizeValue(property, optionIDs, raw)
				rows = append(rows, domain.ProductPropertyValue{
					ID:           s.genID.Generate(),
					ProductID:    product.ID,
					ParentID:     product.FamilyID(),
					PropertyID:   property.ID,
					Value:        value,
					ValueAsFloat: parseFloat(value),
					Type:         req.Type,
				})
			}
			if err := s.repo.ReplaceValues(ctx, tx, product.ID, property.ID, req.Type, rows); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.TypeProductPropertiesUpdated, product.ID)
	return nil
}

// normalizeValue stores "0" for values the property cannot hold.
func normalizeValue(p *domain.Property, optionIDs map[string]bool, raw string) string {
	value := strings.TrimSpace(raw)
	switch p.Type {
	case domain.PropertyTypeNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return "0"
		}
	case domain.PropertyTypeSelect:
		if !optionIDs[value] {
			return "0"
		}
	}
	return value
}

func parseFloat(value string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return nil
	}
	return &f
}

func (s *Service) UpdatePropertyGroups(ctx context.Context, req domain.UpdatePropertyGroupsRequest) error {
	product, err := s.GetProduct(ctx, req.ProductID)
	if err != nil {
		return err
	}

	wanted := make(map[snowflake.ID]bool, len(req.GroupIDs))
	for _, raw := range req.GroupIDs {
		id, err := parseID(raw)
		if err != nil {
			return domain.ErrInvalidGroup
		}
		wanted[id] = true
	}

	groups, err := s.repo.ListPropertyGroups(ctx, s.db)
	if err != nil {
		return err
	}
	known := make(map[snowflake.ID]bool, len(groups))
	for _, g := range groups {
		known[g.ID] = true
	}
	for id := range wanted {
		if !known[id] {
			return domain.ErrInvalidGroup
		}
	}

	current, err := s.repo.ListProductGroupIDs(ctx, s.db, product.ID)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, g := range groups {
			if wanted[g.ID] {
				if err := s.repo.AssignGroup(ctx, tx, g.ID, product.ID); err != nil {
					return err
				}
				continue
			}
			if err := s.repo.UnassignGroup(ctx, tx, g.ID, product.ID); err != nil {
				return err
			}
		}

		var removed []snowflake.ID
		for _, id := range current {
			if !wanted[id] {
				removed = append(removed, id)
			}
		}
		return s.dropGroupValues(ctx, tx, product.ID, removed, wanted)
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.TypeProductPropertyGroupsUpdated, product.ID)
	return nil
}

// dropGroupValues removes values of properties that belonged only to removed groups.
func (s *Service) dropGroupValues(ctx context.Context, tx *gorm.DB, productID snowflake.ID, removed []snowflake.ID, kept map[snowflake.ID]bool) error {
	if len(removed) == 0 {
		return nil
	}
	removedProps, err := s.repo.ListGroupProperties(ctx, tx, removed)
	if err != nil {
		return err
	}

	keptIDs := make([]snowflake.ID, 0, len(kept))
	for id := range kept {
		keptIDs = append(keptIDs, id)
	}
	keptProps, err := s.repo.ListGroupProperties(ctx, tx, keptIDs)
	if err != nil {
		return err
	}
	stillUsed := make(map[snowflake.ID]bool, len(keptProps))
	for _, gp := range keptProps {
		stillUsed[gp.ID] = true
	}

	var propertyIDs []snowflake.ID
	seen := make(map[snowflake.ID]bool)
	for _, gp := range removedProps {
		if stillUsed[gp.ID] || seen[gp.ID] {
			continue
		}
		seen[gp.ID] = true
		propertyIDs = append(propertyIDs, gp.ID)
	}
	return s.repo.DeleteValuesForProperties(ctx, tx, productID, propertyIDs)
}

func (s *Service) publish(ctx context.Context, eventType string, productID snowflake.ID) {
	if s.publisher == nil {
		return
	}
	evt := events.New(eventType, productID.String(), s.clock.Now())
	if err := s.publisher.Publish(ctx, evt); err != nil {
		s.log.Warn("publish catalog event failed",
			zap.String("event_type", eventType),
			zap.String("product_id", productID.String()),
			zap.Error(err),
		)
	}
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
