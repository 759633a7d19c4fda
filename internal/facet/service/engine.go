package service

import (
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/facet/domain"
)

// snapshot is the slice of the catalog one request works on: the category's
// base products, their active variants and the filter values of both.
type snapshot struct {
	base     []catalogdomain.Product
	index    map[snowflake.ID]int
	variants map[snowflake.ID][]catalogdomain.Product
	family   map[snowflake.ID]snowflake.ID
	values   []catalogdomain.ProductPropertyValue
}

func newSnapshot(base, variants []catalogdomain.Product, values []catalogdomain.ProductPropertyValue) *snapshot {
	s := &snapshot{
		base:     base,
		index:    make(map[snowflake.ID]int, len(base)),
		variants: make(map[snowflake.ID][]catalogdomain.Product),
		family:   make(map[snowflake.ID]snowflake.ID, len(base)+len(variants)),
		values:   values,
	}
	for i, p := range base {
		s.index[p.ID] = i
		s.family[p.ID] = p.ID
	}
	for _, v := range variants {
		if v.ParentID == nil {
			continue
		}
		if _, ok := s.family[*v.ParentID]; !ok {
			continue
		}
		s.variants[*v.ParentID] = append(s.variants[*v.ParentID], v)
		s.family[v.ID] = *v.ParentID
	}
	return s
}

func (s *snapshot) baseIDs() []snowflake.ID {
	ids := make([]snowflake.ID, 0, len(s.base))
	for _, p := range s.base {
		ids = append(ids, p.ID)
	}
	return ids
}

func (s *snapshot) product(id snowflake.ID) (catalogdomain.Product, bool) {
	i, ok := s.index[id]
	if !ok {
		return catalogdomain.Product{}, false
	}
	return s.base[i], true
}

// clause is one property filter: a set of accepted select values or a
// number range.
type clause struct {
	propertyID snowflake.ID
	values     map[string]bool
	rng        *domain.Range
}

func (c clause) matches(v catalogdomain.ProductPropertyValue) bool {
	if c.rng != nil {
		return v.ValueAsFloat != nil && c.rng.Contains(*v.ValueAsFloat)
	}
	return c.values[strings.TrimSpace(v.Value)]
}

func buildClauses(f domain.FilterSet) []clause {
	clauses := make([]clause, 0, len(f.Select)+len(f.Number))
	for propertyID, raw := range f.Select {
		values := domain.SelectValues(raw)
		if len(values) == 0 {
			continue
		}
		set := make(map[string]bool, len(values))
		for _, v := range values {
			set[v] = true
		}
		clauses = append(clauses, clause{propertyID: propertyID, values: set})
	}
	for propertyID, r := range f.Number {
		rng := r.Normalize()
		clauses = append(clauses, clause{propertyID: propertyID, rng: &rng})
	}
	return clauses
}

// resolve returns the base product ids, in base order, that satisfy every
// filter in f. Variant matches count for their parent.
func (s *snapshot) resolve(f domain.FilterSet) []snowflake.ID {
	clauses := buildClauses(f)

	var satisfied map[snowflake.ID]map[int]bool
	if len(clauses) > 0 {
		byProperty := make(map[snowflake.ID][]int, len(clauses))
		for i, c := range clauses {
			byProperty[c.propertyID] = append(byProperty[c.propertyID], i)
		}

		satisfied = make(map[snowflake.ID]map[int]bool)
		for _, v := range s.values {
			idx, ok := byProperty[v.PropertyID]
			if !ok {
				continue
			}
			familyID, ok := s.family[v.ProductID]
			if !ok {
				continue
			}
			for _, i := range idx {
				if !clauses[i].matches(v) {
					continue
				}
				if satisfied[familyID] == nil {
					satisfied[familyID] = make(map[int]bool, len(clauses))
				}
				satisfied[familyID][i] = true
			}
		}
	}

	var manufacturers map[snowflake.ID]bool
	if len(f.Manufacturers) > 0 {
		manufacturers = make(map[snowflake.ID]bool, len(f.Manufacturers))
		for _, id := range f.Manufacturers {
			manufacturers[id] = true
		}
	}

	var price *domain.PriceRange
	if f.Price != nil {
		r := f.Price.Normalize()
		price = &r
	}

	out := make([]snowflake.ID, 0, len(s.base))
	for _, p := range s.base {
		if len(clauses) > 0 && len(satisfied[p.ID]) != len(clauses) {
			continue
		}
		if price != nil && !s.familyAny(p, func(m catalogdomain.Product) bool { return price.Contains(m.EffectivePrice) }) {
			continue
		}
		if manufacturers != nil && !s.familyAny(p, func(m catalogdomain.Product) bool {
			return m.ManufacturerID != nil && manufacturers[*m.ManufacturerID]
		}) {
			continue
		}
		out = append(out, p.ID)
	}
	return out
}

// familyAny reports whether p or one of its active variants satisfies fn.
func (s *snapshot) familyAny(p catalogdomain.Product, fn func(catalogdomain.Product) bool) bool {
	if fn(p) {
		return true
	}
	for _, v := range s.variants[p.ID] {
		if fn(v) {
			return true
		}
	}
	return false
}

// priceRange is the min and max effective price over ids. Products with
// variants contribute their variants' prices.
func (s *snapshot) priceRange(ids []snowflake.ID) (decimal.Decimal, decimal.Decimal, bool) {
	var lo, hi decimal.Decimal
	found := false
	add := func(v decimal.Decimal) {
		if !found {
			lo, hi, found = v, v, true
			return
		}
		lo = decimal.Min(lo, v)
		hi = decimal.Max(hi, v)
	}

	for _, id := range ids {
		if variants := s.variants[id]; len(variants) > 0 {
			for _, v := range variants {
				add(v.EffectivePrice)
			}
			continue
		}
		if p, ok := s.product(id); ok {
			add(p.EffectivePrice)
		}
	}
	return lo, hi, found
}

// manufacturerIDs lists the manufacturers of ids and their active variants.
func (s *snapshot) manufacturerIDs(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]bool)
	var out []snowflake.ID
	add := func(p catalogdomain.Product) {
		if p.ManufacturerID == nil || seen[*p.ManufacturerID] {
			return
		}
		seen[*p.ManufacturerID] = true
		out = append(out, *p.ManufacturerID)
	}
	for _, id := range ids {
		if p, ok := s.product(id); ok {
			add(p)
		}
		for _, v := range s.variants[id] {
			add(v)
		}
	}
	return out
}

type mappings struct {
	properties map[string]catalogdomain.Property
	options    map[string]catalogdomain.PropertyOption
	steps      map[snowflake.ID][]catalogdomain.FilterStep
}

func (m mappings) property(id snowflake.ID) (catalogdomain.Property, bool) {
	p, ok := m.properties[id.String()]
	return p, ok
}

func (s *snapshot) productFacets(f domain.FilterSet, m mappings) *domain.ProductFacets {
	out := &domain.ProductFacets{
		SelectFields: []domain.SelectField{},
		NumberFields: []domain.NumberField{},
	}
	if len(s.base) == 0 {
		return out
	}

	out.NumberFields = s.numberFields(f, m)
	out.SelectFields = s.selectFields(f, m)
	return out
}

func (s *snapshot) numberFields(f domain.FilterSet, m mappings) []domain.NumberField {
	type bounds struct{ min, max float64 }
	observed := make(map[snowflake.ID]*bounds)
	var order []snowflake.ID

	for _, v := range s.values {
		prop, ok := m.property(v.PropertyID)
		if !ok || !prop.Filterable || !prop.IsNumber() || v.ValueAsFloat == nil {
			continue
		}
		x := *v.ValueAsFloat
		b, ok := observed[prop.ID]
		if !ok {
			observed[prop.ID] = &bounds{min: x, max: x}
			order = append(order, prop.ID)
			continue
		}
		if x < b.min {
			b.min = x
		}
		if x > b.max {
			b.max = x
		}
	}

	fields := make([]domain.NumberField, 0, len(order))
	for _, id := range order {
		prop, _ := m.property(id)
		b := observed[id]
		field := domain.NumberField{
			ID:           id.String(),
			Position:     prop.Position,
			Name:         prop.Name,
			Title:        prop.Title,
			Unit:         prop.Unit,
			ShowQuantity: true,
			Items:        domain.Range{Min: b.min, Max: b.max},
		}
		if r, ok := f.Number[id]; ok {
			field.Items = r.Normalize()
			field.ShowReset = true
		}
		field.Steps = calculateSteps(s.values, &prop, m.steps[id], b.min, b.max)
		fields = append(fields, field)
	}

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Position < fields[j].Position })
	return fields
}

func (s *snapshot) selectFields(f domain.FilterSet, m mappings) []domain.SelectField {
	items := make(map[snowflake.ID][]domain.SelectItem)
	seen := make(map[snowflake.ID]map[string]bool)
	var order []snowflake.ID

	for _, v := range s.values {
		prop, ok := m.property(v.PropertyID)
		if !ok || !prop.Filterable || prop.IsNumber() {
			continue
		}
		value := strings.TrimSpace(v.Value)
		if value == "" || seen[prop.ID][value] {
			continue
		}

		name, position := value, domain.TextValuePosition
		if prop.IsSelect() {
			opt, ok := m.options[value]
			if !ok || opt.PropertyID != prop.ID {
				continue
			}
			name, position = opt.Name, opt.Position
		}

		if seen[prop.ID] == nil {
			seen[prop.ID] = make(map[string]bool)
			order = append(order, prop.ID)
		}
		seen[prop.ID][value] = true
		items[prop.ID] = append(items[prop.ID], domain.SelectItem{
			ID:           prop.ID.String(),
			Value:        value,
			Name:         name,
			Title:        prop.Title,
			Position:     position,
			ShowQuantity: true,
		})
	}

	fields := make([]domain.SelectField, 0, len(order))
	for _, id := range order {
		prop, _ := m.property(id)
		raw, present := f.Select[id]
		checked := domain.SelectValues(raw)
		checkedSet := make(map[string]bool, len(checked))
		for _, c := range checked {
			checkedSet[c] = true
		}

		list := items[id]
		for i := range list {
			candidate := f.Clone()
			merged := checked
			if !checkedSet[list[i].Value] {
				merged = append(append([]string{}, checked...), list[i].Value)
			}
			candidate.Select[id] = strings.Join(merged, domain.ValueSeparator)

			list[i].Quantity = len(s.resolve(candidate))
			list[i].Checked = checkedSet[list[i].Value]
		}

		sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
		if !prop.DisplayNoResults {
			list = zeroQuantityLast(list)
		}

		fields = append(fields, domain.SelectField{
			ID:        id.String(),
			Position:  prop.Position,
			Unit:      prop.Unit,
			ShowReset: present,
			Name:      prop.Name,
			Title:     prop.Title,
			Items:     list,
		})
	}

	sort.SliceStable(fields, func(i, j int) bool { return fields[i].Position < fields[j].Position })
	return fields
}

func zeroQuantityLast(items []domain.SelectItem) []domain.SelectItem {
	out := make([]domain.SelectItem, 0, len(items))
	var empty []domain.SelectItem
	for _, it := range items {
		if it.Quantity == 0 {
			empty = append(empty, it)
			continue
		}
		out = append(out, it)
	}
	return append(out, empty...)
}
