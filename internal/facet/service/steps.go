package service

import (
	"math"
	"sort"

	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/facet/domain"
)

// maxNumberSteps bounds the steps of one number facet; wider spreads get
// wider steps.
const maxNumberSteps = 100

// automaticStep snaps a raw step width to a round number. Widths above
// 10000 are kept as they are.
func automaticStep(raw float64) float64 {
	switch {
	case raw < 2:
		return 1
	case raw < 6:
		return 5
	case raw < 11:
		return 10
	case raw < 51:
		return 50
	case raw < 101:
		return 100
	case raw < 501:
		return 500
	case raw < 1001:
		return 1000
	case raw < 5001:
		return 5000
	case raw < 10001:
		return 10000
	default:
		return raw
	}
}

// calculateSteps splits [min, max] of a number property into ranges and counts
// the values in each. values are the filter values of the products in scope.
func calculateSteps(values []catalogdomain.ProductPropertyValue, property *catalogdomain.Property, filterSteps []catalogdomain.FilterStep, min, max float64) []domain.NumberStep {
	if math.IsNaN(min) || math.IsNaN(max) {
		return []domain.NumberStep{}
	}

	var steps []domain.NumberStep
	switch property.StepType {
	case catalogdomain.StepTypeSteps:
		starts := make([]float64, 0, len(filterSteps))
		for _, fs := range filterSteps {
			starts = append(starts, fs.Start)
		}
		sort.Float64s(starts)
		for i := 0; i+1 < len(starts); i++ {
			lo := starts[i]
			if i > 0 {
				lo++
			}
			steps = append(steps, domain.NumberStep{Min: lo, Max: starts[i+1]})
		}
	default:
		var width float64
		if property.StepType == catalogdomain.StepTypeFixed {
			width = float64(property.Step)
		} else {
			raw := max
			if max != min {
				raw = (max - min) / 3
			}
			width = automaticStep(raw)
		}
		if width <= 0 || math.IsInf(width, 0) || math.IsNaN(width) {
			return []domain.NumberStep{}
		}
		if max/width > maxNumberSteps {
			width = math.Ceil(max / maxNumberSteps)
		}
		for i := 0.0; i < max; i += width {
			lo := i
			if i > 0 {
				lo = i + 1
			}
			steps = append(steps, domain.NumberStep{Min: lo, Max: i + width})
		}
	}

	for i := range steps {
		steps[i].Quantity = countInRange(values, property.ID.Int64(), steps[i].Min, steps[i].Max)
	}

	if property.DisplayNoResults {
		if steps == nil {
			return []domain.NumberStep{}
		}
		return steps
	}

	out := make([]domain.NumberStep, 0, len(steps))
	for i, st := range steps {
		if st.Quantity == 0 {
			if i+1 < len(steps) {
				steps[i+1].Min = st.Min
			}
			continue
		}
		out = append(out, st)
	}
	return out
}

// countInRange counts distinct (family, property, value) triples so that a
// value shared by several variants of one product counts once.
func countInRange(values []catalogdomain.ProductPropertyValue, propertyID int64, lo, hi float64) int {
	type key struct {
		parent   int64
		property int64
		value    string
	}
	seen := make(map[key]bool)
	for _, v := range values {
		if v.PropertyID.Int64() != propertyID || v.ValueAsFloat == nil {
			continue
		}
		if x := *v.ValueAsFloat; x < lo || x > hi {
			continue
		}
		seen[key{parent: v.ParentID.Int64(), property: propertyID, value: v.Value}] = true
	}
	return len(seen)
}
