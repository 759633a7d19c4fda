package domain

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ValueSeparator joins the OR-ed values of one select filter.
const ValueSeparator = "|"

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Normalize swaps inverted bounds.
func (r Range) Normalize() Range {
	if r.Min > r.Max {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (r PriceRange) Normalize() PriceRange {
	if r.Min.GreaterThan(r.Max) {
		r.Min, r.Max = r.Max, r.Min
	}
	return r
}

func (r PriceRange) Contains(v decimal.Decimal) bool {
	return v.GreaterThanOrEqual(r.Min) && v.LessThanOrEqual(r.Max)
}

// FilterSet is the request-scoped filter state for one category.
type FilterSet struct {
	CategoryID    snowflake.ID
	Select        map[snowflake.ID]string
	Number        map[snowflake.ID]Range
	Manufacturers []snowflake.ID
	Price         *PriceRange
	Sort          string
}

// SelectValues splits a select filter into its trimmed, non-empty values.
func SelectValues(raw string) []string {
	parts := strings.Split(raw, ValueSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ActiveCount is the number of filters that narrow the product set.
func (f FilterSet) ActiveCount() int {
	n := len(f.Number)
	for _, raw := range f.Select {
		if len(SelectValues(raw)) > 0 {
			n++
		}
	}
	if len(f.Manufacturers) > 0 {
		n++
	}
	if f.Price != nil {
		n++
	}
	return n
}

// Clone returns a copy whose maps and slices can be changed freely.
func (f FilterSet) Clone() FilterSet {
	out := f
	out.Select = make(map[snowflake.ID]string, len(f.Select))
	for k, v := range f.Select {
		out.Select[k] = v
	}
	out.Number = make(map[snowflake.ID]Range, len(f.Number))
	for k, v := range f.Number {
		out.Number[k] = v
	}
	out.Manufacturers = append([]snowflake.ID(nil), f.Manufacturers...)
	if f.Price != nil {
		p := *f.Price
		out.Price = &p
	}
	return out
}

// Canonical renders the filters deterministically, for cache keys.
func (f FilterSet) Canonical() string {
	var b strings.Builder

	selectIDs := sortedKeys(f.Select)
	for _, id := range selectIDs {
		values := SelectValues(f.Select[id])
		if len(values) == 0 {
			continue
		}
		sort.Strings(values)
		fmt.Fprintf(&b, "s%d=%s;", id, strings.Join(values, ValueSeparator))
	}

	numberIDs := sortedKeys(f.Number)
	for _, id := range numberIDs {
		r := f.Number[id].Normalize()
		fmt.Fprintf(&b, "n%d=%g,%g;", id, r.Min, r.Max)
	}

	if len(f.Manufacturers) > 0 {
		ids := append([]snowflake.ID(nil), f.Manufacturers...)
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		b.WriteString("m=")
		for i, id := range ids {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(id.String())
		}
		b.WriteString(";")
	}
	if f.Price != nil {
		r := f.Price.Normalize()
		fmt.Fprintf(&b, "p=%s,%s;", r.Min.String(), r.Max.String())
	}
	return b.String()
}

func sortedKeys[V any](m map[snowflake.ID]V) []snowflake.ID {
	keys := make([]snowflake.ID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
