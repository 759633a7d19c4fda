package domain

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSelectValuesDropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"1", "2"}, SelectValues(" 1 || 2 |"))
	assert.Empty(t, SelectValues(" | "))
}

func TestCanonicalIsOrderIndependent(t *testing.T) {
	a := FilterSet{
		Select:        map[snowflake.ID]string{2: "b|a", 1: "x"},
		Number:        map[snowflake.ID]Range{5: {Min: 10, Max: 1}},
		Manufacturers: []snowflake.ID{9, 3},
		Price:         &PriceRange{Min: decimal.NewFromInt(20), Max: decimal.NewFromInt(5)},
		Sort:          "-price",
	}
	b := FilterSet{
		Select:        map[snowflake.ID]string{1: "x", 2: "a|b"},
		Number:        map[snowflake.ID]Range{5: {Min: 1, Max: 10}},
		Manufacturers: []snowflake.ID{3, 9},
		Price:         &PriceRange{Min: decimal.NewFromInt(5), Max: decimal.NewFromInt(20)},
	}
	assert.Equal(t, a.Canonical(), b.Canonical())

	b.Select[2] = "a"
	assert.NotEqual(t, a.Canonical(), b.Canonical())
}

func TestActiveCount(t *testing.T) {
	f := FilterSet{
		Select:        map[snowflake.ID]string{1: "x", 2: " | "},
		Number:        map[snowflake.ID]Range{3: {Min: 1, Max: 2}},
		Manufacturers: []snowflake.ID{4, 5},
	}
	assert.Equal(t, 3, f.ActiveCount())
	assert.Equal(t, 0, FilterSet{}.ActiveCount())
}

func TestCloneDoesNotShareState(t *testing.T) {
	f := FilterSet{
		Select: map[snowflake.ID]string{1: "x"},
		Price:  &PriceRange{Min: decimal.NewFromInt(1), Max: decimal.NewFromInt(2)},
	}
	c := f.Clone()
	c.Select[1] = "y"
	c.Price.Min = decimal.NewFromInt(0)

	assert.Equal(t, "x", f.Select[1])
	assert.Equal(t, "1", f.Price.Min.String())
}

func TestRangeNormalizeAndContains(t *testing.T) {
	r := Range{Min: 10, Max: 2}.Normalize()
	assert.Equal(t, Range{Min: 2, Max: 10}, r)
	assert.True(t, r.Contains(2))
	assert.True(t, r.Contains(10))
	assert.False(t, r.Contains(10.5))

	p := PriceRange{Min: decimal.NewFromInt(9), Max: decimal.NewFromInt(3)}.Normalize()
	assert.True(t, p.Contains(decimal.NewFromInt(3)))
	assert.False(t, p.Contains(decimal.NewFromInt(10)))
}
