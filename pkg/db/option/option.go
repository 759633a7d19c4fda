package option

import (
	"fmt"
	"strings"

	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement.
type QueryOption interface {
	Apply(stmt *gorm.DB) *gorm.DB
}

type queryOptionFunc func(stmt *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(stmt *gorm.DB) *gorm.DB {
	return f(stmt)
}

// QuerySortBy describes a client supplied ordering restricted to Allow.
type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		SortBy:  strings.ToLower(strings.TrimSpace(sortBy)),
		OrderBy: strings.ToLower(strings.TrimSpace(orderBy)),
		Allow:   allow,
	}
}

// Valid reports whether the sort key is whitelisted.
func (q QuerySortBy) Valid() bool {
	return q.SortBy != "" && q.Allow[q.SortBy]
}

// Direction returns "asc" or "desc"; anything else reads as asc.
func (q QuerySortBy) Direction() string {
	if q.OrderBy == "desc" {
		return "desc"
	}
	return "asc"
}

// WithSortBy orders the statement by a whitelisted column. Unknown keys are ignored.
func WithSortBy(q QuerySortBy) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if !q.Valid() {
			return stmt
		}
		return stmt.Order(fmt.Sprintf("%s %s", q.SortBy, q.Direction()))
	})
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
	IN  Operator = "IN"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		if cond.Field == "" {
			return stmt
		}
		if cond.Operator == IN {
			return stmt.Where(fmt.Sprintf("%s IN ?", cond.Field), cond.Value)
		}
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return stmt.Where(fmt.Sprintf("%s %s ?", cond.Field, op), cond.Value)
	})
}

// ApplyPagination limits the statement to one page plus a look-ahead row.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(stmt *gorm.DB) *gorm.DB {
		return stmt.Offset(page.Offset()).Limit(page.Size() + 1)
	})
}
