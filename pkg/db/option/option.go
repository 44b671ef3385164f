package option

import (
	"strings"

	"github.com/lucanori/invoicerr/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before execution.
type QueryOption interface {
	Apply(db *gorm.DB) *gorm.DB
}

type queryOptionFunc func(db *gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB { return f(db) }

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

// WithQuerySortBy builds a QuerySortBy, falling back to created_at desc when
// the requested column is not in the allow list.
func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{SortBy: sortBy, OrderBy: orderBy, Allow: allow}
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := sort.SortBy
		if column == "" || !sort.Allow[column] {
			column = "created_at"
		}

		direction := strings.ToLower(sort.OrderBy)
		if direction != "asc" {
			direction = "desc"
		}

		return db.Order(column + " " + direction)
	})
}

type Operator string

const (
	EQ  Operator = "="
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a comparison predicate on a single column.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		if cond.Field == "" {
			return db
		}
		op := cond.Operator
		if op == "" {
			op = EQ
		}
		return db.Where(cond.Field+" "+string(op)+" ?", cond.Value)
	})
}

func WithLimit(limit int) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		return db.Limit(limit)
	})
}

func WithPreload(associations ...string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		for _, assoc := range associations {
			db = db.Preload(assoc)
		}
		return db
	})
}

// ApplyPagination applies cursor pagination, fetching one extra row so the
// caller can detect whether more pages exist.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		size := page.PageSize
		if size <= 0 {
			size = 10
		}
		if size > 250 {
			size = 250
		}

		if page.PageToken != "" {
			if cursor, err := pagination.DecodeCursor(page.PageToken); err == nil && cursor.ID != "" {
				db = db.Where("id < ?", cursor.ID)
			}
		}

		return db.Limit(size + 1)
	})
}
