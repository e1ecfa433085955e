// Package pagination walks large tables in keyset pages ordered by the
// time-sortable primary key, so rows updated while a batch runs are
// neither skipped nor visited twice.
package pagination

import (
	"gorm.io/gorm"
)

// PageRequest holds keyset pagination parameters parsed from query strings.
type PageRequest struct {
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	After    string `form:"after"`
}

// Defaults fills in default values when page_size is not provided.
func (p *PageRequest) Defaults() {
	if p.PageSize <= 0 {
		p.PageSize = 100
	}
}

// Page wraps one page of items and the cursor of the next one.
type Page[T any] struct {
	Data []T    `json:"data"`
	Next string `json:"next,omitempty"`
}

// NewPage creates a Page; Next is empty when data is shorter than a full page.
func NewPage[T any](data []T, pageSize int, key func(T) string) Page[T] {
	if data == nil {
		data = []T{}
	}
	page := Page[T]{Data: data}
	if len(data) == pageSize && len(data) > 0 {
		page.Next = key(data[len(data)-1])
	}
	return page
}

// Paginate returns a GORM scope that orders by id and resumes after req.After.
func Paginate(req PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if req.After != "" {
			db = db.Where("id > ?", req.After)
		}
		return db.Order("id ASC").Limit(req.PageSize)
	}
}

// Each runs query page by page and hands every page to fn until the table
// is exhausted or fn fails.
func Each[T any](query *gorm.DB, pageSize int, key func(T) string, fn func(page []T) error) error {
	req := PageRequest{PageSize: pageSize}
	req.Defaults()

	for {
		var batch []T
		if err := query.Session(&gorm.Session{}).Scopes(Paginate(req)).Find(&batch).Error; err != nil {
			return err
		}
		page := NewPage(batch, req.PageSize, key)
		if len(page.Data) > 0 {
			if err := fn(page.Data); err != nil {
				return err
			}
		}
		if page.Next == "" {
			return nil
		}
		req.After = page.Next
	}
}
