package pagination

import "fmt"

// Page size bounds accepted by every list endpoint.
const (
	MinPageSize     = 1
	MaxPageSize     = 64
	DefaultPageSize = 20
)

// Page describes whether more results follow.  Cursor is nil exactly when
// HasNext is false.
type Page struct {
	HasNext bool    `json:"hasNext"`
	Cursor  *string `json:"cursor"`
}

// Params are the caller-supplied pagination inputs.  An empty Cursor starts
// from the beginning.
type Params struct {
	Cursor   string
	PageSize int
}

// Validate checks the page size bounds.
func (p Params) Validate() error {
	if p.PageSize < MinPageSize || p.PageSize > MaxPageSize {
		return fmt.Errorf("pageSize must be between %d and %d", MinPageSize, MaxPageSize)
	}
	return nil
}

// After decodes the cursor, returning nil for the first page.
func (p Params) After() (*Cursor, error) {
	if p.Cursor == "" {
		return nil, nil
	}
	c, err := Decode(p.Cursor)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Paged is the {items, page} envelope returned by list operations.
type Paged[T any] struct {
	Items []T  `json:"items"`
	Page  Page `json:"page"`
}

// Trim takes a result fetched with pageSize+1 rows, drops the lookahead item
// and computes the page.  key returns the cursor fields of an item.
func Trim[T any](items []T, pageSize int, key func(T) Cursor) Paged[T] {
	if items == nil {
		items = []T{}
	}
	if len(items) <= pageSize {
		return Paged[T]{Items: items, Page: Page{}}
	}
	items = items[:pageSize]
	last := key(items[len(items)-1])
	token := last.String()
	return Paged[T]{Items: items, Page: Page{HasNext: true, Cursor: &token}}
}
