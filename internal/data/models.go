// internal/data/models.go
package data

import (
	"math"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/aoideee/bookshelf/internal/validator"
)

// Models is a top-level container that groups all model types together.
// It is passed around the application so every surface has access to the
// store without importing database/sql directly.
type Models struct {
	Books *BookModel // Record store for the books collection
}

// NewModels constructs a Models value around an opened book store.
func NewModels(books *BookModel) Models {
	return Models{Books: books}
}

// SortSafeList is the set of sort keys accepted by Filters.
var SortSafeList = []string{"title", "author", "created_at", "-title", "-author", "-created_at"}

// Filters holds pagination and sorting parameters extracted from URL query strings.
// An empty Sort keeps insertion order; a zero PageSize disables pagination.
type Filters struct {
	Page         int      // Current page number (1-indexed)
	PageSize     int      // Number of records per page, 0 for all
	Sort         string   // Key to sort by (prefix with "-" for descending)
	SortSafeList []string // Allowed sort keys
}

// ValidateFilters records problems with page, page_size and sort on v.
func ValidateFilters(v *validator.Validator, f Filters) {
	v.Check(f.Page > 0, "page", "must be greater than zero")
	v.Check(f.Page <= 10_000_000, "page", "must be a maximum of 10 million")
	v.Check(f.PageSize >= 0, "page_size", "must not be negative")
	v.Check(f.PageSize <= 100, "page_size", "must be a maximum of 100")
	v.Check(f.Sort == "" || validator.In(f.Sort, f.SortSafeList...), "sort", "invalid sort value")
}

// sortColumn returns the validated sort key, or "" for insertion order.
func (f Filters) sortColumn() string {
	for _, safe := range f.SortSafeList {
		if f.Sort == safe {
			return strings.TrimPrefix(f.Sort, "-")
		}
	}
	return ""
}

// descending reports whether the Sort key has the "-" prefix.
func (f Filters) descending() bool {
	return strings.HasPrefix(f.Sort, "-")
}

func (f Filters) limit() int  { return f.PageSize }
func (f Filters) offset() int { return (f.Page - 1) * f.PageSize }

// Apply sorts and paginates books without touching the input slice.
func (f Filters) Apply(books []*Book) ([]*Book, Metadata) {
	out := slices.Clone(books)

	if col := f.sortColumn(); col != "" {
		coll := collate.New(language.Und, collate.IgnoreCase)
		cmp := func(a, b *Book) int {
			switch col {
			case "title":
				return coll.CompareString(a.Title, b.Title)
			case "author":
				return coll.CompareString(a.Author, b.Author)
			default:
				return a.CreatedAt.Compare(b.CreatedAt)
			}
		}
		slices.SortStableFunc(out, func(a, b *Book) int {
			if f.descending() {
				return cmp(b, a)
			}
			return cmp(a, b)
		})
	}

	total := len(out)
	if f.limit() <= 0 {
		return out, calculateMetadata(total, 1, total)
	}

	start := min(f.offset(), total)
	end := min(start+f.limit(), total)
	return out[start:end], calculateMetadata(total, f.Page, f.PageSize)
}

// Metadata contains pagination information returned alongside list responses.
type Metadata struct {
	CurrentPage  int `json:"current_page,omitempty"`
	PageSize     int `json:"page_size,omitempty"`
	FirstPage    int `json:"first_page,omitempty"`
	LastPage     int `json:"last_page,omitempty"`
	TotalRecords int `json:"total_records,omitempty"`
}

// calculateMetadata computes page metadata from total record count and filter values.
func calculateMetadata(totalRecords, page, pageSize int) Metadata {
	if totalRecords == 0 {
		return Metadata{}
	}
	return Metadata{
		CurrentPage:  page,
		PageSize:     pageSize,
		FirstPage:    1,
		LastPage:     int(math.Ceil(float64(totalRecords) / float64(pageSize))),
		TotalRecords: totalRecords,
	}
}
