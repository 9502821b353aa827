package ingest

// DefaultCategories is the topical allow-list for the arXiv snapshot:
// papers tagged with at least one AI-adjacent category are indexed.
var DefaultCategories = []string{"cs.AI", "cs.CL", "cs.CV", "cs.LG", "cs.NE", "cs.RO"}

// CategoryFilter keeps papers whose category set intersects an allow-list.
type CategoryFilter struct {
	allowed map[string]struct{}
}

// NewCategoryFilter creates a filter from an allow-list of categories.
func NewCategoryFilter(categories []string) *CategoryFilter {
	allowed := make(map[string]struct{}, len(categories))
	for _, category := range categories {
		allowed[category] = struct{}{}
	}
	return &CategoryFilter{allowed: allowed}
}

// Matches reports whether any of the given categories is allow-listed.
func (f *CategoryFilter) Matches(categories []string) bool {
	for _, category := range categories {
		if _, ok := f.allowed[category]; ok {
			return true
		}
	}
	return false
}
