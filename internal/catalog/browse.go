package catalog

import (
	"cmp"
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/Fanatic033/shoro-market/internal/domain"
)

// AllCategories is the pseudo-category that disables category filtering.
const AllCategories = "all"

// Sort orders accepted by Browse.
const (
	SortDefault   = "default"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortName      = "name"
	SortNewest    = "newest"
)

// IsValidSort reports whether s names a known sort order. Empty is valid.
func IsValidSort(s string) bool {
	switch s {
	case "", SortDefault, SortPriceAsc, SortPriceDesc, SortName, SortNewest:
		return true
	}
	return false
}

// Category is one entry of the category menu.
type Category struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

type iconRule struct {
	keywords []string
	icon     string
}

var iconRules = []iconRule{
	{[]string{"вода"}, "water"},
	{[]string{"снеки"}, "fast-food"},
	{[]string{"стакан"}, "cafe"},
	{[]string{"товар"}, "pricetags"},
	{[]string{"бут", "напит"}, "beer"},
	{[]string{"проч"}, "apps"},
}

// CategoryIcon picks a menu icon from keywords in the category name.
func CategoryIcon(name string) string {
	lower := strings.ToLower(name)
	for _, r := range iconRules {
		for _, k := range r.keywords {
			if strings.Contains(lower, k) {
				return r.icon
			}
		}
	}
	return "pricetag"
}

// Categories lists "all" followed by each distinct non-empty product
// category in first-seen order.
func Categories(products []domain.Product) []Category {
	out := []Category{{ID: AllCategories, Title: "Все", Icon: "grid"}}
	seen := map[string]bool{}
	for _, p := range products {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		out = append(out, Category{ID: p.Category, Title: p.Category, Icon: CategoryIcon(p.Category)})
	}
	return out
}

// Query filters and orders a product listing.
type Query struct {
	Category string
	Search   string
	Sort     string
}

// Browse applies q to products without modifying the input slice.
func Browse(products []domain.Product, q Query) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if q.Category != "" && q.Category != AllCategories && p.Category != q.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Title), search) {
			continue
		}
		out = append(out, p)
	}

	switch q.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(a.UnitPrice, b.UnitPrice) })
	case SortPriceDesc:
		slices.SortStableFunc(out, func(a, b domain.Product) int { return cmp.Compare(b.UnitPrice, a.UnitPrice) })
	case SortName:
		col := collate.New(language.Russian, collate.IgnoreCase)
		slices.SortStableFunc(out, func(a, b domain.Product) int { return col.CompareString(a.Title, b.Title) })
	}
	// SortNewest and SortDefault keep upstream order.
	return out
}
