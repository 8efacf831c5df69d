package domain

import "strings"

// DefaultPageSize is the number of rows shown per page.
const DefaultPageSize = 10

// Category restricts the list by market cap rank.
type Category int

const (
	CategoryAll Category = iota
	CategoryTop10
	CategoryOthers
)

// Top10MaxRank is the highest rank that still belongs to the Top 10 bucket.
const Top10MaxRank = 10

// ParseCategory maps the selector values ("All", "Top 10", "Others") to a
// Category. Unknown input falls back to CategoryAll.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "top10":
		return CategoryTop10
	case "others":
		return CategoryOthers
	default:
		return CategoryAll
	}
}

func (c Category) String() string {
	switch c {
	case CategoryTop10:
		return "Top 10"
	case CategoryOthers:
		return "Others"
	default:
		return "All"
	}
}

// SortKey selects the ordering field and direction.
type SortKey int

const (
	SortNone SortKey = iota
	SortPriceAsc
	SortPriceDesc
	SortCapAsc
	SortCapDesc
)

var sortKeyNames = map[SortKey]string{
	SortNone:      "",
	SortPriceAsc:  "price-asc",
	SortPriceDesc: "price-desc",
	SortCapAsc:    "marketcap-asc",
	SortCapDesc:   "marketcap-desc",
}

// ParseSortKey maps selector values such as "price-asc" to a SortKey.
// Unknown input falls back to SortNone.
func ParseSortKey(s string) SortKey {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range sortKeyNames {
		if name == s {
			return k
		}
	}
	return SortNone
}

func (k SortKey) String() string {
	return sortKeyNames[k]
}

// ViewParameters is the user-controlled view state. It is passed explicitly
// on every computation; nothing holds it between calls.
type ViewParameters struct {
	Search   string   `json:"search"`
	Category Category `json:"-"`
	Sort     SortKey  `json:"-"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// Page is the visible slice plus the pagination totals it came from.
type Page struct {
	Coins      []Coin `json:"coins"`
	Page       int    `json:"page"`
	PageSize   int    `json:"page_size"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
}
