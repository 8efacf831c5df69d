package view

import (
	"slices"
	"strings"

	"coin_tracker/internal/domain"
)

// Compute returns the page of records selected by params and the total page
// count. An out-of-range page yields an empty slice with the real totals.
func Compute(records []domain.Coin, params domain.ViewParameters) domain.Page {
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}

	matched := filter(records, params.Search, params.Category)
	sortCoins(matched, params.Sort)

	total := len(matched)
	totalPages := (total + pageSize - 1) / pageSize

	return domain.Page{
		Coins:      paginate(matched, params.Page, pageSize),
		Page:       params.Page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}

// filter applies search then category into a fresh slice.
func filter(records []domain.Coin, search string, category domain.Category) []domain.Coin {
	needle := strings.ToLower(search)
	out := make([]domain.Coin, 0, len(records))
	for _, c := range records {
		if !matchesSearch(c, needle) || !inCategory(c, category) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func matchesSearch(c domain.Coin, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), needle) ||
		strings.Contains(strings.ToLower(c.Symbol), needle)
}

func inCategory(c domain.Coin, category domain.Category) bool {
	switch category {
	case domain.CategoryTop10:
		return c.Rank <= domain.Top10MaxRank
	case domain.CategoryOthers:
		return c.Rank > domain.Top10MaxRank
	default:
		return true
	}
}

// sortCoins orders coins in place. Ties keep their prior relative order.
func sortCoins(coins []domain.Coin, key domain.SortKey) {
	var cmp func(a, b domain.Coin) int
	switch key {
	case domain.SortPriceAsc:
		cmp = func(a, b domain.Coin) int { return a.Price.Cmp(b.Price) }
	case domain.SortPriceDesc:
		cmp = func(a, b domain.Coin) int { return b.Price.Cmp(a.Price) }
	case domain.SortCapAsc:
		cmp = func(a, b domain.Coin) int { return a.MarketCap.Cmp(b.MarketCap) }
	case domain.SortCapDesc:
		cmp = func(a, b domain.Coin) int { return b.MarketCap.Cmp(a.MarketCap) }
	default:
		return
	}
	slices.SortStableFunc(coins, cmp)
}

func paginate(coins []domain.Coin, page, pageSize int) []domain.Coin {
	if page < 1 {
		return []domain.Coin{}
	}
	start := (page - 1) * pageSize
	if start >= len(coins) {
		return []domain.Coin{}
	}
	end := min(start+pageSize, len(coins))
	return coins[start:end]
}
