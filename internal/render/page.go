package render

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"coin_tracker/internal/domain"
	"coin_tracker/internal/view"

	"github.com/dustin/go-humanize"
)

// Row is one table row ready for display.
type Row struct {
	ID          string `json:"id"`
	Rank        int    `json:"rank"`
	Image       string `json:"image"`
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Price       string `json:"price"`
	MarketCap   string `json:"market_cap"`
	Change      string `json:"change"`
	ChangeClass string `json:"change_class"`
}

// Option is a selector entry.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// PageView is everything the index template needs.
type PageView struct {
	Title      string
	Search     string
	Filters    []Option
	Sorts      []Option
	Rows       []Row
	Page       int
	TotalPages int
	PageLabel  string
	HasPrev    bool
	HasNext    bool
	PrevURL    string
	NextURL    string
	Updated    string
	Empty      bool
}

// IconResolver reports the locally served icon URL for a coin, if cached.
type IconResolver func(coinID string) (string, bool)

// NewRow converts a coin to display form.
func NewRow(c domain.Coin, icons IconResolver) Row {
	image := c.Image
	if icons != nil {
		if local, ok := icons(c.ID); ok {
			image = local
		}
	}
	return Row{
		ID:          c.ID,
		Rank:        c.Rank,
		Image:       image,
		Name:        c.Name,
		Symbol:      DisplaySymbol(c.Symbol),
		Price:       FormatPrice(c.Price),
		MarketCap:   FormatMarketCap(c.MarketCap),
		Change:      FormatChange(c.Change24h),
		ChangeClass: c.ChangeDirection(),
	}
}

// NewRows converts a page of coins.
func NewRows(coins []domain.Coin, icons IconResolver) []Row {
	rows := make([]Row, 0, len(coins))
	for _, c := range coins {
		rows = append(rows, NewRow(c, icons))
	}
	return rows
}

// BuildPageView assembles the template model for a computed page.
func BuildPageView(title string, page domain.Page, params domain.ViewParameters, fetchedAt time.Time, icons IconResolver) PageView {
	pv := PageView{
		Title:      title,
		Search:     params.Search,
		Filters:    filterOptions(params.Category),
		Sorts:      sortOptions(params.Sort),
		Rows:       NewRows(page.Coins, icons),
		Page:       params.Page,
		TotalPages: page.TotalPages,
		PageLabel:  fmt.Sprintf("Page %d of %d", params.Page, page.TotalPages),
		HasPrev:    view.HasPrev(params.Page),
		HasNext:    view.HasNext(params.Page, page.TotalPages),
		Empty:      len(page.Coins) == 0,
		Updated:    "not loaded",
	}

	pv.PrevURL = QueryURL(params, view.PrevPage(params.Page))
	pv.NextURL = QueryURL(params, view.NextPage(params.Page, page.TotalPages))

	if !fetchedAt.IsZero() {
		pv.Updated = "updated " + humanize.Time(fetchedAt)
	}
	return pv
}

// QueryURL encodes params with the given page as a relative link.
func QueryURL(params domain.ViewParameters, page int) string {
	q := url.Values{}
	if params.Search != "" {
		q.Set("q", params.Search)
	}
	if params.Category != domain.CategoryAll {
		q.Set("filter", params.Category.String())
	}
	if params.Sort != domain.SortNone {
		q.Set("sort", params.Sort.String())
	}
	q.Set("page", strconv.Itoa(page))
	return "/?" + q.Encode()
}

func filterOptions(selected domain.Category) []Option {
	cats := []domain.Category{domain.CategoryAll, domain.CategoryTop10, domain.CategoryOthers}
	opts := make([]Option, 0, len(cats))
	for _, c := range cats {
		opts = append(opts, Option{Value: c.String(), Label: c.String(), Selected: c == selected})
	}
	return opts
}

var sortLabels = []struct {
	key   domain.SortKey
	label string
}{
	{domain.SortNone, "Sort By"},
	{domain.SortPriceAsc, "Price Low → High"},
	{domain.SortPriceDesc, "Price High → Low"},
	{domain.SortCapAsc, "MarketCap Low → High"},
	{domain.SortCapDesc, "MarketCap High → Low"},
}

func sortOptions(selected domain.SortKey) []Option {
	opts := make([]Option, 0, len(sortLabels))
	for _, s := range sortLabels {
		opts = append(opts, Option{Value: s.key.String(), Label: s.label, Selected: s.key == selected})
	}
	return opts
}
