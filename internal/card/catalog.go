package card

import (
	"fmt"
	"slices"
	"strings"
)

// Catalog is the immutable, load-ordered set of cards served by the API.
// It is built once at startup and is safe for concurrent reads.
type Catalog struct {
	cards []Card
}

// NewCatalog copies cards into a new catalog. Later changes to the input slice are not observed.
func NewCatalog(cards []Card) *Catalog {
	return &Catalog{cards: slices.Clone(cards)}
}

// Len returns the number of cards.
func (c *Catalog) Len() int {
	return len(c.cards)
}

// All returns a copy of every card in catalog order.
func (c *Catalog) All() []Card {
	return slices.Clone(c.cards)
}

// Paginate returns one page of the catalog. Out of range page and size values
// are clamped, so the result is never an error.
func (c *Catalog) Paginate(page, size int) []Card {
	if len(c.cards) == 0 {
		return []Card{}
	}
	page, size = c.PageBounds(page, size)
	start := page * size
	end := min(start+size, len(c.cards))
	return slices.Clone(c.cards[start:end])
}

// PageBounds returns the page and size Paginate actually serves for the
// requested values. An empty catalog has page 0 and size 0.
func (c *Catalog) PageBounds(page, size int) (int, int) {
	total := len(c.cards)
	if total == 0 {
		return 0, 0
	}
	size = min(max(size, 1), total)
	maxPage := (total - 1) / size
	return min(max(page, 0), maxPage), size
}

// FilterAndSort applies the present filters and then the requested ordering.
// Sorting is stable, so ties keep catalog order.
func (c *Catalog) FilterAndSort(f Filter) []Card {
	var specialty string
	if f.Specialty != nil {
		specialty = normalize(*f.Specialty)
	}

	out := make([]Card, 0, len(c.cards))
	for _, card := range c.cards {
		if f.MinPrice != nil && card.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && card.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		if f.Specialty != nil && !strings.Contains(normalize(card.Specialty), specialty) {
			continue
		}
		out = append(out, card)
	}

	switch f.Sort {
	case SortNone:
	case SortName:
		slices.SortStableFunc(out, func(a, b Card) int {
			return strings.Compare(a.Name, b.Name)
		})
	case SortPrice:
		slices.SortStableFunc(out, func(a, b Card) int {
			return a.Price.Cmp(b.Price)
		})
	default:
		// ParseSortKey guards every caller.
		panic(fmt.Sprintf("card: unsupported sort key %q", f.Sort))
	}
	return out
}

// Search returns the cards whose name or contribution contains query,
// ignoring case and surrounding whitespace. An empty query matches everything.
func (c *Catalog) Search(query string) []Card {
	q := normalize(query)
	out := make([]Card, 0)
	for _, card := range c.cards {
		if strings.Contains(normalize(card.Name), q) || strings.Contains(normalize(card.Contribution), q) {
			out = append(out, card)
		}
	}
	return out
}
