package card

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrInvalidSort is returned by ParseSortKey for anything other than a blank value, "name" or "price".
var ErrInvalidSort = errors.New("sort must be either 'name' or 'price'")

// Card is one trading card in the catalog.
type Card struct {
	ID           int64           `json:"id"`
	Name         string          `json:"name"`
	Specialty    string          `json:"specialty"`
	Contribution string          `json:"contribution"`
	Price        decimal.Decimal `json:"price"`
	ImageURL     string          `json:"image_url"`
}

// SortKey selects the ordering applied by FilterAndSort.
type SortKey string

const (
	SortNone  SortKey = ""
	SortName  SortKey = "name"
	SortPrice SortKey = "price"
)

// ParseSortKey validates a raw sort parameter. Blank input means no sorting;
// anything else must be "name" or "price" exactly.
func ParseSortKey(raw string) (SortKey, error) {
	if strings.TrimSpace(raw) == "" {
		return SortNone, nil
	}
	switch raw {
	case string(SortName):
		return SortName, nil
	case string(SortPrice):
		return SortPrice, nil
	default:
		return SortNone, ErrInvalidSort
	}
}

// Filter holds the optional constraints of a filter query. A nil field is not applied.
type Filter struct {
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Specialty *string
	Sort      SortKey
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
