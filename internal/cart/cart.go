package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a cart does not exist.
	ErrNotFound = errors.New("cart not found")
	// ErrItemNotFound is returned when an item does not belong to the cart.
	ErrItemNotFound = errors.New("item not found in cart")
	// ErrHasOrder is returned when deleting a cart that an order still references.
	ErrHasOrder = errors.New("cart is referenced by an order")
)

// Cart is a shopping cart identified by a client-chosen id.
type Cart struct {
	ID       string `json:"id" validate:"notblank,max=64"`
	PersonID string `json:"person_id" validate:"max=64"`
	Items    []Item `json:"items" validate:"dive"`
}

// Item is one card line in a cart. CartID is filled in by the repository;
// on input the cart comes from the URL or the enclosing cart.
type Item struct {
	ID       int64           `json:"id"`
	CartID   string          `json:"cart_id,omitempty"`
	CardID   string          `json:"card_id" validate:"notblank"`
	Name     string          `json:"name" validate:"notblank"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity int             `json:"quantity" validate:"gte=1"`
}

// MoneyPlaces is the number of fraction digits the database keeps for money.
const MoneyPlaces = 2

// FitsMoney reports whether d is stored without rounding.
func FitsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyPlaces))
}

// Total is the sum of price times quantity over every item.
func (c Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (c Cart) hasItem(id int64) bool {
	for _, it := range c.Items {
		if it.ID == id {
			return true
		}
	}
	return false
}
