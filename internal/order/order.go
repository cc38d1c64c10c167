package order

import (
	"errors"
	"time"

	"storefront/internal/cart"

	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrCartNotFound is returned when an order references a cart that does not exist.
	ErrCartNotFound = errors.New("order cart not found")
)

// Customer is the buyer of an order.
type Customer struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"max=40"`
}

// Address is a shipping address.
type Address struct {
	ID           int64  `json:"id"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zip_code"`
	Country      string `json:"country"`
}

// Order is a placed order for the contents of one cart.
type Order struct {
	ID               int64            `json:"id"`
	Customer         *Customer        `json:"customer" validate:"required"`
	Cart             *cart.Cart       `json:"cart" validate:"required"`
	ShippingAddress  *Address         `json:"shipping_address" validate:"required"`
	OrderDate        time.Time        `json:"order_date"`
	ConfirmationSent bool             `json:"confirmation_sent"`
	ShipMethod       string           `json:"ship_method,omitempty"`
	OrderNotes       string           `json:"order_notes,omitempty"`
	Subtotal         *decimal.Decimal `json:"subtotal,omitempty"`
	Tax              *decimal.Decimal `json:"tax,omitempty"`
	Total            *decimal.Decimal `json:"total" validate:"required,gte=0"`
}
