package order

import (
	"context"

	"storefront/internal/cart"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=order

// Repository defines the contract for order storage. Get returns the order
// with only the id of its cart filled in.
type Repository interface {
	Save(ctx context.Context, o *Order) error
	Get(ctx context.Context, id int64) (Order, error)
}

// CartReader loads carts referenced by orders.
type CartReader interface {
	GetCart(ctx context.Context, id string) (cart.Cart, error)
}
