package cart

import (
	"context"
)

//go:generate mockgen -source=ports.go -destination=mock_repository.go -package=cart

// Repository defines the contract for cart storage.
type Repository interface {
	Get(ctx context.Context, id string) (Cart, error)
	Save(ctx context.Context, c Cart) error
	Delete(ctx context.Context, id string) error
	ListWithoutOrders(ctx context.Context) ([]Cart, error)
	AddItem(ctx context.Context, cartID string, item Item) (Item, error)
	UpdateItem(ctx context.Context, cartID string, item Item) error
	DeleteItem(ctx context.Context, cartID string, itemID int64) error
}
