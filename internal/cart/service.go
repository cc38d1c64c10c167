package cart

import (
	"context"
)

// Service provides cart-related business logic.
type Service struct {
	repo Repository
}

// NewService creates a new cart service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GetCart returns a cart with its items.
func (s *Service) GetCart(ctx context.Context, id string) (Cart, error) {
	return s.repo.Get(ctx, id)
}

// SaveCart creates or replaces a cart and returns the stored version.
func (s *Service) SaveCart(ctx context.Context, c Cart) (Cart, error) {
	if err := s.repo.Save(ctx, c); err != nil {
		return Cart{}, err
	}
	return s.repo.Get(ctx, c.ID)
}

// AddItem appends item to an existing cart.
func (s *Service) AddItem(ctx context.Context, cartID string, item Item) (Cart, error) {
	if _, err := s.repo.Get(ctx, cartID); err != nil {
		return Cart{}, err
	}
	if _, err := s.repo.AddItem(ctx, cartID, item); err != nil {
		return Cart{}, err
	}
	return s.repo.Get(ctx, cartID)
}

// UpdateItem replaces an item that already belongs to the cart.
func (s *Service) UpdateItem(ctx context.Context, cartID string, item Item) (Cart, error) {
	c, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	if !c.hasItem(item.ID) {
		return Cart{}, ErrItemNotFound
	}
	if err := s.repo.UpdateItem(ctx, cartID, item); err != nil {
		return Cart{}, err
	}
	return s.repo.Get(ctx, cartID)
}

// RemoveItem deletes one item from the cart.
func (s *Service) RemoveItem(ctx context.Context, cartID string, itemID int64) (Cart, error) {
	c, err := s.repo.Get(ctx, cartID)
	if err != nil {
		return Cart{}, err
	}
	if !c.hasItem(itemID) {
		return Cart{}, ErrItemNotFound
	}
	if err := s.repo.DeleteItem(ctx, cartID, itemID); err != nil {
		return Cart{}, err
	}
	return s.repo.Get(ctx, cartID)
}

// RemoveCart deletes a cart and its items.
func (s *Service) RemoveCart(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// CartsWithoutOrders lists carts that no order references.
func (s *Service) CartsWithoutOrders(ctx context.Context) ([]Cart, error) {
	return s.repo.ListWithoutOrders(ctx)
}
