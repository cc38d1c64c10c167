package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"
)

// Service provides order-related business logic.
type Service struct {
	repo  Repository
	carts CartReader
	now   func() time.Time
}

// NewService creates a new order service.
func NewService(repo Repository, carts CartReader) *Service {
	return &Service{repo: repo, carts: carts, now: time.Now}
}

// Save stores an order for an existing cart. The stored cart replaces the
// one sent by the caller, and a missing order date or subtotal is filled in.
func (s *Service) Save(ctx context.Context, o Order) (Order, error) {
	if o.Cart == nil {
		return Order{}, ErrCartNotFound
	}
	c, err := s.carts.GetCart(ctx, o.Cart.ID)
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) {
			return Order{}, ErrCartNotFound
		}
		return Order{}, fmt.Errorf("load cart %s: %w", o.Cart.ID, err)
	}
	o.Cart = &c

	if o.OrderDate.IsZero() {
		o.OrderDate = s.now().UTC()
	}
	if o.Subtotal == nil {
		subtotal := c.Total()
		o.Subtotal = &subtotal
	}

	if err := s.repo.Save(ctx, &o); err != nil {
		return Order{}, err
	}
	return o, nil
}

// Get returns an order with its cart and items.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if o.Cart != nil {
		c, err := s.carts.GetCart(ctx, o.Cart.ID)
		if err != nil {
			return Order{}, fmt.Errorf("load cart %s: %w", o.Cart.ID, err)
		}
		o.Cart = &c
	}
	return o, nil
}
