// Package storeapi calls the persistence service (cmd/storedb).
package storeapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/order"
	"storefront/internal/platform/upstream"
)

// ErrNotFound is returned when the store service answers 404.
var ErrNotFound = errors.New("store: not found")

type Client struct {
	api *upstream.Client
}

func NewClient(baseURL string, opts upstream.Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "storefront-messaging"
	}
	return &Client{api: upstream.NewClient(baseURL, opts)}
}

func (c *Client) GetOrder(ctx context.Context, id int64) (order.Order, error) {
	var o order.Order
	err := c.api.Get(ctx, "/order/"+strconv.FormatInt(id, 10), nil, &o, nil)
	return o, mapError(err)
}

// CartsWithoutOrders lists carts that no order references.
func (c *Client) CartsWithoutOrders(ctx context.Context) ([]cart.Cart, error) {
	var carts []cart.Cart
	if err := c.api.Get(ctx, "/cart/noorder", nil, &carts, nil); err != nil {
		return nil, mapError(err)
	}
	return carts, nil
}

func (c *Client) DeleteCart(ctx context.Context, id string) error {
	return mapError(c.api.Delete(ctx, "/cart/"+url.PathEscape(id)))
}

func mapError(err error) error {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
		return ErrNotFound
	}
	return err
}
