// Package catalogapi calls the card catalog service (cmd/api).
package catalogapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront/internal/card"
	"storefront/internal/platform/upstream"
)

// ErrBadRequest wraps a 400 reply; the upstream message follows the colon.
var ErrBadRequest = errors.New("catalog: bad request")

// Page is one page of the catalog listing.
type Page struct {
	Cards []card.Card `json:"-"`
	Page  int         `json:"page"`
	Size  int         `json:"size"`
	Total int         `json:"total"`
}

type Client struct {
	api *upstream.Client
}

func NewClient(baseURL string, opts upstream.Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = "storefront-web"
	}
	return &Client{api: upstream.NewClient(baseURL, opts)}
}

func (c *Client) Cards(ctx context.Context, page, size int) (Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))

	var p Page
	if err := c.api.Get(ctx, "/api/cards", q, &p.Cards, &p); err != nil {
		return Page{}, mapError(err)
	}
	return p, nil
}

func (c *Client) Filter(ctx context.Context, f card.Filter) ([]card.Card, error) {
	return c.list(ctx, "/api/cards/filter", FilterQuery(f))
}

func (c *Client) Search(ctx context.Context, query string) ([]card.Card, error) {
	return c.list(ctx, "/api/cards/search", url.Values{"query": {query}})
}

func (c *Client) list(ctx context.Context, path string, q url.Values) ([]card.Card, error) {
	var cards []card.Card
	if err := c.api.Get(ctx, path, q, &cards, nil); err != nil {
		return nil, mapError(err)
	}
	if cards == nil {
		cards = []card.Card{}
	}
	return cards, nil
}

// FilterQuery encodes f as the query string understood by card.ParseFilter.
func FilterQuery(f card.Filter) url.Values {
	q := url.Values{}
	if f.MinPrice != nil {
		q.Set("minPrice", f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", f.MaxPrice.String())
	}
	if f.Specialty != nil {
		q.Set("specialty", *f.Specialty)
	}
	if f.Sort != card.SortNone {
		q.Set("sort", string(f.Sort))
	}
	return q
}

func mapError(err error) error {
	var statusErr *upstream.StatusError
	if errors.As(err, &statusErr) && statusErr.Status == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", ErrBadRequest, statusErr.Message)
	}
	return err
}
