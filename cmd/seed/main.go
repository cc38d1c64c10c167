package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"time"

	"storefront/internal/card"
	"storefront/internal/cart"
	"storefront/internal/config"
	"storefront/internal/order"
	"storefront/internal/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var taxRate = decimal.RequireFromString("0.08")

func main() {
	count := flag.Int("carts", 20, "number of demo carts to create")
	csvPath := flag.String("csv", "data/pioneers.csv", "card catalog used to fill the carts")
	flag.Parse()

	config.LoadEnvFiles()
	cfg := config.LoadStoreDB()
	log := logger.Must("development", "info")
	defer func() { _ = log.Sync() }()

	cards, err := card.LoadFile(*csvPath)
	if len(cards) == 0 {
		log.Fatal("no cards to seed from", zap.String("csv", *csvPath), zap.Error(err))
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("failed to connect to database", zap.String("dsn", config.RedactDSN(cfg.DatabaseDSN)), zap.Error(err))
	}
	defer pool.Close()

	carts := cart.NewService(cart.NewPostgresRepo(pool, cfg.DBTimeout))
	orders := order.NewService(order.NewPostgresRepo(pool, cfg.DBTimeout), carts)

	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 42))
	demo := buildCarts(cards, *count, rng)

	placed := 0
	for i, c := range demo {
		saved, err := carts.SaveCart(ctx, c)
		if err != nil {
			log.Fatal("failed to save cart", zap.String("cart_id", c.ID), zap.Error(err))
		}
		// Odd carts stay without an order so the cleanup job has work.
		if i%2 == 1 {
			continue
		}
		if _, err := orders.Save(ctx, demoOrder(saved, i)); err != nil {
			log.Fatal("failed to save order", zap.String("cart_id", c.ID), zap.Error(err))
		}
		placed++
	}

	log.Info("seed complete", zap.Int("carts", len(demo)), zap.Int("orders", placed))
}

// buildCarts creates n carts of one to three distinct catalog cards each.
func buildCarts(cards []card.Card, n int, rng *rand.Rand) []cart.Cart {
	out := make([]cart.Cart, 0, n)
	for i := 0; i < n; i++ {
		size := 1 + rng.IntN(min(3, len(cards)))
		items := make([]cart.Item, 0, size)
		for _, idx := range rng.Perm(len(cards))[:size] {
			cd := cards[idx]
			items = append(items, cart.Item{
				CardID:   fmt.Sprint(cd.ID),
				Name:     cd.Name,
				Price:    cd.Price,
				Quantity: 1 + rng.IntN(4),
			})
		}
		out = append(out, cart.Cart{
			ID:       fmt.Sprintf("seed-cart-%03d", i+1),
			PersonID: fmt.Sprintf("seed-person-%03d", i+1),
			Items:    items,
		})
	}
	return out
}

func demoOrder(c cart.Cart, i int) order.Order {
	subtotal := c.Total()
	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax)
	return order.Order{
		Customer: &order.Customer{
			FirstName: "Demo",
			LastName:  fmt.Sprintf("Customer %d", i+1),
			Email:     fmt.Sprintf("customer%d@example.com", i+1),
		},
		Cart: &c,
		ShippingAddress: &order.Address{
			AddressLine1: fmt.Sprintf("%d Main Street", 100+i),
			City:         "Springfield",
			State:        "IL",
			ZipCode:      "62701",
			Country:      "US",
		},
		ShipMethod: "standard",
		Subtotal:   &subtotal,
		Tax:        &tax,
		Total:      &total,
	}
}
