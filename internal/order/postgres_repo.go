package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/cart"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// Save inserts the customer, the shipping address and the order in one
// transaction and fills in the generated ids.
func (r *PostgresRepo) Save(ctx context.Context, o *Order) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	cu := o.Customer
	err = tx.QueryRow(timeoutCtx, `
		INSERT INTO customers (first_name, last_name, email, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		cu.FirstName, cu.LastName, cu.Email, cu.Phone,
	).Scan(&cu.ID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}

	a := o.ShippingAddress
	err = tx.QueryRow(timeoutCtx, `
		INSERT INTO addresses (address_line1, address_line2, city, state, zip_code, country)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		a.AddressLine1, a.AddressLine2, a.City, a.State, a.ZipCode, a.Country,
	).Scan(&a.ID)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}

	err = tx.QueryRow(timeoutCtx, `
		INSERT INTO card_orders (customer_id, cart_id, shipping_address_id, order_date,
		                         confirmation_sent, ship_method, order_notes, subtotal, tax, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9::numeric, $10::numeric)
		RETURNING id`,
		cu.ID, o.Cart.ID, a.ID, o.OrderDate, o.ConfirmationSent, o.ShipMethod, o.OrderNotes,
		decimalArg(o.Subtotal), decimalArg(o.Tax), decimalArg(o.Total),
	).Scan(&o.ID)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	return tx.Commit(timeoutCtx)
}

func (r *PostgresRepo) Get(ctx context.Context, id int64) (Order, error) {
	const query = `
		SELECT o.id, o.cart_id, o.order_date, o.confirmation_sent, o.ship_method, o.order_notes,
		       o.subtotal::text, o.tax::text, o.total::text,
		       c.id, c.first_name, c.last_name, c.email, c.phone,
		       a.id, a.address_line1, a.address_line2, a.city, a.state, a.zip_code, a.country
		FROM card_orders o
		JOIN customers c ON c.id = o.customer_id
		JOIN addresses a ON a.id = o.shipping_address_id
		WHERE o.id = $1`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var (
		o                    Order
		cu                   Customer
		a                    Address
		cartID               string
		subtotal, tax, total *string
	)
	err := r.db.QueryRow(timeoutCtx, query, id).Scan(
		&o.ID, &cartID, &o.OrderDate, &o.ConfirmationSent, &o.ShipMethod, &o.OrderNotes,
		&subtotal, &tax, &total,
		&cu.ID, &cu.FirstName, &cu.LastName, &cu.Email, &cu.Phone,
		&a.ID, &a.AddressLine1, &a.AddressLine2, &a.City, &a.State, &a.ZipCode, &a.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}

	if o.Subtotal, err = parseDecimal(subtotal); err != nil {
		return Order{}, err
	}
	if o.Tax, err = parseDecimal(tax); err != nil {
		return Order{}, err
	}
	if o.Total, err = parseDecimal(total); err != nil {
		return Order{}, err
	}
	o.Customer = &cu
	o.ShippingAddress = &a
	o.Cart = &cart.Cart{ID: cartID}
	return o, nil
}

func decimalArg(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func parseDecimal(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", *s, err)
	}
	return &d, nil
}
