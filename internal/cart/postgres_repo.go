package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// foreignKeyViolation is the PostgreSQL SQLSTATE for a foreign key violation.
const foreignKeyViolation = "23503"

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

func (r *PostgresRepo) Get(ctx context.Context, id string) (Cart, error) {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	var c Cart
	err := r.db.QueryRow(timeoutCtx, `SELECT id, person_id FROM carts WHERE id = $1`, id).Scan(&c.ID, &c.PersonID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, err
	}

	items, err := r.itemsFor(timeoutCtx, []string{id})
	if err != nil {
		return Cart{}, err
	}
	c.Items = items[id]
	if c.Items == nil {
		c.Items = []Item{}
	}
	return c, nil
}

func (r *PostgresRepo) itemsFor(ctx context.Context, cartIDs []string) (map[string][]Item, error) {
	const query = `
		SELECT id, cart_id, card_id, name, price::text, quantity
		FROM cart_items
		WHERE cart_id = ANY($1)
		ORDER BY id`

	rows, err := r.db.Query(ctx, query, cartIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Item, len(cartIDs))
	for rows.Next() {
		var (
			it    Item
			price string
		)
		if err := rows.Scan(&it.ID, &it.CartID, &it.CardID, &it.Name, &price, &it.Quantity); err != nil {
			return nil, err
		}
		if it.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("item %d price: %w", it.ID, err)
		}
		out[it.CartID] = append(out[it.CartID], it)
	}
	return out, rows.Err()
}

// Save upserts the cart row and replaces its items in one transaction.
func (r *PostgresRepo) Save(ctx context.Context, c Cart) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(timeoutCtx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(timeoutCtx) }()

	const upsert = `
		INSERT INTO carts (id, person_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			person_id = EXCLUDED.person_id,
			updated_at = NOW()`
	if _, err := tx.Exec(timeoutCtx, upsert, c.ID, c.PersonID); err != nil {
		return err
	}
	if _, err := tx.Exec(timeoutCtx, `DELETE FROM cart_items WHERE cart_id = $1`, c.ID); err != nil {
		return err
	}

	if len(c.Items) > 0 {
		batch := &pgx.Batch{}
		for _, it := range c.Items {
			batch.Queue(`
				INSERT INTO cart_items (cart_id, card_id, name, price, quantity)
				VALUES ($1, $2, $3, $4::numeric, $5)`,
				c.ID, it.CardID, it.Name, it.Price.String(), it.Quantity)
		}
		if err := tx.SendBatch(timeoutCtx, batch).Close(); err != nil {
			return err
		}
	}

	return tx.Commit(timeoutCtx)
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM carts WHERE id = $1`, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return ErrHasOrder
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListWithoutOrders(ctx context.Context) ([]Cart, error) {
	const query = `
		SELECT c.id, c.person_id
		FROM carts c
		WHERE NOT EXISTS (SELECT 1 FROM card_orders o WHERE o.cart_id = c.id)
		ORDER BY c.created_at, c.id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(timeoutCtx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out []Cart
		ids []string
	)
	for rows.Next() {
		var c Cart
		if err := rows.Scan(&c.ID, &c.PersonID); err != nil {
			return nil, err
		}
		out = append(out, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return []Cart{}, nil
	}

	items, err := r.itemsFor(timeoutCtx, ids)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
		if out[i].Items == nil {
			out[i].Items = []Item{}
		}
	}
	return out, nil
}

func (r *PostgresRepo) AddItem(ctx context.Context, cartID string, item Item) (Item, error) {
	const query = `
		INSERT INTO cart_items (cart_id, card_id, name, price, quantity)
		VALUES ($1, $2, $3, $4::numeric, $5)
		RETURNING id`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	err := r.db.QueryRow(timeoutCtx, query, cartID, item.CardID, item.Name, item.Price.String(), item.Quantity).Scan(&item.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
			return Item{}, ErrNotFound
		}
		return Item{}, err
	}
	item.CartID = cartID
	return item, nil
}

func (r *PostgresRepo) UpdateItem(ctx context.Context, cartID string, item Item) error {
	const query = `
		UPDATE cart_items
		SET card_id = $3, name = $4, price = $5::numeric, quantity = $6
		WHERE cart_id = $1 AND id = $2`

	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, query, cartID, item.ID, item.CardID, item.Name, item.Price.String(), item.Quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteItem(ctx context.Context, cartID string, itemID int64) error {
	timeoutCtx, cancel := r.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(timeoutCtx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}
