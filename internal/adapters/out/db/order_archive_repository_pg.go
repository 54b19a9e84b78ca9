// internal/adapters/out/db/order_archive_repository_pg.go
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	orderdom "github.com/ErnestIssa/vornify-server-sub000/internal/domain/order"
)

// OrderArchiveRepositoryPG mirrors completed orders into PostgreSQL for
// reporting. Archive is idempotent: re-archiving the same order id is a no-op.
type OrderArchiveRepositoryPG struct {
	db *sql.DB
}

func NewOrderArchiveRepositoryPG(db *sql.DB) *OrderArchiveRepositoryPG {
	return &OrderArchiveRepositoryPG{db: db}
}

// EnsureSchema creates the archive table when it does not exist yet.
func (r *OrderArchiveRepositoryPG) EnsureSchema(ctx context.Context) error {
	if r == nil || r.db == nil {
		return errors.New("order_archive_repository_pg: db is nil")
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS order_archive (
  id             TEXT PRIMARY KEY,
  order_number   TEXT NOT NULL,
  email          TEXT NOT NULL,
  owner_id       TEXT,
  items          JSONB NOT NULL,
  total          NUMERIC(12,2) NOT NULL,
  currency       TEXT NOT NULL,
  discount_code  TEXT,
  checkout_token TEXT,
  status         TEXT NOT NULL,
  created_at     TIMESTAMPTZ NOT NULL,
  updated_at     TIMESTAMPTZ NOT NULL
)`
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("order_archive_repository_pg: ensure schema: %w", err)
	}
	return nil
}

func (r *OrderArchiveRepositoryPG) Archive(ctx context.Context, o *orderdom.Order) error {
	if r == nil || r.db == nil {
		return errors.New("order_archive_repository_pg: db is nil")
	}
	if o == nil || o.ID == "" {
		return errors.New("order_archive_repository_pg: order is nil or has no id")
	}

	itemsJSON, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("order_archive_repository_pg: marshal items: %w", err)
	}

	const q = `
INSERT INTO order_archive (
  id, order_number, email, owner_id, items, total, currency,
  discount_code, checkout_token, status, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO NOTHING`

	_, err = r.db.ExecContext(ctx, q,
		o.ID,
		o.OrderNumber,
		o.Email,
		nullIfEmpty(o.OwnerID),
		itemsJSON,
		o.Total.StringFixed(2),
		o.Currency,
		nullIfEmpty(o.DiscountCode),
		nullIfEmpty(o.CheckoutToken),
		string(o.Status),
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("order_archive_repository_pg: insert: %w", err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
