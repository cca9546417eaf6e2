// Package postgres provides a PostgreSQL implementation of ports.OrderRepository
// on top of a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
)

const uniqueViolation = "23505"

// Amount columns are unconstrained NUMERIC so stored values are never rounded
// or overflowed; scale is enforced by the price table.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id              BIGSERIAL      PRIMARY KEY,
    order_code      TEXT           NOT NULL UNIQUE,
    customer_name   TEXT           NOT NULL,
    phone_number    TEXT           NOT NULL,
    total_amount    NUMERIC        NOT NULL,
    created_at      TIMESTAMPTZ    NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id              BIGSERIAL      PRIMARY KEY,
    order_id        BIGINT         NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    item_type       TEXT           NOT NULL,
    quantity        INTEGER        NOT NULL CHECK (quantity > 0),
    unit_price      NUMERIC        NOT NULL,
    total_price     NUMERIC        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
`

var _ ports.OrderRepository = (*Repository)(nil)

type Repository struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Open connects to the database at url, verifies the connection and applies
// the schema.
func Open(ctx context.Context, url string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(connectCtx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: apply schema: %w", err)
	}

	return New(pool), nil
}

// New wraps an existing pool. The caller keeps ownership of the pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, tracer: otel.Tracer("postgres_order_repository")}
}

func (r *Repository) Close() {
	r.pool.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) Insert(ctx context.Context, order *entity.Order) (err error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.Insert")
	defer span.End()
	span.SetAttributes(
		attribute.String("order_code", order.Code),
		attribute.Int("items_count", len(order.Items)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
		}
	}()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin tx: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "rollback failed", "order_code", order.Code, "error", rbErr)
		}
	}()

	const qOrder = `
		INSERT INTO orders (order_code, customer_name, phone_number, total_amount, created_at)
		VALUES ($1, $2, $3, $4::text::numeric, $5)
		RETURNING id`

	var orderID int64
	err = tx.QueryRow(ctx, qOrder,
		order.Code,
		order.CustomerName,
		order.PhoneNumber,
		order.TotalAmount.String(),
		order.CreatedAt.UTC(),
	).Scan(&orderID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ports.ErrDuplicateOrderCode
		}
		return fmt.Errorf("postgres: insert order %q: %w", order.Code, err)
	}

	const qItem = `
		INSERT INTO order_items (order_id, item_type, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4::text::numeric, $5::text::numeric)
		RETURNING id`

	itemIDs := make([]int64, len(order.Items))
	for i, it := range order.Items {
		err = tx.QueryRow(ctx, qItem,
			orderID,
			string(it.ItemType),
			it.Quantity,
			it.UnitPrice.String(),
			it.TotalPrice.String(),
		).Scan(&itemIDs[i])
		if err != nil {
			return fmt.Errorf("postgres: insert %s item for %q: %w", it.ItemType, order.Code, err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit order %q: %w", order.Code, err)
	}

	order.ID = orderID
	for i := range order.Items {
		order.Items[i].ID = itemIDs[i]
		order.Items[i].OrderID = orderID
	}
	return nil
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*entity.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByCode")
	defer span.End()
	span.SetAttributes(attribute.String("order_code", code))

	const qOrder = `
		SELECT id, order_code, customer_name, phone_number, total_amount::text, created_at
		FROM   orders
		WHERE  order_code = $1`

	var (
		order entity.Order
		total string
	)
	err := r.pool.QueryRow(ctx, qOrder, code).Scan(
		&order.ID,
		&order.Code,
		&order.CustomerName,
		&order.PhoneNumber,
		&total,
		&order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrOrderNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("postgres: get order %q: %w", code, err)
	}
	if order.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("postgres: parse total of %q: %w", code, err)
	}
	order.CreatedAt = order.CreatedAt.UTC()

	const qItems = `
		SELECT id, order_id, item_type, quantity, unit_price::text, total_price::text
		FROM   order_items
		WHERE  order_id = $1
		ORDER  BY id`

	rows, err := r.pool.Query(ctx, qItems, order.ID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("postgres: query items of %q: %w", code, err)
	}
	defer rows.Close()

	order.Items = []entity.OrderItem{}
	for rows.Next() {
		var (
			it              entity.OrderItem
			itemType        string
			unitPrice, line string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &itemType, &it.Quantity, &unitPrice, &line); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("postgres: scan item of %q: %w", code, err)
		}
		it.ItemType = entity.ItemType(itemType)
		if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("postgres: parse unit price of item %d: %w", it.ID, err)
		}
		if it.TotalPrice, err = decimal.NewFromString(line); err != nil {
			return nil, fmt.Errorf("postgres: parse total price of item %d: %w", it.ID, err)
		}
		order.Items = append(order.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: iterate items of %q: %w", code, err)
	}

	return &order, nil
}
