// Package sqlite provides a SQLite-backed implementation of ports.OrderRepository.
//
// WAL mode is enabled on Open so that readers never block the writer; receipt
// lookups keep working while a submission is being inserted.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
)

// schema is executed on every Open. Money is stored as decimal TEXT so it
// round-trips exactly.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_code      TEXT    NOT NULL UNIQUE,
    customer_name   TEXT    NOT NULL,
    phone_number    TEXT    NOT NULL,
    total_amount    TEXT    NOT NULL,
    created_at      TEXT    NOT NULL
);

CREATE TABLE IF NOT EXISTS order_items (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id        INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    item_type       TEXT    NOT NULL,
    quantity        INTEGER NOT NULL CHECK (quantity > 0),
    unit_price      TEXT    NOT NULL,
    total_price     TEXT    NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
`

var _ ports.OrderRepository = (*Repository)(nil)

// Repository is the SQLite implementation of ports.OrderRepository.
type Repository struct {
	db     *sql.DB
	tracer trace.Tracer
}

// Open opens (or creates) the SQLite database at the given path and applies
// the schema.
//
//	repo, err := sqlite.Open("./laundry.db")
func Open(path string) (*Repository, error) {
	// foreign_keys must be on per connection for ON DELETE CASCADE to fire.
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// SQLite performs best with a single writer connection.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db, tracer: otel.Tracer("sqlite_order_repository")}, nil
}

// Close releases the database connection. Call it with defer in main().
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Insert writes the order header and its items in one transaction.
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

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const qOrder = `
		INSERT INTO orders (order_code, customer_name, phone_number, total_amount, created_at)
		VALUES (?, ?, ?, ?, ?)`

	res, err := tx.ExecContext(ctx, qOrder,
		order.Code,
		order.CustomerName,
		order.PhoneNumber,
		order.TotalAmount.String(),
		formatTime(order.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.ErrDuplicateOrderCode
		}
		return fmt.Errorf("sqlite: insert order %q: %w", order.Code, err)
	}

	orderID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: order id for %q: %w", order.Code, err)
	}

	const qItem = `
		INSERT INTO order_items (order_id, item_type, quantity, unit_price, total_price)
		VALUES (?, ?, ?, ?, ?)`

	itemIDs := make([]int64, len(order.Items))
	for i, it := range order.Items {
		res, err := tx.ExecContext(ctx, qItem,
			orderID,
			string(it.ItemType),
			it.Quantity,
			it.UnitPrice.String(),
			it.TotalPrice.String(),
		)
		if err != nil {
			return fmt.Errorf("sqlite: insert %s item for %q: %w", it.ItemType, order.Code, err)
		}
		if itemIDs[i], err = res.LastInsertId(); err != nil {
			return fmt.Errorf("sqlite: item id for %q: %w", order.Code, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit order %q: %w", order.Code, err)
	}

	order.ID = orderID
	for i := range order.Items {
		order.Items[i].ID = itemIDs[i]
		order.Items[i].OrderID = orderID
	}
	return nil
}

// GetByCode loads an order with its items.
func (r *Repository) GetByCode(ctx context.Context, code string) (*entity.Order, error) {
	ctx, span := r.tracer.Start(ctx, "OrderRepository.GetByCode")
	defer span.End()
	span.SetAttributes(attribute.String("order_code", code))

	const qOrder = `
		SELECT id, order_code, customer_name, phone_number, total_amount, created_at
		FROM   orders
		WHERE  order_code = ?`

	var (
		order     entity.Order
		total     string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, qOrder, code).Scan(
		&order.ID,
		&order.Code,
		&order.CustomerName,
		&order.PhoneNumber,
		&total,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrOrderNotFound
	}
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("sqlite: get order %q: %w", code, err)
	}

	if order.TotalAmount, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("sqlite: parse total of %q: %w", code, err)
	}
	if order.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	items, err := r.itemsOf(ctx, order.ID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	order.Items = items

	return &order, nil
}

func (r *Repository) itemsOf(ctx context.Context, orderID int64) ([]entity.OrderItem, error) {
	const q = `
		SELECT id, order_id, item_type, quantity, unit_price, total_price
		FROM   order_items
		WHERE  order_id = ?
		ORDER  BY id`

	rows, err := r.db.QueryContext(ctx, q, orderID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query items of order %d: %w", orderID, err)
	}
	defer rows.Close()

	items := []entity.OrderItem{}
	for rows.Next() {
		var (
			it              entity.OrderItem
			itemType        string
			unitPrice, line string
		)
		if err := rows.Scan(&it.ID, &it.OrderID, &itemType, &it.Quantity, &unitPrice, &line); err != nil {
			return nil, fmt.Errorf("sqlite: scan item of order %d: %w", orderID, err)
		}
		it.ItemType = entity.ItemType(itemType)
		if it.UnitPrice, err = decimal.NewFromString(unitPrice); err != nil {
			return nil, fmt.Errorf("sqlite: parse unit price of item %d: %w", it.ID, err)
		}
		if it.TotalPrice, err = decimal.NewFromString(line); err != nil {
			return nil, fmt.Errorf("sqlite: parse total price of item %d: %w", it.ID, err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate items of order %d: %w", orderID, err)
	}

	return items, nil
}

// applySchema runs the DDL statements once. Idempotent due to IF NOT EXISTS.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		strings.Contains(sqliteErr.Error(), "UNIQUE constraint failed")
}
