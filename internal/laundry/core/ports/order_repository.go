package ports

import (
	"context"
	"errors"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
)

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrDuplicateOrderCode = errors.New("duplicate order code")
)

// OrderRepository persists order aggregates. Implementations live under
// infra/store.
type OrderRepository interface {
	// Insert writes the order header and all of its items in one transaction
	// and fills in the generated IDs. A clash on the order code is reported
	// as ErrDuplicateOrderCode and leaves nothing behind.
	Insert(ctx context.Context, order *entity.Order) error

	// GetByCode loads an order and its items in insertion order, or returns
	// ErrOrderNotFound.
	GetByCode(ctx context.Context, code string) (*entity.Order, error)

	Ping(ctx context.Context) error
}
