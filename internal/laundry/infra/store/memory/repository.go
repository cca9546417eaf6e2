package memory

import (
	"context"
	"sync"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
)

// Ensure Repository implements the port at compile time.
var _ ports.OrderRepository = (*Repository)(nil)

// Repository is an in-memory ports.OrderRepository intended for local
// development and tests only. Data is lost on restart.
type Repository struct {
	mu         sync.RWMutex
	nextOrder  int64
	nextItem   int64
	byCode     map[string]*entity.Order
	failInsert error
}

func New() *Repository {
	return &Repository{byCode: make(map[string]*entity.Order)}
}

// FailInserts makes every following Insert return err. Pass nil to reset.
func (r *Repository) FailInserts(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failInsert = err
}

func (r *Repository) Insert(ctx context.Context, order *entity.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failInsert != nil {
		return r.failInsert
	}
	if _, exists := r.byCode[order.Code]; exists {
		return ports.ErrDuplicateOrderCode
	}

	r.nextOrder++
	order.ID = r.nextOrder
	for i := range order.Items {
		r.nextItem++
		order.Items[i].ID = r.nextItem
		order.Items[i].OrderID = order.ID
	}

	r.byCode[order.Code] = cloneOrder(order)
	return nil
}

func (r *Repository) GetByCode(ctx context.Context, code string) (*entity.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.byCode[code]
	if !ok {
		return nil, ports.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// Len reports how many orders are stored.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byCode)
}

func (r *Repository) Ping(ctx context.Context) error { return nil }

func cloneOrder(o *entity.Order) *entity.Order {
	c := *o
	c.Items = append([]entity.OrderItem(nil), o.Items...)
	return &c
}
