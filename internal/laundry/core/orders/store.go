// Package orders creates and reads back order aggregates on top of a
// ports.OrderRepository.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
)

const DefaultMaxCodeAttempts = 3

// Store assigns the creation time and order code and hands the aggregate to
// the repository.
type Store struct {
	repo        ports.OrderRepository
	now         func() time.Time
	newCode     CodeGenerator
	maxAttempts int
}

type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithCodeGenerator replaces the default 8-character UUID code.
func WithCodeGenerator(g CodeGenerator) Option { return func(s *Store) { s.newCode = g } }

// WithMaxCodeAttempts bounds how often a colliding code is regenerated.
func WithMaxCodeAttempts(n int) Option { return func(s *Store) { s.maxAttempts = n } }

func NewStore(repo ports.OrderRepository, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		now:         time.Now,
		newCode:     UUIDCodeGenerator(8),
		maxAttempts: DefaultMaxCodeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxAttempts < 1 {
		s.maxAttempts = 1
	}
	return s
}

// CreateOrder persists a new order for the given customer and priced items.
// The total is derived from the items. CreatedAt is always UTC, matching what
// the repositories read back.
func (s *Store) CreateOrder(ctx context.Context, customerName, phone string, items []entity.OrderItem) (*entity.Order, error) {
	order := &entity.Order{
		CustomerName: customerName,
		PhoneNumber:  phone,
		CreatedAt:    s.now().UTC(),
		Items:        append([]entity.OrderItem(nil), items...),
	}
	order.TotalAmount = order.ItemsTotal()

	for attempt := 1; ; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return nil, err
		}
		order.Code = code

		err = s.repo.Insert(ctx, order)
		if err == nil {
			return order, nil
		}
		if !errors.Is(err, ports.ErrDuplicateOrderCode) || attempt >= s.maxAttempts {
			return nil, fmt.Errorf("orders: create order: %w", err)
		}
		slog.WarnContext(ctx, "order code collision, regenerating", "code", code, "attempt", attempt)
	}
}

// GetOrder reads back a persisted order by its code.
func (s *Store) GetOrder(ctx context.Context, code string) (*entity.Order, error) {
	order, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("orders: get order %q: %w", code, err)
	}
	return order, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}
