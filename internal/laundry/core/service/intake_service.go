// Package service wires validation, pricing and storage into the single
// submission flow used by the HTTP layer.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/intake"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/orders"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/pricing"
)

var _ ports.IntakeService = (*IntakeService)(nil)

type IntakeService struct {
	validator  *intake.Validator
	calculator *pricing.Calculator
	store      *orders.Store
	tracer     trace.Tracer
}

func NewIntakeService(v *intake.Validator, c *pricing.Calculator, s *orders.Store) *IntakeService {
	return &IntakeService{
		validator:  v,
		calculator: c,
		store:      s,
		tracer:     otel.Tracer("intake_service"),
	}
}

// Submit runs validate -> price -> store. Validation failures are returned
// unwrapped so callers can match them with errors.As; nothing is stored.
func (s *IntakeService) Submit(ctx context.Context, form intake.Form) (*entity.Order, error) {
	ctx, span := s.tracer.Start(ctx, "IntakeService.Submit")
	defer span.End()

	sub, err := s.validator.Validate(form)
	if err != nil {
		span.RecordError(err)
		slog.InfoContext(ctx, "submission rejected", "reason", err.Error())
		return nil, err
	}

	items, total := s.calculator.Price(sub.Quantities)
	span.SetAttributes(
		attribute.Int("items_count", len(items)),
		attribute.String("total_amount", total.String()),
	)

	order, err := s.store.CreateOrder(ctx, sub.CustomerName, sub.PhoneNumber, items)
	if err != nil {
		span.RecordError(err)
		slog.ErrorContext(ctx, "failed to store order", "error", err)
		return nil, err
	}

	span.SetAttributes(attribute.String("order_code", order.Code))
	slog.InfoContext(ctx, "order created",
		"order_code", order.Code,
		"items", len(order.Items),
		"total", order.TotalAmount.String(),
	)
	return order, nil
}

func (s *IntakeService) GetOrder(ctx context.Context, code string) (*entity.Order, error) {
	return s.store.GetOrder(ctx, code)
}

func (s *IntakeService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
