package ports

import (
	"context"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/intake"
)

// IntakeService is what the HTTP layer needs from the core.
type IntakeService interface {
	// Submit validates, prices and stores a form submission.
	Submit(ctx context.Context, form intake.Form) (*entity.Order, error)
	GetOrder(ctx context.Context, code string) (*entity.Order, error)
	Ping(ctx context.Context) error
}
