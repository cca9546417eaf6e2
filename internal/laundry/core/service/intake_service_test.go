package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/intake"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/orders"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/pricing"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/service"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/store/memory"
)

func newService(t *testing.T, repo *memory.Repository) *service.IntakeService {
	t.Helper()
	calc, err := pricing.NewCalculator(pricing.DefaultPriceTable())
	require.NoError(t, err)
	store := orders.NewStore(repo, orders.WithClock(func() time.Time {
		return time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)
	}))
	return service.NewIntakeService(intake.NewValidator(), calc, store)
}

func TestSubmit_PricesAndStores(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	svc := newService(t, repo)

	order, err := svc.Submit(ctx, intake.Form{
		Name: "Jane", Phone: "0700000000",
		Shirts: "2", Trousers: "0", Suits: "1", Bedsheets: "0",
	})
	require.NoError(t, err)

	require.Len(t, order.Items, 2)
	assert.Equal(t, entity.ItemShirt, order.Items[0].ItemType)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "50", order.Items[0].UnitPrice.String())
	assert.Equal(t, "100", order.Items[0].TotalPrice.String())
	assert.Equal(t, entity.ItemSuit, order.Items[1].ItemType)
	assert.Equal(t, "150", order.Items[1].TotalPrice.String())
	assert.Equal(t, "250", order.TotalAmount.String())

	stored, err := svc.GetOrder(ctx, order.Code)
	require.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(stored.TotalAmount))
	assert.Equal(t, 1, repo.Len())
}

func TestSubmit_RejectsWithoutStoring(t *testing.T) {
	tests := []struct {
		name  string
		form  intake.Form
		field string
	}{
		{"empty name", intake.Form{Phone: "0700000000", Shirts: "1"}, "name"},
		{"empty phone", intake.Form{Name: "Jane", Shirts: "1"}, "phone"},
		{"all zero", intake.Form{Name: "Jane", Phone: "0700000000", Shirts: "0"}, "items"},
		{"negative", intake.Form{Name: "Jane", Phone: "0700000000", Suits: "-1"}, "suits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := memory.New()
			_, err := newService(t, repo).Submit(context.Background(), tt.form)

			var verr *intake.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, repo.Len())
		})
	}
}

func TestSubmit_StorageFailure(t *testing.T) {
	repo := memory.New()
	boom := errors.New("database is locked")
	repo.FailInserts(boom)

	order, err := newService(t, repo).Submit(context.Background(), intake.Form{Name: "Jane", Phone: "0700000000", Bedsheets: "1"})
	require.ErrorIs(t, err, boom)
	assert.Nil(t, order)

	var verr *intake.ValidationError
	assert.False(t, errors.As(err, &verr))
}
