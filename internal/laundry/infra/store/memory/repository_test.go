package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
)

func TestRepository_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := New()

	order := &entity.Order{
		Code:        "AB12CD34",
		TotalAmount: decimal.NewFromInt(50),
		Items: []entity.OrderItem{
			{ItemType: entity.ItemShirt, Quantity: 1, UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(50)},
		},
	}
	require.NoError(t, repo.Insert(ctx, order))
	assert.Equal(t, int64(1), order.ID)
	assert.Equal(t, int64(1), order.Items[0].OrderID)

	got, err := repo.GetByCode(ctx, "AB12CD34")
	require.NoError(t, err)
	got.Items[0].Quantity = 99

	again, err := repo.GetByCode(ctx, "AB12CD34")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)
}

func TestRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := New()

	require.NoError(t, repo.Insert(ctx, &entity.Order{Code: "X"}))
	require.ErrorIs(t, repo.Insert(ctx, &entity.Order{Code: "X"}), ports.ErrDuplicateOrderCode)

	_, err := repo.GetByCode(ctx, "Y")
	require.ErrorIs(t, err, ports.ErrOrderNotFound)
	assert.Equal(t, 1, repo.Len())
}
