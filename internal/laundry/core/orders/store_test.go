package orders_test

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/orders"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/receipt"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/store/memory"
	"github.com/jcmexdev/laundry-intake/internal/laundry/infra/store/sqlite"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

func pricedItems() []entity.OrderItem {
	return []entity.OrderItem{
		{ItemType: entity.ItemShirt, Quantity: 2, UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(100)},
		{ItemType: entity.ItemSuit, Quantity: 1, UnitPrice: decimal.NewFromInt(150), TotalPrice: decimal.NewFromInt(150)},
	}
}

// sequence returns a generator yielding codes in order.
func sequence(codes ...string) orders.CodeGenerator {
	i := 0
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestCreateOrder_UsesClockAndCode(t *testing.T) {
	repo := memory.New()
	store := orders.NewStore(repo,
		orders.WithClock(func() time.Time { return fixedNow }),
		orders.WithCodeGenerator(sequence("AB12CD34")),
	)

	order, err := store.CreateOrder(context.Background(), "Jane", "0700000000", pricedItems())
	require.NoError(t, err)

	assert.Equal(t, "AB12CD34", order.Code)
	assert.Equal(t, fixedNow, order.CreatedAt)
	assert.NotZero(t, order.ID)
	assert.Equal(t, "250", order.TotalAmount.String())
	assert.Len(t, order.Items, 2)
}

func TestCreateOrder_NonUTCClockMatchesStoredReceipt(t *testing.T) {
	ctx := context.Background()
	nairobi := time.FixedZone("EAT", 3*60*60)

	repo, err := sqlite.Open(filepath.Join(t.TempDir(), "laundry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	store := orders.NewStore(repo, orders.WithClock(func() time.Time {
		return time.Date(2024, 3, 9, 14, 5, 0, 0, nairobi)
	}))
	renderer, err := receipt.NewRenderer(receipt.Options{Currency: "KES", Location: nairobi})
	require.NoError(t, err)

	created, err := store.CreateOrder(ctx, "Jane", "0700000000", pricedItems())
	require.NoError(t, err)
	assert.Equal(t, time.UTC, created.CreatedAt.Location())

	stored, err := store.GetOrder(ctx, created.Code)
	require.NoError(t, err)

	assert.True(t, created.CreatedAt.Equal(stored.CreatedAt))
	assert.Equal(t, "2024-03-09 14:05", renderer.View(created).CreatedAt)
	assert.Equal(t, renderer.View(created).CreatedAt, renderer.View(stored).CreatedAt)
}

func TestCreateOrder_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := orders.NewStore(memory.New())

	created, err := store.CreateOrder(ctx, "Jane", "0700000000", pricedItems())
	require.NoError(t, err)

	got, err := store.GetOrder(ctx, created.Code)
	require.NoError(t, err)
	assert.True(t, created.TotalAmount.Equal(got.TotalAmount))
	assert.Equal(t, created.Items, got.Items)
}

func TestCreateOrder_SequentialCodesDiffer(t *testing.T) {
	ctx := context.Background()
	store := orders.NewStore(memory.New())

	first, err := store.CreateOrder(ctx, "Jane", "0700000000", pricedItems())
	require.NoError(t, err)
	second, err := store.CreateOrder(ctx, "John", "0711111111", pricedItems())
	require.NoError(t, err)

	assert.NotEqual(t, first.Code, second.Code)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCreateOrder_RegeneratesOnCollision(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	store := orders.NewStore(repo, orders.WithCodeGenerator(sequence("SAMECODE", "SAMECODE", "FRESH001")))

	_, err := store.CreateOrder(ctx, "Jane", "0700000000", pricedItems())
	require.NoError(t, err)

	second, err := store.CreateOrder(ctx, "John", "0711111111", pricedItems())
	require.NoError(t, err)
	assert.Equal(t, "FRESH001", second.Code)
	assert.Equal(t, 2, repo.Len())
}

func TestCreateOrder_GivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	store := orders.NewStore(repo,
		orders.WithCodeGenerator(sequence("SAMECODE")),
		orders.WithMaxCodeAttempts(2),
	)

	_, err := store.CreateOrder(ctx, "Jane", "0700000000", pricedItems())
	require.NoError(t, err)

	_, err = store.CreateOrder(ctx, "John", "0711111111", pricedItems())
	require.ErrorIs(t, err, ports.ErrDuplicateOrderCode)
	assert.Equal(t, 1, repo.Len())
}

func TestCreateOrder_StorageFailure(t *testing.T) {
	repo := memory.New()
	boom := errors.New("disk full")
	repo.FailInserts(boom)
	store := orders.NewStore(repo)

	order, err := store.CreateOrder(context.Background(), "Jane", "0700000000", pricedItems())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, order)
	assert.Zero(t, repo.Len())
}

func TestCreateOrder_CodeGeneratorFailure(t *testing.T) {
	boom := errors.New("no entropy")
	store := orders.NewStore(memory.New(), orders.WithCodeGenerator(func() (string, error) { return "", boom }))

	_, err := store.CreateOrder(context.Background(), "Jane", "0700000000", pricedItems())
	require.ErrorIs(t, err, boom)
}

func TestGetOrder_NotFound(t *testing.T) {
	store := orders.NewStore(memory.New())

	_, err := store.GetOrder(context.Background(), "MISSING0")
	require.ErrorIs(t, err, ports.ErrOrderNotFound)
}

func TestUUIDCodeGenerator(t *testing.T) {
	gen := orders.UUIDCodeGenerator(8)
	pattern := regexp.MustCompile(`^[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for range 50 {
		code, err := gen()
		require.NoError(t, err)
		assert.Regexp(t, pattern, code)
		seen[code] = true
	}
	assert.Greater(t, len(seen), 45)
}
