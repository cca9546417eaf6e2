package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/jcmexdev/laundry-intake/internal/laundry/core/domain/entity"
	"github.com/jcmexdev/laundry-intake/internal/laundry/core/ports"
)

type RepositorySuite struct {
	suite.Suite
	Ctx         context.Context
	PgContainer *tcpostgres.PostgresContainer
	Repo        *Repository
	Pool        *pgxpool.Pool
}

func (s *RepositorySuite) SetupSuite() {
	s.Ctx = context.Background()

	var err error
	s.PgContainer, err = tcpostgres.Run(
		s.Ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("laundry_test"),
		tcpostgres.WithUsername("test_user"),
		tcpostgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	s.Require().NoError(err)

	connStr, err := s.PgContainer.ConnectionString(s.Ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Repo, err = Open(s.Ctx, connStr)
	s.Require().NoError(err)
	s.Pool = s.Repo.pool
}

func (s *RepositorySuite) TearDownSuite() {
	if s.Repo != nil {
		s.Repo.Close()
	}
	if s.PgContainer != nil {
		if err := s.PgContainer.Terminate(s.Ctx); err != nil {
			s.T().Logf("failed to terminate postgres container: %v", err)
		}
	}
}

func (s *RepositorySuite) SetupTest() {
	_, err := s.Pool.Exec(s.Ctx, "TRUNCATE orders CASCADE")
	s.Require().NoError(err)
}

func (s *RepositorySuite) countRows(table string) int {
	var n int
	s.Require().NoError(s.Pool.QueryRow(s.Ctx, "SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func newOrder(code string) *entity.Order {
	return &entity.Order{
		Code:         code,
		CustomerName: "Jane",
		PhoneNumber:  "0700000000",
		CreatedAt:    time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC),
		TotalAmount:  decimal.NewFromInt(250),
		Items: []entity.OrderItem{
			{ItemType: entity.ItemShirt, Quantity: 2, UnitPrice: decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(100)},
			{ItemType: entity.ItemSuit, Quantity: 1, UnitPrice: decimal.NewFromInt(150), TotalPrice: decimal.NewFromInt(150)},
		},
	}
}

func (s *RepositorySuite) TestInsertAndGetByCode() {
	order := newOrder("AB12CD34")
	s.Require().NoError(s.Repo.Insert(s.Ctx, order))
	s.NotZero(order.ID)

	got, err := s.Repo.GetByCode(s.Ctx, "AB12CD34")
	s.Require().NoError(err)

	s.Equal(order.ID, got.ID)
	s.Equal("Jane", got.CustomerName)
	s.True(order.CreatedAt.Equal(got.CreatedAt))
	s.True(decimal.NewFromInt(250).Equal(got.TotalAmount))
	s.Require().Len(got.Items, 2)
	s.Equal(entity.ItemShirt, got.Items[0].ItemType)
	s.Equal(entity.ItemSuit, got.Items[1].ItemType)
	s.True(decimal.NewFromInt(100).Equal(got.Items[0].TotalPrice))
}

func (s *RepositorySuite) TestInsert_DuplicateCode() {
	s.Require().NoError(s.Repo.Insert(s.Ctx, newOrder("DUPL0001")))

	err := s.Repo.Insert(s.Ctx, newOrder("DUPL0001"))
	s.Require().ErrorIs(err, ports.ErrDuplicateOrderCode)
	s.Equal(1, s.countRows("orders"))
}

func (s *RepositorySuite) TestInsert_RollsBackOnItemFailure() {
	order := newOrder("BROKEN01")
	order.Items[1].Quantity = 0

	s.Require().Error(s.Repo.Insert(s.Ctx, order))
	s.Zero(order.ID)
	s.Equal(0, s.countRows("orders"))
	s.Equal(0, s.countRows("order_items"))
}

func (s *RepositorySuite) TestDeleteOrderCascadesToItems() {
	order := newOrder("CASC0001")
	s.Require().NoError(s.Repo.Insert(s.Ctx, order))

	_, err := s.Pool.Exec(s.Ctx, "DELETE FROM orders WHERE id = $1", order.ID)
	s.Require().NoError(err)
	s.Equal(0, s.countRows("order_items"))
}

func (s *RepositorySuite) TestInsert_LargeAmountsRoundTrip() {
	order := newOrder("BIGSUM01")
	unit := decimal.RequireFromString("1234567.89")
	line := unit.Mul(decimal.NewFromInt(10000))
	order.Items = []entity.OrderItem{{ItemType: entity.ItemSuit, Quantity: 10000, UnitPrice: unit, TotalPrice: line}}
	order.TotalAmount = order.ItemsTotal()
	s.Require().NoError(s.Repo.Insert(s.Ctx, order))

	got, err := s.Repo.GetByCode(s.Ctx, "BIGSUM01")
	s.Require().NoError(err)
	s.True(line.Equal(got.TotalAmount), "got %s", got.TotalAmount)
	s.True(unit.Equal(got.Items[0].UnitPrice))
}

func (s *RepositorySuite) TestGetByCode_NotFound() {
	_, err := s.Repo.GetByCode(s.Ctx, "NOPE0000")
	s.Require().ErrorIs(err, ports.ErrOrderNotFound)
}

func TestRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	suite.Run(t, new(RepositorySuite))
}
