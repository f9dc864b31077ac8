package due

import (
	"context"
	"testing"

	"tailorshop-be/internal/events"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) List(ctx context.Context, status *Status) ([]Record, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) ListByEmail(ctx context.Context, email string) ([]Record, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

func (m *MockRepository) Settle(ctx context.Context, id uuid.UUID) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func adminCtx() context.Context {
	return utils.SetUserContext(context.Background(), uuid.New(), "admin@tailor.test", utils.RoleAdmin, "Admin")
}

func TestNewOutstanding(t *testing.T) {
	orderID := uuid.New()

	t.Run("Outstanding", func(t *testing.T) {
		d, err := NewOutstanding(orderID, "TS-1", "rina@example.com", decimal.NewFromInt(7000))
		require.NoError(t, err)
		assert.Equal(t, StatusOutstanding, d.Status)
		assert.Equal(t, orderID, d.OrderID)
		assert.Equal(t, "TS-1", d.OrderNumber)
		assert.NotEqual(t, uuid.Nil, d.ID)
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		_, err := NewOutstanding(orderID, "TS-1", "x@y.z", decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestService_Settle(t *testing.T) {
	ctx := adminCtx()
	id := uuid.New()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Settle", ctx, id).Return(&Record{ID: id, OrderID: uuid.New(), Status: StatusSettled}, nil)

		d, err := NewService(repo, events.Nop{}).Settle(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, StatusSettled, d.Status)
	})

	t.Run("Twice", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Settle", ctx, id).Return(nil, ErrAlreadySettled)

		_, err := NewService(repo, events.Nop{}).Settle(ctx, id)
		assert.ErrorIs(t, err, ErrAlreadySettled)
	})

	t.Run("CustomerForbidden", func(t *testing.T) {
		customer := utils.SetUserContext(context.Background(), uuid.New(), "c@x.y", utils.RoleCustomer, "C")
		repo := new(MockRepository)

		_, err := NewService(repo, events.Nop{}).Settle(customer, id)
		assert.ErrorIs(t, err, ErrForbidden)
		repo.AssertNotCalled(t, "Settle", mock.Anything, mock.Anything)
	})
}

func TestService_ListMine(t *testing.T) {
	_, err := NewService(new(MockRepository), events.Nop{}).ListMine(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	ctx := utils.SetUserContext(context.Background(), uuid.New(), "rina@example.com", utils.RoleCustomer, "Rina")
	repo := new(MockRepository)
	repo.On("ListByEmail", ctx, "rina@example.com").Return([]Record{{}}, nil)

	list, err := NewService(repo, events.Nop{}).ListMine(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
