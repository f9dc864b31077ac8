package notification

import (
	"context"
	"testing"

	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, n *Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *MockRepository) ListForUser(ctx context.Context, email string) ([]Notification, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Notification), args.Error(1)
}

func (m *MockRepository) MarkRead(ctx context.Context, id uuid.UUID, email string) error {
	return m.Called(ctx, id, email).Error(0)
}

func (m *MockRepository) MarkAllRead(ctx context.Context, email string) (int64, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(int64), args.Error(1)
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("Create", ctx, mock.AnythingOfType("*notification.Notification")).Return(nil)

		n, err := NewService(repo).Create(ctx, " rina@example.com ", "Order ready", "TS-1 is ready")
		require.NoError(t, err)
		assert.Equal(t, "rina@example.com", n.UserEmail)
		repo.AssertNumberOfCalls(t, "Create", 1)
	})

	t.Run("MissingRecipient", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).Create(ctx, "", "t", "m")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestService_ListMine(t *testing.T) {
	t.Run("Anonymous", func(t *testing.T) {
		_, err := NewService(new(MockRepository)).ListMine(context.Background())
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("ScopedToCaller", func(t *testing.T) {
		ctx := utils.SetUserContext(context.Background(), uuid.New(), "rina@example.com", utils.RoleCustomer, "Rina")
		repo := new(MockRepository)
		repo.On("ListForUser", ctx, "rina@example.com").Return([]Notification{{Title: "x"}}, nil)

		list, err := NewService(repo).ListMine(ctx)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestService_MarkAllRead(t *testing.T) {
	ctx := utils.SetUserContext(context.Background(), uuid.New(), "rina@example.com", utils.RoleCustomer, "Rina")
	repo := new(MockRepository)
	repo.On("MarkAllRead", ctx, "rina@example.com").Return(int64(2), nil)

	assert.NoError(t, NewService(repo).MarkAllRead(ctx))
	repo.AssertExpectations(t)
}
