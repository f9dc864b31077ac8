package user

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewSession(t *testing.T) {
	mk := func(r Role) *User { return &User{ID: uuid.New(), Role: r, Email: string(r) + "@shop.test"} }

	t.Run("Admin populates only the admin variant", func(t *testing.T) {
		s := NewSession(mk(RoleAdmin))

		_, isAdmin := s.(AdminSession)
		_, isCustomer := s.(CustomerSession)
		_, isWorker := s.(WorkerSession)
		assert.True(t, isAdmin)
		assert.False(t, isCustomer)
		assert.False(t, isWorker)
		assert.Equal(t, RoleAdmin, s.Role())
		assert.Equal(t, "admin@shop.test", s.Current().Email)
	})

	t.Run("Customer", func(t *testing.T) {
		s := NewSession(mk(RoleCustomer))
		_, ok := s.(CustomerSession)
		assert.True(t, ok)
		assert.False(t, IsAnonymous(s))
	})

	t.Run("Worker", func(t *testing.T) {
		s := NewSession(mk(RoleWorker))
		_, ok := s.(WorkerSession)
		assert.True(t, ok)
	})

	t.Run("Nil and unknown roles are anonymous", func(t *testing.T) {
		assert.True(t, IsAnonymous(NewSession(nil)))
		assert.True(t, IsAnonymous(NewSession(mk("supplier"))))
		assert.True(t, IsAnonymous(nil))
		assert.Nil(t, Anonymous{}.Current())
	})

	t.Run("Current returns a copy", func(t *testing.T) {
		s := NewSession(mk(RoleCustomer))
		s.Current().Email = "changed"
		assert.Equal(t, "customer@shop.test", s.Current().Email)
	})
}
