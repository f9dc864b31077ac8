package user

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
	RoleWorker   Role = "worker"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleWorker:
		return true
	}
	return false
}

type User struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Phone    string    `json:"phone"`
	Password string    `json:"-"`
	Role     Role      `json:"role"`

	// Customers only.
	Measurements []Measurement `json:"measurements,omitempty"`
	// Workers only.
	Specialization *string `json:"specialization,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Measurement is one saved body-measurement profile, e.g. "Panjabi" with
// chest/length/sleeve values in inches.
type Measurement struct {
	Label  string             `json:"label"`
	Values map[string]float64 `json:"values"`
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Portal   Role   `json:"portal"`
}

type CreateUserInput struct {
	Name           string  `json:"name"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Password       string  `json:"password"`
	Role           Role    `json:"role"`
	Specialization *string `json:"specialization"`
}

type UpdateUserInput struct {
	Name           *string        `json:"name"`
	Phone          *string        `json:"phone"`
	Password       *string        `json:"password"`
	Measurements   *[]Measurement `json:"measurements"`
	Specialization *string        `json:"specialization"`
}
