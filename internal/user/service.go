package user

import (
	"context"
	"fmt"
	"strings"

	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Service interface {
	Register(ctx context.Context, input RegisterInput) (string, Session, error)
	Login(ctx context.Context, input LoginInput) (string, Session, error)
	Get(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, role *Role) ([]*User, error)
	Create(ctx context.Context, input CreateUserInput) (*User, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register signs up a storefront customer. Staff accounts are created by an
// admin through Create.
func (s *service) Register(ctx context.Context, input RegisterInput) (string, Session, error) {
	log := logger.For(ctx, "service", "Register")

	email := normalizeEmail(input.Email)
	if strings.TrimSpace(input.Name) == "" || email == "" || input.Password == "" {
		return "", Anonymous{}, ErrInvalidInput
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		log.Error("failed to hash password", zap.Error(err))
		return "", Anonymous{}, err
	}

	u := &User{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Phone:    input.Phone,
		Password: hashed,
		Role:     RoleCustomer,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		log.Error("failed to create user", zap.String("email", email), zap.Error(err))
		return "", Anonymous{}, err
	}

	token, err := GenerateJWT(*u)
	if err != nil {
		log.Error("failed to generate jwt", zap.String("user_id", u.ID.String()), zap.Error(err))
		return "", Anonymous{}, err
	}

	log.Info("register service completed", zap.String("user_id", u.ID.String()))
	return token, NewSession(u), nil
}

// Login authenticates against the portal the caller is signing into. An
// account whose role belongs to another portal is refused with
// ErrRoleMismatch so the client can point the user to the right login.
func (s *service) Login(ctx context.Context, input LoginInput) (string, Session, error) {
	log := logger.For(ctx, "service", "Login").With(zap.String("portal", string(input.Portal)))

	if input.Portal == "" {
		input.Portal = RoleCustomer
	}
	if !input.Portal.Valid() {
		return "", Anonymous{}, ErrInvalidRole
	}

	u, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		log.Info("email not found")
		return "", Anonymous{}, ErrInvalidCredentials
	}

	if !CheckPasswordHash(input.Password, u.Password) {
		log.Info("password not match")
		return "", Anonymous{}, ErrInvalidCredentials
	}

	if u.Role != input.Portal {
		log.Warn("role mismatch", zap.String("role", string(u.Role)))
		return "", Anonymous{}, fmt.Errorf("%w: use the %s login", ErrRoleMismatch, u.Role)
	}

	token, err := GenerateJWT(*u)
	if err != nil {
		return "", Anonymous{}, err
	}

	return token, NewSession(u), nil
}

// Get returns a user. Customers may only load themselves.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	callerID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !utils.IsAdmin(ctx) && callerID != id {
		return nil, ErrForbidden
	}
	return s.repo.FindByID(ctx, id)
}

// List is open to staff so the production console can resolve who is who.
func (s *service) List(ctx context.Context, role *Role) ([]*User, error) {
	if !utils.IsStaff(ctx) {
		return nil, ErrForbidden
	}
	if role != nil && !role.Valid() {
		return nil, ErrInvalidRole
	}
	return s.repo.List(ctx, role)
}

func (s *service) Create(ctx context.Context, input CreateUserInput) (*User, error) {
	log := logger.For(ctx, "service", "CreateUser")

	if !utils.IsAdmin(ctx) {
		return nil, ErrForbidden
	}
	if !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	email := normalizeEmail(input.Email)
	if strings.TrimSpace(input.Name) == "" || email == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	hashed, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:       uuid.New(),
		Name:     strings.TrimSpace(input.Name),
		Email:    email,
		Phone:    input.Phone,
		Password: hashed,
		Role:     input.Role,
	}
	if input.Role == RoleWorker {
		u.Specialization = input.Specialization
	}

	if err := s.repo.Create(ctx, u); err != nil {
		log.Error("failed to create user", zap.Error(err))
		return nil, err
	}

	log.Info("user created", zap.String("user_id", u.ID.String()), zap.String("role", string(u.Role)))
	return u, nil
}

// Update lets customers edit their own profile and measurements; admins may
// edit anyone.
func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Phone != nil {
		u.Phone = *input.Phone
	}
	if input.Password != nil && *input.Password != "" {
		hashed, err := HashPassword(*input.Password)
		if err != nil {
			return nil, err
		}
		u.Password = hashed
	}
	if input.Measurements != nil && u.Role == RoleCustomer {
		u.Measurements = *input.Measurements
	}
	if input.Specialization != nil && u.Role == RoleWorker {
		u.Specialization = input.Specialization
	}

	if err := s.repo.Update(ctx, u); err != nil {
		logger.For(ctx, "service", "UpdateUser").Error("failed to update user", zap.Error(err))
		return nil, err
	}
	return u, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if !utils.IsAdmin(ctx) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
