package store

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"tailorshop-be/internal/client"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/user"

	"go.uber.org/zap"
)

var ErrNoSessionFile = errors.New("store has no session file")

type loginResponse struct {
	Token string     `json:"token"`
	Role  user.Role  `json:"role"`
	User  *user.User `json:"user"`
}

func (s *Store) Session() user.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

func (s *Store) setSession(sess user.Session) {
	s.mu.Lock()
	s.session = sess
	s.mu.Unlock()
}

// Login signs in through the given portal, persists the id and token and
// makes the matching session variant current.
func (s *Store) Login(ctx context.Context, email, password string, portal user.Role) (user.Session, error) {
	var resp loginResponse
	err := s.gw.Do(ctx, http.MethodPost, "/api/auth/login", user.LoginInput{
		Email:    email,
		Password: password,
		Portal:   portal,
	}, &resp)
	if err != nil {
		return user.Anonymous{}, err
	}

	sess := user.NewSession(resp.User)
	if user.IsAnonymous(sess) {
		return sess, user.ErrInvalidRole
	}
	s.gw.SetToken(resp.Token)
	if s.file != nil {
		if err := s.file.Save(Persisted{UserID: resp.User.ID.String(), Token: resp.Token, Role: sess.Role()}); err != nil {
			return sess, err
		}
	}
	s.setSession(sess)

	logger.For(ctx, "store", "Login").Info("signed in",
		zap.String("user_id", resp.User.ID.String()),
		zap.String("role", string(sess.Role())),
	)
	return sess, nil
}

func (s *Store) Logout(ctx context.Context) error {
	_ = s.gw.Do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	s.gw.SetToken("")
	s.setSession(user.Anonymous{})
	if s.file == nil {
		return nil
	}
	return s.file.Clear()
}

// RestoreSession resolves the persisted user id, against the hydrated
// users when they are mirrored and through the API otherwise. An id that no
// longer resolves is forgotten.
func (s *Store) RestoreSession(ctx context.Context) (user.Session, error) {
	if s.file == nil {
		return user.Anonymous{}, ErrNoSessionFile
	}
	p, err := s.file.Load()
	if err != nil {
		return user.Anonymous{}, err
	}
	if p.UserID == "" {
		s.setSession(user.Anonymous{})
		return user.Anonymous{}, nil
	}

	u, err := s.resolveUser(ctx, p.UserID)
	if err != nil {
		return user.Anonymous{}, err
	}
	if u == nil {
		logger.For(ctx, "store", "RestoreSession").Info("persisted user is gone",
			zap.String("user_id", p.UserID),
		)
		s.setSession(user.Anonymous{})
		return user.Anonymous{}, s.file.Clear()
	}

	sess := user.NewSession(u)
	s.setSession(sess)
	return sess, nil
}

// resolveUser yields nil when id names nobody the backend still knows.
// Customers cannot list users, so without a users mirror the token's owner
// is asked for instead.
func (s *Store) resolveUser(ctx context.Context, id string) (*user.User, error) {
	if slices.Contains(s.collections, Users) {
		users, err := s.Users()
		if err != nil {
			return nil, err
		}
		for i := range users {
			if users[i].ID.String() == id {
				return &users[i], nil
			}
		}
		return nil, nil
	}

	var me user.User
	if err := s.gw.Do(ctx, http.MethodGet, "/api/auth/me", nil, &me); err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && (apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if me.ID.String() != id {
		return nil, nil
	}
	return &me, nil
}
