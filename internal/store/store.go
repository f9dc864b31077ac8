// Package store mirrors the backend's collections in memory for a single
// client session and writes changes through to the API.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"tailorshop-be/internal/catalog"
	"tailorshop-be/internal/client"
	"tailorshop-be/internal/coupon"
	"tailorshop-be/internal/due"
	"tailorshop-be/internal/logger"
	"tailorshop-be/internal/material"
	"tailorshop-be/internal/notification"
	"tailorshop-be/internal/order"
	"tailorshop-be/internal/user"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	Users            = "users"
	Orders           = "orders"
	Dues             = "dues"
	Coupons          = "coupons"
	MaterialRequests = "material-requests"
	Emails           = "emails"
	Notifications    = "notifications"
)

// Collections is everything a full hydration fetches.
var Collections = append([]string{
	Users, Orders, Dues, Coupons, MaterialRequests, Emails,
}, catalog.Collections...)

// ForRole narrows Collections to what the role is allowed to read.
func ForRole(role user.Role) []string {
	switch role {
	case user.RoleAdmin:
		return append(append([]string{}, Collections...), Notifications)
	case user.RoleWorker:
		return []string{Users, Orders, MaterialRequests, Notifications, "products", "fabrics"}
	case user.RoleCustomer:
		return append([]string{Orders, Notifications}, catalog.Collections...)
	}
	return append([]string{}, catalog.Collections...)
}

// itemRoutes are collections with a GET /api/{c}/{id} endpoint. The rest
// are reconciled by refetching the whole list.
var itemRoutes = map[string]bool{Users: true, Orders: true}

func init() {
	for _, c := range catalog.Collections {
		itemRoutes[c] = true
	}
}

type Gateway interface {
	List(ctx context.Context, collection string) ([]client.Record, error)
	Get(ctx context.Context, collection, id string) (client.Record, error)
	Save(ctx context.Context, collection string, rec client.Record) (client.Record, error)
	Patch(ctx context.Context, collection, id string, patch client.Record) (client.Record, error)
	Delete(ctx context.Context, collection, id string) error
	Do(ctx context.Context, method, path string, body, out any) error
	SetToken(token string)
}

type Store struct {
	gw          Gateway
	collections []string
	file        *SessionFile

	mu      sync.RWMutex
	mirrors map[string][]client.Record
	session user.Session
}

type Option func(*Store)

func WithCollections(names ...string) Option {
	return func(s *Store) { s.collections = names }
}

func WithSessionFile(f *SessionFile) Option {
	return func(s *Store) { s.file = f }
}

func New(gw Gateway, opts ...Option) *Store {
	s := &Store{
		gw:          gw,
		collections: Collections,
		mirrors:     map[string][]client.Record{},
		session:     user.Anonymous{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hydrate fetches every configured collection in parallel. The mirrors are
// replaced only when all of them arrive.
func (s *Store) Hydrate(ctx context.Context) error {
	log := logger.For(ctx, "store", "Hydrate")
	results := make([][]client.Record, len(s.collections))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range s.collections {
		g.Go(func() error {
			list, err := s.gw.List(gctx, name)
			if err != nil {
				return fmt.Errorf("hydrate %s: %w", name, err)
			}
			results[i] = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error("hydration failed", zap.Error(err))
		return err
	}

	s.mu.Lock()
	for i, name := range s.collections {
		s.mirrors[name] = results[i]
	}
	s.mu.Unlock()

	log.Debug("hydrated", zap.Int("collections", len(s.collections)))
	return nil
}

// Records returns a copy of the mirror for collection.
func (s *Store) Records(collection string) []client.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]client.Record(nil), s.mirrors[collection]...)
}

func (s *Store) Find(collection, id string) (client.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, rec := range s.mirrors[collection] {
		if rec.ID() == id {
			return rec, true
		}
	}
	return nil, false
}

func (s *Store) upsert(collection string, rec client.Record) {
	if rec == nil || rec.ID() == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.mirrors[collection]
	for i := range list {
		if list[i].ID() == rec.ID() {
			list[i] = rec
			return
		}
	}
	s.mirrors[collection] = append(list, rec)
}

func (s *Store) remove(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.mirrors[collection]
	for i := range list {
		if list[i].ID() == id {
			s.mirrors[collection] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// reconcile brings the mirror back in line with the backend after a failed
// write. Its own failures are logged and swallowed.
func (s *Store) reconcile(ctx context.Context, collection, id string) {
	log := logger.For(ctx, "store", "reconcile").With(
		zap.String("collection", collection),
		zap.String("id", id),
	)

	if !itemRoutes[collection] || id == "" {
		list, err := s.gw.List(ctx, collection)
		if err != nil {
			log.Warn("refetch failed", zap.Error(err))
			return
		}
		s.mu.Lock()
		s.mirrors[collection] = list
		s.mu.Unlock()
		return
	}

	rec, err := s.gw.Get(ctx, collection, id)
	switch {
	case client.IsNotFound(err):
		s.remove(collection, id)
	case err != nil:
		log.Warn("refetch failed", zap.Error(err))
	default:
		s.upsert(collection, rec)
	}
}

// apply runs a write and folds its result into the mirror. A failed write
// triggers reconciliation and the write's error is returned unchanged.
func (s *Store) apply(ctx context.Context, collection, id string, write func() (client.Record, error)) (client.Record, error) {
	out, err := write()
	if err != nil {
		s.reconcile(ctx, collection, id)
		return nil, err
	}
	s.upsert(collection, out)
	return out, nil
}

// Save creates or replaces rec. A locally-keyed new record is swapped for
// the stored one when the server assigns a different id.
func (s *Store) Save(ctx context.Context, collection string, rec client.Record) (client.Record, error) {
	localID := rec.ID()
	out, err := s.apply(ctx, collection, localID, func() (client.Record, error) {
		return s.gw.Save(ctx, collection, rec)
	})
	if err == nil && rec.IsNew() && localID != "" && out.ID() != localID {
		s.remove(collection, localID)
	}
	return out, err
}

func (s *Store) Patch(ctx context.Context, collection, id string, patch client.Record) (client.Record, error) {
	return s.apply(ctx, collection, id, func() (client.Record, error) {
		return s.gw.Patch(ctx, collection, id, patch)
	})
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.gw.Delete(ctx, collection, id); err != nil {
		s.reconcile(ctx, collection, id)
		return err
	}
	s.remove(collection, id)
	return nil
}

func (s *Store) put(ctx context.Context, collection, id, path string, body any) (client.Record, error) {
	return s.apply(ctx, collection, id, func() (client.Record, error) {
		var out client.Record
		if err := s.gw.Do(ctx, http.MethodPut, path, body, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func (s *Store) UpdateOrderStep(ctx context.Context, id string, step order.ProductionStep) (*order.Order, error) {
	rec, err := s.put(ctx, Orders, id, "/api/orders/"+url.PathEscape(id)+"/step", map[string]any{"step": step})
	if err != nil {
		return nil, err
	}
	var o order.Order
	return &o, convert(rec, &o)
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	rec, err := s.put(ctx, Orders, id, "/api/orders/"+url.PathEscape(id)+"/status", map[string]any{"status": status})
	if err != nil {
		return nil, err
	}
	var o order.Order
	return &o, convert(rec, &o)
}

func (s *Store) RequestMaterial(ctx context.Context, in material.CreateInput) (*material.Request, error) {
	rec, err := s.apply(ctx, MaterialRequests, "", func() (client.Record, error) {
		var out client.Record
		if err := s.gw.Do(ctx, http.MethodPost, "/api/"+MaterialRequests, in, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	var m material.Request
	return &m, convert(rec, &m)
}

func (s *Store) DecideMaterial(ctx context.Context, id string, status material.Status) (*material.Request, error) {
	rec, err := s.Patch(ctx, MaterialRequests, id, client.Record{"status": status})
	if err != nil {
		return nil, err
	}
	var m material.Request
	return &m, convert(rec, &m)
}

// convert re-decodes loosely typed JSON into a domain struct.
func convert(in, out any) error {
	raw, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func typed[T any](s *Store, collection string) ([]T, error) {
	out := []T{}
	if err := convert(s.Records(collection), &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return out, nil
}

func (s *Store) Orders() ([]order.Order, error) { return typed[order.Order](s, Orders) }

func (s *Store) Coupons() ([]coupon.Coupon, error) { return typed[coupon.Coupon](s, Coupons) }

func (s *Store) Users() ([]user.User, error) { return typed[user.User](s, Users) }

func (s *Store) Dues() ([]due.Record, error) { return typed[due.Record](s, Dues) }

func (s *Store) Notifications() ([]notification.Notification, error) {
	return typed[notification.Notification](s, Notifications)
}

func (s *Store) MaterialRequests() ([]material.Request, error) {
	return typed[material.Request](s, MaterialRequests)
}
