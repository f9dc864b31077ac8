package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"tailorshop-be/internal/logger"

	"go.uber.org/zap"
)

// NewMarker flags a record that carries a client-made id but has never
// been stored. It is never sent to the server.
const NewMarker = "_isNew"

// Record is one entity as the API returns it.
type Record map[string]any

// ID returns the record's id, or "" when it has none.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// IsNew reports whether Save would create the record.
func (r Record) IsNew() bool {
	if r.ID() == "" {
		return true
	}
	marked, _ := r[NewMarker].(bool)
	return marked
}

func (r Record) withoutMarker() Record {
	out := make(Record, len(r))
	for k, v := range r {
		if k != NewMarker {
			out[k] = v
		}
	}
	return out
}

// APIError is a non-2xx answer from the API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SetToken(token string) { c.token = token }

func collectionPath(collection string, id ...string) string {
	p := "/api/" + collection
	for _, part := range id {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// List fetches a collection. Paged endpoints answer with {"items": [...]};
// both shapes are accepted.
func (c *Client) List(ctx context.Context, collection string) ([]Record, error) {
	var raw json.RawMessage
	path := collectionPath(collection)
	if collection == "orders" {
		path += "?limit=100"
	}
	if err := c.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	var list []Record
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var page struct {
		Items []Record `json:"items"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	if page.Items == nil {
		page.Items = []Record{}
	}
	return page.Items, nil
}

func (c *Client) Get(ctx context.Context, collection, id string) (Record, error) {
	var rec Record
	if err := c.Do(ctx, http.MethodGet, collectionPath(collection, id), nil, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save creates the record when it is new and replaces it otherwise.
func (c *Client) Save(ctx context.Context, collection string, rec Record) (Record, error) {
	method, path := http.MethodPut, collectionPath(collection, rec.ID())
	if rec.IsNew() {
		method, path = http.MethodPost, collectionPath(collection)
	}

	var out Record
	if err := c.Do(ctx, method, path, rec.withoutMarker(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Patch(ctx context.Context, collection, id string, patch Record) (Record, error) {
	var out Record
	if err := c.Do(ctx, http.MethodPatch, collectionPath(collection, id), patch.withoutMarker(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Delete(ctx context.Context, collection, id string) error {
	return c.Do(ctx, http.MethodDelete, collectionPath(collection, id), nil, nil)
}

// Do sends body as JSON to path and decodes the answer into out when both
// are non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		logger.For(ctx, "client", "Do").Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body struct {
		Error string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &APIError{Status: resp.StatusCode, Message: msg}
}
