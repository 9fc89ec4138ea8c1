// Package store synchronizes a local product collection with the remote
// catalog backend. All operations are blocking, context-aware, and safe for
// concurrent use; callers that want fire-and-forget semantics dispatch them
// on their own goroutines. State changes are visible through snapshot
// accessors and through event-bus notifications.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/asaskevich/EventBus"

	"github.com/swabcity/catalogadmin/internal/catalog"
)

// Event topics published by the store. Subscribers receive immutable
// snapshots, never the store's internal slices.
const (
	TopicProducts = "store:products"
	TopicLog      = "store:log"
)

// ErrMissingID is returned by UpdateProduct when the record has no identity.
var ErrMissingID = errors.New("invalid product ID or URL")

// StatusError reports a response with an HTTP status outside [200,299].
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status code %d", e.Code)
}

// Transport issues HTTP requests. *http.Client satisfies it.
type Transport interface {
	Do(req *http.Request) (*http.Response, error)
}

// Credentials supplies the backend base URL and the admin bearer token. The
// token is attached to mutating requests only, and only when non-empty.
type Credentials interface {
	APIDomain() string
	AdminAPIKey() string
}

// Store holds the product collection and the append-only event log.
type Store struct {
	transport Transport
	creds     Credentials
	bus       EventBus.Bus

	mu       sync.Mutex
	products []catalog.Product
	log      []string
}

// New creates a store with an empty collection and log.
func New(transport Transport, creds Credentials) *Store {
	return &Store{
		transport: transport,
		creds:     creds,
		bus:       EventBus.New(),
	}
}

// Products returns a snapshot of the current collection.
func (s *Store) Products() []catalog.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.Product(nil), s.products...)
}

// Log returns a snapshot of the event log.
func (s *Store) Log() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.log...)
}

// SubscribeProducts registers fn to receive a collection snapshot after
// every collection change.
func (s *Store) SubscribeProducts(fn func([]catalog.Product)) error {
	return s.bus.Subscribe(TopicProducts, fn)
}

// SubscribeLog registers fn to receive a log snapshot after every append.
func (s *Store) SubscribeLog(fn func([]string)) error {
	return s.bus.Subscribe(TopicLog, fn)
}

// FetchProducts loads the full product list and replaces the local
// collection wholesale. The collection is untouched on any failure,
// including a partially decodable response. No auth header is attached.
func (s *Store) FetchProducts(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.creds.APIDomain()+"/products", nil)
	if err != nil {
		return fmt.Errorf("failed to build fetch request: %w", err)
	}

	resp, err := s.transport.Do(req)
	if err != nil {
		s.appendLog(fmt.Sprintf("Error fetching products: %v", err))
		return fmt.Errorf("failed to fetch products: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		s.appendLog(fmt.Sprintf("Error fetching products: Server returned status code %d", resp.StatusCode))
		return &StatusError{Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		s.appendLog(fmt.Sprintf("Error fetching products: %v", err))
		return fmt.Errorf("failed to read fetch response: %w", err)
	}

	products, err := catalog.DecodeProducts(body)
	if err != nil {
		s.appendLog(fmt.Sprintf("Error fetching products: %v", err))
		return err
	}

	s.setProducts(products)
	s.appendLog(fmt.Sprintf("Products fetched successfully. Status code: %d", resp.StatusCode))
	return nil
}

// DeleteProduct removes the record with the given id on the backend, then
// from the local collection. The collection is untouched on failure; no
// retry is attempted.
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	req, err := s.newMutatingRequest(ctx, http.MethodDelete, fmt.Sprintf("/product/%d", id), nil)
	if err != nil {
		return err
	}

	resp, err := s.transport.Do(req)
	if err != nil {
		s.appendLog(fmt.Sprintf("Error deleting product: %v", err))
		return fmt.Errorf("failed to delete product: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		s.appendLog(fmt.Sprintf("Error deleting product: Server returned status code %d", resp.StatusCode))
		return &StatusError{Code: resp.StatusCode}
	}

	s.removeProduct(id)
	s.appendLog(fmt.Sprintf("Product deleted successfully. Status code: %d", resp.StatusCode))
	return nil
}

// AddProduct submits a new record. The backend assigns the identity, so the
// local collection is deliberately not mutated on success; callers re-fetch
// to pick up the server-assigned id.
func (s *Store) AddProduct(ctx context.Context, product catalog.Product) error {
	body, err := catalog.EncodeProduct(product)
	if err != nil {
		return err
	}
	req, err := s.newMutatingRequest(ctx, http.MethodPost, "/product", body)
	if err != nil {
		return err
	}

	resp, err := s.transport.Do(req)
	if err != nil {
		s.appendLog(fmt.Sprintf("Error adding product: %v", err))
		return fmt.Errorf("failed to add product: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		s.appendLog(fmt.Sprintf("Error adding product: Server returned status code %d", resp.StatusCode))
		return &StatusError{Code: resp.StatusCode}
	}

	s.appendLog(fmt.Sprintf("Product added successfully. Status code: %d", resp.StatusCode))
	return nil
}

// UpdateProduct replaces the record with the matching id on the backend.
// Fails with ErrMissingID before any network call when the record has no
// identity. The local collection is not mutated; callers may re-fetch.
func (s *Store) UpdateProduct(ctx context.Context, product catalog.Product) error {
	if product.ID == nil {
		return ErrMissingID
	}

	body, err := catalog.EncodeProduct(product)
	if err != nil {
		return err
	}
	req, err := s.newMutatingRequest(ctx, http.MethodPatch, fmt.Sprintf("/product/%d", *product.ID), body)
	if err != nil {
		return err
	}

	resp, err := s.transport.Do(req)
	if err != nil {
		s.appendLog(fmt.Sprintf("Error updating product: %v", err))
		return fmt.Errorf("failed to update product: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !isSuccess(resp.StatusCode) {
		s.appendLog(fmt.Sprintf("Error updating product: Server returned status code %d", resp.StatusCode))
		return &StatusError{Code: resp.StatusCode}
	}

	s.appendLog(fmt.Sprintf("Product updated successfully. Status code: %d", resp.StatusCode))
	return nil
}

// newMutatingRequest builds a request with the JSON content type (when a
// body is present) and the bearer token when one is configured.
func (s *Store) newMutatingRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.creds.APIDomain()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if key := s.creds.AdminAPIKey(); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	return req, nil
}

func isSuccess(statusCode int) bool {
	return statusCode >= 200 && statusCode <= 299
}

func (s *Store) setProducts(products []catalog.Product) {
	s.mu.Lock()
	s.products = products
	snapshot := append([]catalog.Product(nil), s.products...)
	s.mu.Unlock()
	s.bus.Publish(TopicProducts, snapshot)
}

func (s *Store) removeProduct(id int64) {
	s.mu.Lock()
	kept := s.products[:0]
	for _, p := range s.products {
		if p.ID != nil && *p.ID == id {
			continue
		}
		kept = append(kept, p)
	}
	s.products = kept
	snapshot := append([]catalog.Product(nil), s.products...)
	s.mu.Unlock()
	s.bus.Publish(TopicProducts, snapshot)
}

func (s *Store) appendLog(message string) {
	slog.Info("store event", "message", message)
	s.mu.Lock()
	s.log = append(s.log, message)
	snapshot := append([]string(nil), s.log...)
	s.mu.Unlock()
	s.bus.Publish(TopicLog, snapshot)
}
