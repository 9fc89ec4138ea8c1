package store

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/swabcity/catalogadmin/internal/catalog"
)

type staticCreds struct {
	domain string
	apiKey string
}

func (c *staticCreds) APIDomain() string   { return c.domain }
func (c *staticCreds) AdminAPIKey() string { return c.apiKey }

// recordingHandler captures requests and serves scripted responses.
type recordingHandler struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
	body     string
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.requests = append(h.requests, r.Clone(r.Context()))
	status := h.status
	body := h.body
	h.mu.Unlock()

	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (h *recordingHandler) respond(status int, body string) {
	h.mu.Lock()
	h.status = status
	h.body = body
	h.mu.Unlock()
}

func (h *recordingHandler) recorded() []*http.Request {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*http.Request(nil), h.requests...)
}

func newTestStore(t *testing.T, apiKey string) (*Store, *recordingHandler) {
	t.Helper()

	handler := &recordingHandler{status: http.StatusOK, body: "[]"}
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := New(&http.Client{}, &staticCreds{domain: server.URL, apiKey: apiKey})
	return s, handler
}

func lastLogEntry(t *testing.T, s *Store) string {
	t.Helper()

	entries := s.Log()
	if len(entries) == 0 {
		t.Fatalf("expected at least one log entry")
	}
	return entries[len(entries)-1]
}

const twoProducts = `[
	{"id": 1, "name": "Soap", "price": 5.0, "currency": "USD", "description": "", "image": ""},
	{"id": 7, "name": "Towel", "price": 12.5, "currency": "USD", "description": "", "image": ""}
]`

func TestFetchProducts_ReplacesCollection(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusOK, twoProducts)

	if err := s.FetchProducts(context.Background()); err != nil {
		t.Fatalf("FetchProducts error: %v", err)
	}

	products := s.Products()
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if *products[0].ID != 1 || *products[1].ID != 7 {
		t.Errorf("expected response order [1 7], got [%d %d]", *products[0].ID, *products[1].ID)
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "200") || !strings.Contains(entry, "fetched successfully") {
		t.Errorf("unexpected log entry: %q", entry)
	}
}

func TestFetchProducts_NonSuccessLeavesCollection(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusOK, twoProducts)
	if err := s.FetchProducts(context.Background()); err != nil {
		t.Fatalf("seed fetch error: %v", err)
	}

	handler.respond(http.StatusNotFound, "")
	err := s.FetchProducts(context.Background())
	if err == nil {
		t.Fatalf("expected error for 404 response")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != 404 {
		t.Errorf("expected StatusError with code 404, got %v", err)
	}
	if len(s.Products()) != 2 {
		t.Errorf("collection must be untouched on failure, got %d products", len(s.Products()))
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "404") {
		t.Errorf("expected log entry containing 404, got %q", entry)
	}
}

func TestFetchProducts_PartialListRejected(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusOK, `[{"id": 1, "name": "Soap", "price": 5.0, "currency": "USD", "description": "", "image": ""}, {"id": 2, "price": "bad"}]`)

	if err := s.FetchProducts(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
	if len(s.Products()) != 0 {
		t.Errorf("partially decodable list must not be applied")
	}
}

func TestFetchProducts_NoAuthHeader(t *testing.T) {
	s, handler := newTestStore(t, "secret")

	if err := s.FetchProducts(context.Background()); err != nil {
		t.Fatalf("FetchProducts error: %v", err)
	}
	requests := handler.recorded()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	if auth := requests[0].Header.Get("Authorization"); auth != "" {
		t.Errorf("fetch must not carry auth header, got %q", auth)
	}
}

func TestDeleteProduct_RemovesRecord(t *testing.T) {
	s, handler := newTestStore(t, "secret")
	handler.respond(http.StatusOK, twoProducts)
	if err := s.FetchProducts(context.Background()); err != nil {
		t.Fatalf("seed fetch error: %v", err)
	}

	handler.respond(http.StatusNoContent, "")
	if err := s.DeleteProduct(context.Background(), 7); err != nil {
		t.Fatalf("DeleteProduct error: %v", err)
	}

	products := s.Products()
	if len(products) != 1 || *products[0].ID != 1 {
		t.Fatalf("expected only product 1 to remain, got %+v", products)
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "deleted successfully") || !strings.Contains(entry, "204") {
		t.Errorf("unexpected log entry: %q", entry)
	}

	requests := handler.recorded()
	last := requests[len(requests)-1]
	if last.Method != http.MethodDelete || last.URL.Path != "/product/7" {
		t.Errorf("expected DELETE /product/7, got %s %s", last.Method, last.URL.Path)
	}
	if auth := last.Header.Get("Authorization"); auth != "Bearer secret" {
		t.Errorf("expected bearer header on delete, got %q", auth)
	}
}

func TestDeleteProduct_FailureLeavesCollection(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusOK, twoProducts)
	if err := s.FetchProducts(context.Background()); err != nil {
		t.Fatalf("seed fetch error: %v", err)
	}

	handler.respond(http.StatusForbidden, "")
	if err := s.DeleteProduct(context.Background(), 7); err == nil {
		t.Fatalf("expected error for 403 response")
	}
	if len(s.Products()) != 2 {
		t.Errorf("collection must be untouched on delete failure")
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "403") {
		t.Errorf("expected log entry containing 403, got %q", entry)
	}
}

func TestAddProduct_SuccessDoesNotMutateCollection(t *testing.T) {
	s, handler := newTestStore(t, "secret")
	handler.respond(http.StatusCreated, "")

	product := catalog.Product{Name: "Mug", Price: 9.99, Currency: "USD"}
	if err := s.AddProduct(context.Background(), product); err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}

	if len(s.Products()) != 0 {
		t.Errorf("add must not mutate the local collection; callers re-fetch")
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "added successfully") || !strings.Contains(entry, "201") {
		t.Errorf("unexpected log entry: %q", entry)
	}

	requests := handler.recorded()
	if len(requests) != 1 {
		t.Fatalf("expected 1 request, got %d", len(requests))
	}
	req := requests[0]
	if req.Method != http.MethodPost || req.URL.Path != "/product" {
		t.Errorf("expected POST /product, got %s %s", req.Method, req.URL.Path)
	}
	if ct := req.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected JSON content type, got %q", ct)
	}
	if auth := req.Header.Get("Authorization"); auth != "Bearer secret" {
		t.Errorf("expected bearer header on add, got %q", auth)
	}
}

func TestAddProduct_NoAuthHeaderWithoutKey(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusCreated, "")

	if err := s.AddProduct(context.Background(), catalog.Product{Name: "Mug"}); err != nil {
		t.Fatalf("AddProduct error: %v", err)
	}
	if auth := handler.recorded()[0].Header.Get("Authorization"); auth != "" {
		t.Errorf("empty token must not produce an auth header, got %q", auth)
	}
}

func TestUpdateProduct_MissingID(t *testing.T) {
	s, handler := newTestStore(t, "")

	err := s.UpdateProduct(context.Background(), catalog.Product{Name: "Mug"})
	if !errors.Is(err, ErrMissingID) {
		t.Fatalf("expected ErrMissingID, got %v", err)
	}
	if !strings.Contains(err.Error(), "invalid product ID or URL") {
		t.Errorf("unexpected error message: %q", err)
	}
	if len(handler.recorded()) != 0 {
		t.Errorf("no network call may be made without an id")
	}
}

func TestUpdateProduct_Success(t *testing.T) {
	s, handler := newTestStore(t, "secret")
	handler.respond(http.StatusOK, "")

	id := int64(5)
	product := catalog.Product{ID: &id, Name: "Mug", Price: 9.99, Currency: "USD"}
	if err := s.UpdateProduct(context.Background(), product); err != nil {
		t.Fatalf("UpdateProduct error: %v", err)
	}

	req := handler.recorded()[0]
	if req.Method != http.MethodPatch || req.URL.Path != "/product/5" {
		t.Errorf("expected PATCH /product/5, got %s %s", req.Method, req.URL.Path)
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "updated successfully") {
		t.Errorf("unexpected log entry: %q", entry)
	}
}

func TestFetchProducts_TransportError(t *testing.T) {
	handler := &recordingHandler{status: http.StatusOK, body: "[]"}
	server := httptest.NewServer(handler)
	creds := &staticCreds{domain: server.URL}
	server.Close()

	s := New(&http.Client{}, creds)
	if err := s.FetchProducts(context.Background()); err == nil {
		t.Fatalf("expected transport error")
	}
	if entry := lastLogEntry(t, s); !strings.Contains(entry, "Error fetching products") {
		t.Errorf("unexpected log entry: %q", entry)
	}
	if len(s.Products()) != 0 {
		t.Errorf("collection must stay empty after transport failure")
	}
}

func TestSubscribe_SnapshotsOnChange(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusOK, twoProducts)

	var mu sync.Mutex
	var gotProducts []catalog.Product
	var logLen int
	if err := s.SubscribeProducts(func(products []catalog.Product) {
		mu.Lock()
		gotProducts = products
		mu.Unlock()
	}); err != nil {
		t.Fatalf("SubscribeProducts error: %v", err)
	}
	if err := s.SubscribeLog(func(entries []string) {
		mu.Lock()
		logLen = len(entries)
		mu.Unlock()
	}); err != nil {
		t.Fatalf("SubscribeLog error: %v", err)
	}

	if err := s.FetchProducts(context.Background()); err != nil {
		t.Fatalf("FetchProducts error: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(gotProducts) != 2 {
		t.Errorf("expected snapshot with 2 products, got %d", len(gotProducts))
	}
	if logLen != 1 {
		t.Errorf("expected log snapshot with 1 entry, got %d", logLen)
	}
}

func TestConcurrentOperations(t *testing.T) {
	s, handler := newTestStore(t, "")
	handler.respond(http.StatusOK, twoProducts)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.FetchProducts(context.Background())
		}()
	}
	wg.Wait()

	if len(s.Products()) != 2 {
		t.Errorf("expected 2 products after concurrent fetches, got %d", len(s.Products()))
	}
	if len(s.Log()) != 8 {
		t.Errorf("expected 8 log entries, got %d", len(s.Log()))
	}
}
