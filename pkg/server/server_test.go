package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/observability"
)

func seedStore(t *testing.T) *catalog.MemoryStore {
	t.Helper()
	s := catalog.NewMemoryStore()
	err := s.ReplaceAll(context.Background(), []*catalog.Product{
		{Name: "Apple Studio Display", Brand: "Apple", Category: "monitor", Count: 9},
		{Name: "Dell U2720Q", Brand: "Dell", Category: "monitor", Count: 1},
		{Name: "Logitech MX Master 3S", Brand: "Logitech", Category: "mouse", Count: 5},
		{Name: "Keychron Q1", Brand: "Keychron", Category: "keyboard", Count: 3},
	}, nil)
	require.NoError(t, err)
	return s
}

func newTestServer(t *testing.T, store catalog.Reader, opts ...Option) (*Server, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	cfg := DefaultConfig()
	cfg.CORSOrigins = []string{"https://deskspin.example"}
	opts = append([]Option{WithMetrics(observability.NewMetrics(reg), reg)}, opts...)
	return New(cfg, store, opts...), reg
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestSpin(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))

	rec := get(t, srv.Handler(), "/api/spin")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	resp := decode[SpinResponse](t, rec)
	assert.Len(t, resp.Categories, 6)
	assert.Len(t, resp.Products, 3)
	for name, p := range resp.Products {
		assert.Equal(t, name, p.Category)
	}
	assert.NotContains(t, resp.Products, "chair")
	assert.Empty(t, resp.Locked)
}

func TestSpin_Locked(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))

	for i := 0; i < 20; i++ {
		rec := get(t, srv.Handler(), "/api/spin?locked=monitor:2,keyboard:abc,mouse")
		require.Equal(t, http.StatusOK, rec.Code)

		resp := decode[SpinResponse](t, rec)
		require.Contains(t, resp.Products, "monitor")
		assert.Equal(t, "Dell U2720Q", resp.Products["monitor"].Name)
		assert.Equal(t, "monitor:2", resp.Locked)
		assert.Equal(t, []string{"keyboard:abc", "mouse"}, resp.Ignored)
	}
}

func TestSpin_RecordsMetrics(t *testing.T) {
	srv, reg := newTestServer(t, seedStore(t))
	get(t, srv.Handler(), "/api/spin")

	rec := get(t, srv.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deskspin_spins_total")

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestCategories(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))

	rec := get(t, srv.Handler(), "/api/categories")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[[]CategoryResponse](t, rec)
	require.Len(t, resp, 6)
	assert.Equal(t, "monitor", resp[0].Name)
	assert.Equal(t, 2, resp[0].Products)
	assert.Equal(t, "headphones", resp[5].Name)
	assert.Equal(t, 0, resp[5].Products)
}

func TestCategoryProducts(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))

	rec := get(t, srv.Handler(), "/api/categories/monitor/products")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[ProductsResponse](t, rec)
	require.Len(t, resp.Products, 2)
	assert.Equal(t, "Apple Studio Display", resp.Products[0].Name)

	rec = get(t, srv.Handler(), "/api/categories/desk/products")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[ProductsResponse](t, rec).Products)

	rec = get(t, srv.Handler(), "/api/categories/lamp/products")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProduct(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))

	tests := []struct {
		path   string
		status int
	}{
		{"/api/products/3", http.StatusOK},
		{"/api/products/99", http.StatusNotFound},
		{"/api/products/0", http.StatusBadRequest},
		{"/api/products/abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := get(t, srv.Handler(), tt.path)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	p := decode[catalog.Product](t, get(t, srv.Handler(), "/api/products/3"))
	assert.Equal(t, "Logitech MX Master 3S", p.Name)
}

type unavailableStore struct{}

func (unavailableStore) GetByID(context.Context, int64) (*catalog.Product, error) {
	return nil, fmt.Errorf("query: %w", dserrors.ErrUnavailable)
}

func (unavailableStore) ListByCategory(context.Context, string) ([]*catalog.Product, error) {
	return nil, fmt.Errorf("query: %w", dserrors.ErrUnavailable)
}

func (unavailableStore) ListCategories(context.Context) ([]catalog.Category, error) {
	return nil, fmt.Errorf("query: %w", dserrors.ErrUnavailable)
}

func TestStoreUnavailable(t *testing.T) {
	srv, _ := newTestServer(t, unavailableStore{})

	for _, path := range []string{"/api/spin", "/api/categories", "/api/products/1"} {
		t.Run(path, func(t *testing.T) {
			rec := get(t, srv.Handler(), path)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.Contains(t, rec.Body.String(), "unavailable")
		})
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))
	rec := get(t, srv.Handler(), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)

	srv, _ = newTestServer(t, seedStore(t), WithPinger(stubPinger{err: errors.New("refused")}))
	rec = get(t, srv.Handler(), "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", decode[HealthResponse](t, rec).Status)
}

func TestVersion(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))
	rec := get(t, srv.Handler(), "/version")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service_name":"deskspin"`)
}

func TestCORS(t *testing.T) {
	srv, _ := newTestServer(t, seedStore(t))

	req := httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Origin", "https://deskspin.example")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "https://deskspin.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/categories", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = 2
	cfg.RateLimitWindow = time.Minute
	srv := New(cfg, seedStore(t), WithMetrics(nil, prometheus.NewRegistry()))

	var codes []int
	for i := 0; i < 3; i++ {
		codes = append(codes, get(t, srv.Handler(), "/api/categories").Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// Health checks are outside the limited group.
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/healthz").Code)
}

func TestOnCatalogImported_FlushesCache(t *testing.T) {
	store := seedStore(t)
	srv, _ := newTestServer(t, store)

	before := decode[ProductsResponse](t, get(t, srv.Handler(), "/api/categories/monitor/products"))
	require.Len(t, before.Products, 2)

	require.NoError(t, store.ReplaceAll(context.Background(), []*catalog.Product{
		{Name: "LG UltraFine 5K", Category: "monitor", Count: 4},
	}, nil))

	cached := decode[ProductsResponse](t, get(t, srv.Handler(), "/api/categories/monitor/products"))
	assert.Len(t, cached.Products, 2, "served from cache until flushed")

	srv.OnCatalogImported(context.Background(), events.NewCatalogImportedEvent(events.CatalogImportedParams{Products: 1}))

	after := decode[ProductsResponse](t, get(t, srv.Handler(), "/api/categories/monitor/products"))
	require.Len(t, after.Products, 1)
	assert.Equal(t, "LG UltraFine 5K", after.Products[0].Name)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	srv := New(cfg, seedStore(t), WithMetrics(nil, prometheus.NewRegistry()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
