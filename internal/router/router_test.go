package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/iliyamo/travel-booking/internal/clock"
	"github.com/iliyamo/travel-booking/internal/config"
	"github.com/iliyamo/travel-booking/internal/handler"
	"github.com/iliyamo/travel-booking/internal/repository/boltstore"
	"github.com/iliyamo/travel-booking/internal/service"
	"github.com/iliyamo/travel-booking/internal/utils"
)

const secret = "router-secret"

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	return newTestServerWith(t, Options{
		Cache:     config.CacheConfig{Enabled: true},
		RateLimit: config.RateLimitConfig{Enabled: true},
	})
}

// newTestServerWith fills in the secret and logger of opts.
func newTestServerWith(t *testing.T, opts Options) http.Handler {
	t.Helper()
	log := zaptest.NewLogger(t)
	store, err := boltstore.New(filepath.Join(t.TempDir(), "router.db"))
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clk := clock.NewSystem()
	locks := service.NewKeyedLocker()
	inv := service.NewInventoryService(store, store, locks)
	pricing := service.NewPricingService(store, store, service.NewMemoryFreezeStore(clk), locks, clk)
	ledger := service.NewLedger(store, clk)

	h := Handlers{
		Health:       handler.NewHealthHandler(nil),
		Bookings:     handler.NewBookingHandler(service.NewReservationService(inv, pricing, ledger, nil, clk, log), ledger, log),
		Cancellation: handler.NewCancellationHandler(service.NewCancellationService(ledger, inv, locks, nil, clk), ledger, log),
		Pricing:      handler.NewPricingHandler(pricing, log),
		Selection:    handler.NewSelectionHandler(inv, log),
		Catalog:      handler.NewCatalogHandler(service.NewCatalogService(store, log), log),
	}
	opts.JWTSecret = secret
	opts.Log = log
	return New(h, opts)
}

func bearer(t *testing.T, sub, role string) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, sub, role, time.Hour)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + tok.Token
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t)
	catalogBody := `{"itemId":"AI1","itemType":"flight","name":"AI1","basePrice":300,"totalCount":10}`

	cases := []struct {
		name   string
		method string
		path   string
		auth   string
		body   string
		want   int
	}{
		{"health is public", http.MethodGet, "/healthz", "", "", http.StatusOK},
		{"metrics is public", http.MethodGet, "/metrics", "", "", http.StatusOK},
		{"bookings need a token", http.MethodGet, "/v1/bookings/owner/u1", "", "", http.StatusUnauthorized},
		{"unknown role is rejected", http.MethodGet, "/v1/bookings/owner/u1", bearer(t, "u1", "GUEST"), "", http.StatusForbidden},
		{"traveler lists own bookings", http.MethodGet, "/v1/bookings/owner/u1", bearer(t, "u1", "TRAVELER"), "", http.StatusOK},
		{"traveler cannot manage catalog", http.MethodPost, "/v1/admin/catalog", bearer(t, "u1", "TRAVELER"), catalogBody, http.StatusForbidden},
		{"admin manages catalog", http.MethodPost, "/v1/admin/catalog", bearer(t, "root", "ADMIN"), catalogBody, http.StatusOK},
		{"catalog read", http.MethodGet, "/v1/catalog/flight/AI1", bearer(t, "u1", "TRAVELER"), "", http.StatusOK},
		{"catalog list", http.MethodGet, "/v1/catalog/flight", bearer(t, "u1", "TRAVELER"), "", http.StatusOK},
		{"seat map", http.MethodGet, "/v1/seat-selection/flight/AI1", bearer(t, "u1", "TRAVELER"), "", http.StatusOK},
		{"unknown route", http.MethodGet, "/v1/nope", bearer(t, "u1", "TRAVELER"), "", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			if tc.auth != "" {
				req.Header.Set("Authorization", tc.auth)
			}
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

// Needs a live Redis at REDIS_ADDR; skipped otherwise.
func TestInsightsBypassResponseCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := config.NewRedisClient(config.RedisConfig{Addr: addr})
	if rdb == nil {
		t.Skipf("redis at %s unavailable", addr)
	}
	t.Cleanup(func() { rdb.Close() })

	srv := newTestServerWith(t, Options{
		Redis: rdb,
		Cache: config.CacheConfig{
			Enabled:      true,
			Methods:      map[string]bool{http.MethodGet: true},
			TTL:          time.Minute,
			KeyStrategy:  "path_query",
			Prefix:       fmt.Sprintf("routertest:%d", time.Now().UnixNano()),
			MaxBodyBytes: 1 << 20,
		},
	})
	tok := bearer(t, "u1", "TRAVELER")
	call := func(method, path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", tok)
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s %s: expected 200, got %d: %s", method, path, rec.Code, rec.Body.String())
		}
		return rec
	}
	points := func() int {
		var out struct {
			History []json.RawMessage `json:"priceHistory"`
		}
		if err := json.Unmarshal(call(http.MethodGet, "/v1/pricing/insights/H1/hotel", "").Body.Bytes(), &out); err != nil {
			t.Fatalf("decode insights: %v", err)
		}
		return len(out.History)
	}

	calc := `{"itemId":"H1","itemType":"hotel","travelDate":"2030-07-01"}`
	call(http.MethodPost, "/v1/pricing/calculate", calc)
	if n := points(); n != 1 {
		t.Fatalf("expected 1 point, got %d", n)
	}
	call(http.MethodPost, "/v1/pricing/calculate", calc)
	if n := points(); n != 2 {
		t.Fatalf("expected insights to see the new point at once, got %d points", n)
	}
}
