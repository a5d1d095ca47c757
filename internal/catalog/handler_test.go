package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func catalogRouter(t *testing.T, store *Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(store).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestCatalogHandlerList(t *testing.T) {
	store, err := Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	r := catalogRouter(t, store)

	cases := []struct {
		name  string
		path  string
		count int
	}{
		{name: "all", path: "/api/v1/catalog", count: store.Len()},
		{name: "brand filter", path: "/api/v1/catalog?brand=APPLE", count: countBrand(store, "Apple")},
		{name: "unknown brand", path: "/api/v1/catalog?brand=nokia", count: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", rec.Code)
			}
			var body struct {
				Items []struct {
					ID         string `json:"id"`
					PriceCents int64  `json:"priceCents"`
				} `json:"items"`
				Count int `json:"count"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Count != tc.count || len(body.Items) != tc.count {
				t.Fatalf("expected %d items, got count=%d len=%d", tc.count, body.Count, len(body.Items))
			}
			for _, it := range body.Items {
				if it.PriceCents <= 0 {
					t.Fatalf("device %s has no priceCents", it.ID)
				}
			}
		})
	}
}

func TestCatalogHandlerGet(t *testing.T) {
	store, err := Embedded()
	if err != nil {
		t.Fatalf("embedded: %v", err)
	}
	r := catalogRouter(t, store)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/iphone-15-128", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var d struct {
		Model      string `json:"model"`
		PriceCents int64  `json:"priceCents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Model != "iPhone 15" || d.PriceCents != 79900 {
		t.Fatalf("unexpected device: %+v", d)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCatalogHandlerUnavailable(t *testing.T) {
	r := catalogRouter(t, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/catalog", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func countBrand(s *Store, brand string) int {
	devices, _ := s.Devices()
	n := 0
	for _, d := range devices {
		if d.Brand == brand {
			n++
		}
	}
	return n
}
