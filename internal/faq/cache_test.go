package faq

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func TestLookupBuiltIns(t *testing.T) {
	c := NewCache(nil)
	cases := []struct {
		text string
		ok   bool
	}{
		{text: "¿Qué tal la BATERÍA?", ok: true},
		{text: "quiero sacar fotos", ok: true},
		{text: "hola", ok: false},
		{text: "   ", ok: false},
	}
	for _, tc := range cases {
		answers, ok := c.Lookup(tc.text)
		if ok != tc.ok {
			t.Fatalf("%q: expected ok=%v, got %v", tc.text, tc.ok, ok)
		}
		if ok && len(answers) == 0 {
			t.Fatalf("%q: expected answers", tc.text)
		}
	}
}

func TestInsertExpiresButBuiltInsStay(t *testing.T) {
	clk := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCache(clk.now)
	base := c.Len()

	if err := c.Insert([]string{"Plegable"}, []string{"¿Cuántos pliegues soporta la bisagra?"}, time.Hour); err != nil {
		t.Fatalf("insert: %v", err)
	}
	answers, ok := c.Lookup("busco un plegable")
	if !ok || answers[0] != "¿Cuántos pliegues soporta la bisagra?" {
		t.Fatalf("expected inserted entry, got %v %v", answers, ok)
	}

	clk.advance(2 * time.Hour)
	if _, ok := c.Lookup("busco un plegable"); ok {
		t.Fatalf("expected entry to expire")
	}
	if c.Len() != base {
		t.Fatalf("expected %d live entries, got %d", base, c.Len())
	}
	if _, ok := c.Lookup("bateria"); !ok {
		t.Fatalf("built-in entry must survive")
	}
}

func TestInsertNewestWins(t *testing.T) {
	c := NewCache(nil)
	if err := c.Insert([]string{"bateria"}, []string{"¿Dura dos días?"}, 0); err != nil {
		t.Fatalf("insert: %v", err)
	}
	answers, ok := c.Lookup("bateria")
	if !ok || len(answers) != 1 || answers[0] != "¿Dura dos días?" {
		t.Fatalf("expected newest entry, got %v", answers)
	}
}

func TestInsertEvictsOldestDynamicOnly(t *testing.T) {
	c := NewCache(nil)
	c.maxEntries = 2
	base := c.Len()

	for _, p := range []string{"uno", "dos", "tres"} {
		if err := c.Insert([]string{p}, []string{p}, 0); err != nil {
			t.Fatalf("insert %s: %v", p, err)
		}
	}
	if c.Len() != base+2 {
		t.Fatalf("expected %d entries, got %d", base+2, c.Len())
	}
	if _, ok := c.Lookup("uno"); ok {
		t.Fatalf("oldest dynamic entry should be evicted")
	}
	if _, ok := c.Lookup("camara"); !ok {
		t.Fatalf("built-in entry evicted")
	}
}

func TestInsertRejectsEmpty(t *testing.T) {
	c := NewCache(nil)
	if err := c.Insert([]string{" "}, []string{"x"}, 0); !errors.Is(err, ErrEmptyEntry) {
		t.Fatalf("expected ErrEmptyEntry, got %v", err)
	}
	if err := c.Insert([]string{"x"}, nil, 0); !errors.Is(err, ErrEmptyEntry) {
		t.Fatalf("expected ErrEmptyEntry, got %v", err)
	}
}

func TestLookupReturnsCopies(t *testing.T) {
	c := NewCache(nil)
	a, _ := c.Lookup("bateria")
	a[0] = "mutated"
	b, _ := c.Lookup("bateria")
	if b[0] == "mutated" {
		t.Fatalf("lookup aliases cache storage")
	}
}

func TestHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewCache(nil)).RegisterRoutes(r.Group("/api/v1"))

	cases := []struct {
		path   string
		status int
	}{
		{path: "/api/v1/faq?q=camara", status: http.StatusOK},
		{path: "/api/v1/faq?q=hola", status: http.StatusNotFound},
		{path: "/api/v1/faq", status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.status {
			t.Fatalf("%s: expected %d, got %d", tc.path, tc.status, rec.Code)
		}
	}
}
