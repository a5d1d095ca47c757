package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/searches"
	"shoppa-backend/internal/shared/server/middleware"
)

func newTestRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Identity())
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Guest-Id", "guest-1")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerGeneratePersistsSearch(t *testing.T) {
	svc := searches.NewService(searches.NewMemoryRepo())
	h := NewHandler(newGenerator(t, &catalogModel{}, &failingModel{err: errors.New("unused")}), svc)
	r := newTestRouter(h)

	rec := postJSON(t, r, "/api/v1/recommendations", map[string]string{"profile": "busco un samsung", "query": "samsung"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp generateResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Recommendations) != BatchSize || resp.SearchID == "" || resp.Provider != "primary" {
		t.Fatalf("unexpected response: %+v", resp)
	}

	saved, err := svc.Get(context.Background(), "guest:guest-1", resp.SearchID)
	if err != nil {
		t.Fatalf("search not persisted: %v", err)
	}
	if saved.Query != "samsung" || saved.Profile != "busco un samsung" {
		t.Fatalf("unexpected saved search: %+v", saved)
	}
}

func TestHandlerErrorMapping(t *testing.T) {
	ok := newGenerator(t, &catalogModel{}, &failingModel{err: errors.New("unused")})
	broken := newGenerator(t, &failingModel{err: errors.New("a")}, &failingModel{err: errors.New("b")})
	noCatalog := newGenerator(t, &catalogModel{}, &catalogModel{})
	noCatalog.Catalog = brokenCatalog{}

	tests := []struct {
		name   string
		gen    *Generator
		path   string
		body   any
		status int
		code   string
	}{
		{name: "empty profile", gen: ok, path: "/api/v1/recommendations", body: map[string]string{"profile": "  "}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "bad body", gen: ok, path: "/api/v1/recommendations", body: []int{1}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "both providers fail", gen: broken, path: "/api/v1/recommendations", body: map[string]string{"profile": "x"}, status: http.StatusBadGateway, code: "generation_failed"},
		{name: "catalog unavailable", gen: noCatalog, path: "/api/v1/recommendations", body: map[string]string{"profile": "x"}, status: http.StatusServiceUnavailable, code: "catalog_unavailable"},
		{name: "invalid rank", gen: ok, path: "/api/v1/recommendations/rank/4", body: map[string]string{"profile": "x"}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "non numeric rank", gen: ok, path: "/api/v1/recommendations/rank/two", body: map[string]string{"profile": "x"}, status: http.StatusBadRequest, code: "validation_error"},
		{name: "stream empty profile", gen: ok, path: "/api/v1/recommendations/stream", body: map[string]string{"profile": ""}, status: http.StatusBadRequest, code: "validation_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(NewHandler(tt.gen, nil))
			rec := postJSON(t, r, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			var body struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Fatalf("expected code %s, got %s", tt.code, body.Error.Code)
			}
			if tt.code == "generation_failed" && body.Error.Message != failureMessage {
				t.Fatalf("unexpected message %q", body.Error.Message)
			}
		})
	}
}

func TestHandlerGenerateAt(t *testing.T) {
	r := newTestRouter(NewHandler(newGenerator(t, &catalogModel{}, &failingModel{err: errors.New("unused")}), nil))

	rec := postJSON(t, r, "/api/v1/recommendations/rank/3", map[string]string{"profile": "busco un samsung"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Recommendation Result `json:"recommendation"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Recommendation.Rank != 3 || resp.Recommendation.DeviceID != "galaxy-a55" {
		t.Fatalf("unexpected recommendation: %+v", resp.Recommendation)
	}
}

func streamBody(t *testing.T, gen *Generator, profile string) string {
	t.Helper()
	srv := httptest.NewServer(newTestRouter(NewHandler(gen, nil)))
	defer srv.Close()

	raw, _ := json.Marshal(map[string]string{"profile": profile})
	resp, err := http.Post(srv.URL+"/api/v1/recommendations/stream", "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("unexpected content type %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(body)
}

func TestHandlerStreamEmitsEachRankThenDone(t *testing.T) {
	body := streamBody(t, newGenerator(t, &catalogModel{}, &failingModel{err: errors.New("unused")}), "busco un samsung")

	if n := strings.Count(body, "event:recommendation"); n != BatchSize {
		t.Fatalf("expected %d recommendation events, got %d:\n%s", BatchSize, n, body)
	}
	if !strings.Contains(body, "event:done") || strings.Contains(body, "event:error") {
		t.Fatalf("expected a final done event:\n%s", body)
	}
}

func TestHandlerStreamReportsFailure(t *testing.T) {
	broken := newGenerator(t, &failingModel{err: errors.New("a")}, &failingModel{err: errors.New("b")})
	body := streamBody(t, broken, "busco un samsung")

	if strings.Contains(body, "event:recommendation") || strings.Contains(body, "event:done") {
		t.Fatalf("unexpected events:\n%s", body)
	}
	if !strings.Contains(body, "event:error") || !strings.Contains(body, "generation_failed") {
		t.Fatalf("expected an error event:\n%s", body)
	}
}
