package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"shoppa-backend/internal/events"
)

func analyzeRouter(a *Analyzer, pub events.Publisher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(a, pub).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func postAnalyze(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeHandler(t *testing.T) {
	stub := &stubLLM{content: `{"brand":"Apple","model":"iPhone 15","useCase":["fotos"],"priority":[],"budget":"","special":""}`}
	rec := &events.Recorder{}
	r := analyzeRouter(New(stub, 0), rec)

	resp := postAnalyze(r, `{"query":"iphone 15 para fotos"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var got QueryAnalysis
	if err := json.Unmarshal(resp.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !got.IsComplete || got.Detected.Model != "iPhone 15" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if len(got.Missing) != 2 || got.Missing[0] != DimensionBudget || got.Missing[1] != DimensionPriority {
		t.Fatalf("missing = %v", got.Missing)
	}
	if types := rec.Types(); len(types) != 1 || types[0] != events.TypeSearchAnalyzed {
		t.Fatalf("events = %v", types)
	}
}

func TestAnalyzeHandlerFailsOpen(t *testing.T) {
	r := analyzeRouter(New(&stubLLM{err: errors.New("down")}, 0), nil)

	resp := postAnalyze(r, `{"query":"un celular"}`)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var got QueryAnalysis
	_ = json.Unmarshal(resp.Body.Bytes(), &got)
	if !got.Failed || len(got.Missing) != 3 {
		t.Fatalf("expected fail-open analysis, got %+v", got)
	}
}

func TestAnalyzeHandlerRejectsEmptyQuery(t *testing.T) {
	r := analyzeRouter(New(&stubLLM{}, 0), nil)
	for _, body := range []string{`{"query":""}`, `not json`} {
		if resp := postAnalyze(r, body); resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.Code)
		}
	}
}
