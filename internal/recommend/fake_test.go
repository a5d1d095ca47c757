package recommend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/llm"
)

// catalogModel behaves like a cooperative model: it calls get_catalog and
// recommends the first devices it returns.
type catalogModel struct {
	mu       sync.Mutex
	calls    int
	requests []llm.Request
	// mutate, when set, edits the generated payload before it is returned.
	mutate func(req llm.Request, recs []map[string]any) []map[string]any
	fail   func(req llm.Request) error
	// sameForEveryRank ignores the requested rank and always picks the first
	// device offered.
	sameForEveryRank bool
}

func (m *catalogModel) Generate(ctx context.Context, req llm.Request) (llm.Response, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.fail != nil {
		if err := m.fail(req); err != nil {
			return llm.Response{}, err
		}
	}

	tool, ok := llm.FindTool(req.Tools, catalogToolName)
	if !ok {
		return llm.Response{}, errors.New("catalog tool missing")
	}
	raw, err := tool.Handler(ctx, json.RawMessage(`{}`))
	if err != nil {
		return llm.Response{}, err
	}
	var payload struct {
		Devices []catalogEntry `json:"devices"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return llm.Response{}, err
	}

	count := BatchSize
	if strings.HasSuffix(req.Schema.Name, "_1") {
		count = 1
	}
	offset := 0
	if count == 1 && !m.sameForEveryRank {
		offset = rankFromPrompt(req.System) - 1
	}
	recs := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		recs = append(recs, validRecommendation(payload.Devices[offset+i].ProductName))
	}
	if m.mutate != nil {
		recs = m.mutate(req, recs)
	}
	content, _ := json.Marshal(map[string]any{"recommendations": recs})
	return llm.Response{Content: content}, nil
}

func (m *catalogModel) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

func (m *catalogModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func rankFromPrompt(system string) int {
	for rank := MinRank; rank <= MaxRank; rank++ {
		if strings.Contains(system, fmt.Sprintf("opción %d del embudo", rank)) {
			return rank
		}
	}
	return 1
}

func validRecommendation(name string) map[string]any {
	return map[string]any{
		"productName":        name,
		"productDescription": "Un equipo que acompaña tu día sin complicaciones.",
		"price":              "$1",
		"qualityScore":       88,
		"availability":       "Disponible",
		"justification":      "Encaja con lo que buscas.",
		"imageUrl":           "https://example.com/made-up.png",
		"productUrl":         "https://example.com/made-up",
		"matchPercentage":    91,
		"matchTags": []map[string]any{
			{"tag": "Gran cámara", "level": "high"},
			{"tag": "Buen precio", "level": "medium"},
		},
	}
}

type failingModel struct {
	err error
	mu  sync.Mutex
	n   int
}

func (f *failingModel) Generate(context.Context, llm.Request) (llm.Response, error) {
	f.mu.Lock()
	f.n++
	f.mu.Unlock()
	return llm.Response{}, f.err
}

func (f *failingModel) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

type blockingModel struct {
	started chan struct{}
	once    sync.Once
}

func (b *blockingModel) Generate(ctx context.Context, _ llm.Request) (llm.Response, error) {
	b.once.Do(func() {
		if b.started != nil {
			close(b.started)
		}
	})
	<-ctx.Done()
	return llm.Response{}, ctx.Err()
}

type staticCatalog []catalog.Device

func (s staticCatalog) Devices() ([]catalog.Device, error) {
	return append([]catalog.Device(nil), s...), nil
}

type brokenCatalog struct{}

func (brokenCatalog) Devices() ([]catalog.Device, error) {
	return nil, catalog.ErrUnavailable
}

func embeddedCatalog(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Embedded()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	return store
}

func newGenerator(t *testing.T, primary, fallback llm.Client) *Generator {
	t.Helper()
	return &Generator{
		Catalog:  embeddedCatalog(t),
		Primary:  Provider{Name: "primary", Client: primary, Model: "model-a"},
		Fallback: Provider{Name: "fallback", Client: fallback, Model: "model-b"},
	}
}
