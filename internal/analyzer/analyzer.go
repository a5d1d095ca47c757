package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"shoppa-backend/internal/llm"
	"shoppa-backend/internal/shared/metrics"
	"shoppa-backend/internal/shared/telemetry"
	"shoppa-backend/internal/shared/util"
)

var (
	ErrEmptyQuery = errors.New("query is required")
	// ErrAnalysisFailed wraps provider errors and schema-invalid output.
	ErrAnalysisFailed = errors.New("query analysis failed")
)

const systemPrompt = `Eres un analizador de consultas para una tienda de smartphones en Latinoamérica.
Extrae SOLO la información que el usuario escribió explícitamente. Nunca infieras ni completes datos.
- brand: marca mencionada (ej. "Samsung", "Apple"); cadena vacía si no aparece.
- model: modelo mencionado (ej. "Galaxy S24", "iPhone 15"); cadena vacía si no aparece.
- useCase: usos mencionados, solo de esta lista: fotos, gaming, trabajo, básico, redes sociales, videos, streaming.
- priority: prioridades mencionadas, solo de esta lista: batería, cámara, rendimiento, pantalla, almacenamiento, precio, diseño, durabilidad.
- budget: "económico", "medio" o "premium" si el usuario describe su presupuesto; si da un monto concreto, cópialo literal (ej. "500 dólares"); cadena vacía si no lo menciona.
- special: necesidades especiales explícitas (ej. "resistente al agua", "para mi abuela"); cadena vacía si no hay.
Responde únicamente con el JSON del esquema.`

// extraction is the wire shape requested from the model. Every field is
// required in strict mode, so absence is an empty string or list.
type extraction struct {
	Brand    string   `json:"brand"`
	Model    string   `json:"model"`
	UseCase  []string `json:"useCase"`
	Priority []string `json:"priority"`
	Budget   string   `json:"budget"`
	Special  string   `json:"special"`
}

// Analyzer runs the single extraction call.
type Analyzer struct {
	LLM     llm.Client
	Timeout time.Duration
}

// New constructs an Analyzer.
func New(client llm.Client, timeout time.Duration) *Analyzer {
	return &Analyzer{LLM: client, Timeout: timeout}
}

// Analyze extracts fields from query. Completeness and missing dimensions are
// always computed locally from the normalized fields.
func (a *Analyzer) Analyze(ctx context.Context, query string) (QueryAnalysis, error) {
	query = util.CollapseSpace(query)
	if query == "" {
		return QueryAnalysis{}, ErrEmptyQuery
	}
	if a == nil || a.LLM == nil {
		return QueryAnalysis{}, fmt.Errorf("%w: no model configured", ErrAnalysisFailed)
	}
	if a.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.Timeout)
		defer cancel()
	}

	resp, err := a.LLM.Generate(ctx, llm.Request{
		System: systemPrompt,
		User:   "Consulta del usuario: " + query,
		Schema: llm.Schema{
			Name:        "query_analysis",
			Description: "Campos detectados explícitamente en la consulta",
			Definition:  extractionSchema,
		},
		Temperature: llm.Float(0),
	})
	if err != nil {
		return QueryAnalysis{}, fmt.Errorf("%w: %v", ErrAnalysisFailed, err)
	}

	var raw extraction
	dec := json.NewDecoder(bytes.NewReader(resp.Content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		return QueryAnalysis{}, fmt.Errorf("%w: schema violation: %v", ErrAnalysisFailed, err)
	}

	detected := normalize(raw)
	missing, complete := Evaluate(detected)
	return QueryAnalysis{
		Query:      query,
		Detected:   detected,
		Missing:    missing,
		IsComplete: complete,
	}, nil
}

// AnalyzeOrAskAll never fails on provider trouble: it degrades to asking every
// question. Only an empty query is rejected.
func (a *Analyzer) AnalyzeOrAskAll(ctx context.Context, query string) (QueryAnalysis, error) {
	analysis, err := a.Analyze(ctx, query)
	if err == nil {
		return analysis, nil
	}
	if errors.Is(err, ErrEmptyQuery) {
		return QueryAnalysis{}, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return QueryAnalysis{}, ctxErr
	}
	metrics.IncAnalysisFailed()
	telemetry.Warn("analysis.failed_open", map[string]any{
		"query_hash": util.HashKey(util.CollapseSpace(query)),
		"error":      err,
	})
	return AskAll(util.CollapseSpace(query)), nil
}

var extractionSchema = llm.SchemaFor[extraction]()

func normalize(raw extraction) Detected {
	return Detected{
		Brand:    cleanScalar(raw.Brand),
		Model:    cleanScalar(raw.Model),
		UseCase:  keepVocabulary(raw.UseCase, UseCases),
		Priority: keepVocabulary(raw.Priority, Priorities),
		Budget:   normalizeBudget(raw.Budget),
		Special:  cleanScalar(raw.Special),
	}
}

func cleanScalar(s string) string {
	s = util.CollapseSpace(s)
	switch util.Fold(s) {
	case "", "null", "none", "n/a", "ninguno", "ninguna", "no especificado":
		return ""
	}
	return s
}

// keepVocabulary maps values onto their canonical vocabulary spelling and
// drops anything outside it.
func keepVocabulary(values, vocabulary []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		folded := util.Fold(util.CollapseSpace(v))
		for _, term := range vocabulary {
			if util.Fold(term) == folded && !seen[term] {
				seen[term] = true
				out = append(out, term)
				break
			}
		}
	}
	return out
}

func normalizeBudget(raw string) string {
	b := cleanScalar(raw)
	if b == "" {
		return ""
	}
	switch util.Fold(b) {
	case "economico", "barato", "accesible", "bajo":
		return BudgetEconomico
	case "medio", "intermedio", "gama media":
		return BudgetMedio
	case "premium", "alto", "gama alta":
		return BudgetPremium
	}
	return strings.TrimSpace(b)
}
