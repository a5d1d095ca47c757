// Package analyzer extracts what a shopper already told us in their first
// free-text query and works out which clarifying dimensions are missing.
package analyzer

// Dimension is one structured question category.
type Dimension string

const (
	DimensionUseCase  Dimension = "useCase"
	DimensionPriority Dimension = "priority"
	DimensionBudget   Dimension = "budget"
)

// Budget tier labels.
const (
	BudgetEconomico = "económico"
	BudgetMedio     = "medio"
	BudgetPremium   = "premium"
)

// UseCases is the closed use-case vocabulary.
var UseCases = []string{"fotos", "gaming", "trabajo", "básico", "redes sociales", "videos", "streaming"}

// Priorities is the closed priority vocabulary.
var Priorities = []string{"batería", "cámara", "rendimiento", "pantalla", "almacenamiento", "precio", "diseño", "durabilidad"}

// Detected holds fields explicitly present in the query. Empty means absent.
type Detected struct {
	Brand    string   `json:"brand,omitempty"`
	Model    string   `json:"model,omitempty"`
	UseCase  []string `json:"useCase"`
	Priority []string `json:"priority"`
	Budget   string   `json:"budget,omitempty"`
	Special  string   `json:"special,omitempty"`
}

// QueryAnalysis is the immutable result of analyzing one query.
type QueryAnalysis struct {
	Query      string      `json:"query"`
	Detected   Detected    `json:"detected"`
	Missing    []Dimension `json:"missing"`
	IsComplete bool        `json:"isComplete"`
	// Failed marks a fail-open analysis: nothing was extracted and every
	// dimension is asked.
	Failed bool `json:"failed,omitempty"`
}

// Evaluate applies the completeness rule. The analysis is complete when at
// least two of (brand or model), use case, priority and budget are present.
// Missing dimensions are listed budget, use case, priority.
//
// Any two signals suffice, so {brand, priority} is complete with no budget
// and no use case. Missing is still reported for such analyses; callers must
// not treat a non-empty Missing as incomplete.
func Evaluate(d Detected) ([]Dimension, bool) {
	signals := 0
	if d.Brand != "" || d.Model != "" {
		signals++
	}
	if len(d.UseCase) > 0 {
		signals++
	}
	if len(d.Priority) > 0 {
		signals++
	}
	if d.Budget != "" {
		signals++
	}

	missing := make([]Dimension, 0, 3)
	if d.Budget == "" {
		missing = append(missing, DimensionBudget)
	}
	if len(d.UseCase) == 0 {
		missing = append(missing, DimensionUseCase)
	}
	if len(d.Priority) == 0 {
		missing = append(missing, DimensionPriority)
	}
	return missing, signals >= 2
}

// AskAll is the fail-open analysis used when extraction failed.
func AskAll(query string) QueryAnalysis {
	return QueryAnalysis{
		Query:    query,
		Detected: Detected{UseCase: []string{}, Priority: []string{}},
		Missing:  []Dimension{DimensionBudget, DimensionUseCase, DimensionPriority},
		Failed:   true,
	}
}
