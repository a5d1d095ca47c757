package recommend

import (
	"errors"
	"fmt"
)

const (
	// BatchSize is the number of options in a full search.
	BatchSize = 3
	MinRank   = 1
	MaxRank   = BatchSize
)

var (
	ErrEmptyProfile = errors.New("user profile is required")
	ErrInvalidRank  = errors.New("rank must be between 1 and 3")
	// ErrCatalogUnavailable is fatal for a request and never retried.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrGenerationFailed means every provider failed.
	ErrGenerationFailed = errors.New("recommendation generation failed")
	// ErrNoDistinctDevice means every candidate is already used by another rank.
	ErrNoDistinctDevice = errors.New("no distinct device left for rank")
	errNoProvider       = errors.New("provider not configured")
)

// SchemaError reports model output that does not satisfy the recommendation
// contract. It is retryable and never returned to callers on its own.
type SchemaError struct {
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("schema violation: %s: %v", e.Reason, e.Err)
	}
	return "schema violation: " + e.Reason
}

func (e *SchemaError) Unwrap() error { return e.Err }

type MatchTag struct {
	Tag   string `json:"tag" validate:"required"`
	Level string `json:"level" validate:"required,oneof=high medium low" jsonschema:"enum=high,enum=medium,enum=low"`
}

// Recommendation is the card contract consumed by the presentation layer.
type Recommendation struct {
	ProductName        string     `json:"productName" validate:"required"`
	ProductDescription string     `json:"productDescription" validate:"required"`
	Price              string     `json:"price" validate:"required"`
	QualityScore       int        `json:"qualityScore" validate:"min=70,max=98" jsonschema:"minimum=70,maximum=98"`
	Availability       string     `json:"availability" validate:"required"`
	Justification      string     `json:"justification" validate:"required"`
	ImageURL           string     `json:"imageUrl"`
	ProductURL         string     `json:"productUrl"`
	MatchPercentage    int        `json:"matchPercentage" validate:"min=65,max=98" jsonschema:"minimum=65,maximum=98"`
	MatchTags          []MatchTag `json:"matchTags" validate:"min=2,max=4,dive" jsonschema:"minItems=2,maxItems=4"`
}

// Result is a validated recommendation bound to a catalog device. PriceCents
// is the canonical price; Price is its display form.
type Result struct {
	Rank     int    `json:"rank"`
	DeviceID string `json:"deviceId"`
	Recommendation
	PriceCents int64 `json:"priceCents"`
}

// Outcome describes one successful generation.
type Outcome struct {
	Results      []Result `json:"recommendations"`
	Provider     string   `json:"provider"`
	Model        string   `json:"model"`
	FallbackUsed bool     `json:"fallbackUsed"`
	Candidates   int      `json:"candidates"`
}
