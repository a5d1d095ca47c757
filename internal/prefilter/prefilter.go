// Package prefilter narrows the catalog handed to the recommendation model.
package prefilter

import (
	"strings"

	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/shared/util"
)

const (
	// MaxCandidates caps every result.
	MaxCandidates = 15
	// MinCandidates is the floor below which filtering is discarded.
	MinCandidates = 5

	budgetCeiling = 600
	premiumFloor  = 800
)

var (
	brandKeywords   = []string{"iphone", "samsung", "xiaomi", "motorola", "google", "pixel"}
	budgetKeywords  = []string{"economico", "barato", "accesible"}
	premiumKeywords = []string{"premium", "mejor", "gama alta"}
)

// Signals is what the profile text asked for.
type Signals struct {
	Brands  []string
	Budget  bool
	Premium bool
}

// Detect scans the profile text. Budget wins over premium when both appear.
func Detect(profile string) Signals {
	text := util.Fold(profile)
	var s Signals
	for _, b := range brandKeywords {
		if strings.Contains(text, b) {
			s.Brands = append(s.Brands, b)
		}
	}
	s.Budget = containsAny(text, budgetKeywords)
	s.Premium = !s.Budget && containsAny(text, premiumKeywords)
	return s
}

// Filter returns a fresh slice of at most MaxCandidates devices. When the
// heuristics leave fewer than MinCandidates, the first MaxCandidates devices
// are returned unfiltered. The input is never modified.
func Filter(profile string, devices []catalog.Device) []catalog.Device {
	s := Detect(profile)

	filtered := make([]catalog.Device, 0, len(devices))
	for _, d := range devices {
		if s.keep(d) {
			filtered = append(filtered, d)
		}
	}
	if len(filtered) < MinCandidates {
		filtered = devices
	}
	if len(filtered) > MaxCandidates {
		filtered = filtered[:MaxCandidates]
	}
	return catalog.CloneAll(filtered)
}

func (s Signals) keep(d catalog.Device) bool {
	if len(s.Brands) > 0 {
		name := util.Fold(d.Name())
		if !containsAny(name, s.Brands) {
			return false
		}
	}
	if !s.Budget && !s.Premium {
		return true
	}
	price, ok := d.NumericPrice()
	if !ok {
		return false
	}
	if s.Budget {
		return price < budgetCeiling
	}
	return price > premiumFloor
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
