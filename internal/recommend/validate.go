package recommend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"shoppa-backend/internal/catalog"
	"shoppa-backend/internal/shared/util"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

type envelope struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// decode parses and validates raw model output for a task. Every accepted
// recommendation is rebound to the candidate device it names: product name,
// price and image come from the catalog, never from the model.
func decode(raw []byte, t task) ([]Result, error) {
	var env envelope
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&env); err != nil {
		return nil, &SchemaError{Reason: "invalid json", Err: err}
	}
	if len(env.Recommendations) != t.count {
		return nil, &SchemaError{Reason: fmt.Sprintf("expected %d recommendations, got %d", t.count, len(env.Recommendations))}
	}

	index := indexCandidates(t.candidates)
	seen := make(map[string]bool, t.count)
	results := make([]Result, 0, t.count)
	for i, rec := range env.Recommendations {
		if err := structValidator().Struct(rec); err != nil {
			return nil, &SchemaError{Reason: fmt.Sprintf("recommendation %d", i+1), Err: err}
		}
		device, ok := index[nameKey(rec.ProductName)]
		if !ok {
			return nil, &SchemaError{Reason: fmt.Sprintf("recommendation %d names %q which is not in the catalog", i+1, rec.ProductName)}
		}
		if seen[device.ID] {
			return nil, &SchemaError{Reason: fmt.Sprintf("recommendation %d repeats %q", i+1, device.Name())}
		}
		seen[device.ID] = true

		cents, _ := catalog.PriceCents(device.Price)
		rec.ProductName = device.Name()
		rec.Price = device.Price
		rec.ImageURL = device.ImageURL
		rec.ProductURL = ProductURL(device.ID)

		rank := i + 1
		if t.rank != 0 {
			rank = t.rank
		}
		results = append(results, Result{
			Rank:           rank,
			DeviceID:       device.ID,
			Recommendation: rec,
			PriceCents:     cents,
		})
	}
	return results, nil
}

// ProductURL is the storefront path of a device.
func ProductURL(id string) string {
	return "/productos/" + id
}

// indexCandidates keys devices by folded full name and by folded model.
// A model that collides across brands is only reachable by full name.
func indexCandidates(devices []catalog.Device) map[string]catalog.Device {
	index := make(map[string]catalog.Device, len(devices)*2)
	models := make(map[string]int, len(devices))
	for _, d := range devices {
		models[nameKey(d.Model)]++
	}
	for _, d := range devices {
		index[nameKey(d.Name())] = d
		if key := nameKey(d.Model); models[key] == 1 {
			if _, taken := index[key]; !taken {
				index[key] = d
			}
		}
	}
	return index
}

func nameKey(s string) string {
	return util.Fold(util.CollapseSpace(s))
}
