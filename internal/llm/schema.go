package llm

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor reflects a strict JSON schema from T. Fields without omitempty are
// required and additional properties are rejected, which is what
// strict structured-output modes expect.
func SchemaFor[T any]() map[string]any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		ExpandedStruct:            true,
	}
	var v T
	return toMap(reflector.Reflect(v))
}

// ArrayOf wraps an item schema into an object holding exactly n items under key.
func ArrayOf(key string, item map[string]any, n int) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{key},
		"properties": map[string]any{
			key: map[string]any{
				"type":     "array",
				"items":    item,
				"minItems": n,
				"maxItems": n,
			},
		},
	}
}

func toMap(schema *jsonschema.Schema) map[string]any {
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}
