package llm

import "testing"

type sampleTag struct {
	Tag   string `json:"tag"`
	Level string `json:"level" jsonschema:"enum=high,enum=medium,enum=low"`
}

type sample struct {
	Name  string      `json:"name"`
	Score int         `json:"score" jsonschema:"minimum=70,maximum=98"`
	Tags  []sampleTag `json:"tags" jsonschema:"minItems=2,maxItems=4"`
}

func TestSchemaForIsStrict(t *testing.T) {
	schema := SchemaFor[sample]()
	if _, ok := schema["$schema"]; ok {
		t.Fatalf("expected $schema to be stripped")
	}
	if schema["type"] != "object" {
		t.Fatalf("type = %v", schema["type"])
	}
	if schema["additionalProperties"] != false {
		t.Fatalf("additionalProperties = %v", schema["additionalProperties"])
	}
	required, ok := schema["required"].([]any)
	if !ok || len(required) != 3 {
		t.Fatalf("required = %v", schema["required"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("properties missing")
	}
	score := props["score"].(map[string]any)
	if score["minimum"] != float64(70) || score["maximum"] != float64(98) {
		t.Fatalf("score bounds = %v", score)
	}
	tags := props["tags"].(map[string]any)
	if tags["minItems"] != float64(2) || tags["maxItems"] != float64(4) {
		t.Fatalf("tags bounds = %v", tags)
	}
}

func TestArrayOf(t *testing.T) {
	item := map[string]any{"type": "object"}
	schema := ArrayOf("recommendations", item, 3)
	props := schema["properties"].(map[string]any)
	arr := props["recommendations"].(map[string]any)
	if arr["minItems"] != 3 || arr["maxItems"] != 3 {
		t.Fatalf("array bounds = %v", arr)
	}
}

func TestFindTool(t *testing.T) {
	tools := []Tool{{Name: "get_catalog"}}
	if _, ok := FindTool(tools, "get_catalog"); !ok {
		t.Fatalf("expected tool to be found")
	}
	if _, ok := FindTool(tools, "other"); ok {
		t.Fatalf("expected unknown tool to be missing")
	}
}
