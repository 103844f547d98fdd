package persona

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

// schemaJSON constrains persona files. Every field is optional; unknown
// fields are rejected so typos do not silently fall back to defaults.
const schemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "identity":     {"type": "string"},
    "language":     {"type": "string"},
    "affiliation":  {"type": "string"},
    "location":     {"type": "string"},
    "style":        {"type": "array", "items": {"type": "string", "minLength": 1}},
    "personality":  {"type": "array", "items": {"type": "string", "minLength": 1}},
    "participants": {"type": "string"},
    "speaking_to":  {"type": "string"},
    "reply_length": {"type": "string", "pattern": "\\{budget\\}"},
    "ambient":      {"type": "string"},
    "apologies": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "rate_limit": {"type": "string"},
        "service":    {"type": "string"}
      }
    }
  }
}`

var schema = jsonschema.MustCompileString("persona.schema.json", schemaJSON)

// Load reads a persona YAML file. An empty path yields the default persona.
func Load(path string) (Persona, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Persona{}, fmt.Errorf("read persona file: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return Persona{}, err
	}
	slog.Info("persona loaded", "path", path, "style_directives", len(p.Style), "personality_directives", len(p.Personality))
	return p, nil
}

// Parse validates a YAML persona document against the schema, decodes it,
// and fills unset fields from Default.
func Parse(data []byte) (Persona, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Persona{}, fmt.Errorf("parse persona yaml: %w", err)
	}
	if doc == nil {
		return Default(), nil
	}

	// The validator expects JSON-shaped values (float64 numbers,
	// map[string]any objects); a JSON round trip normalizes the YAML tree.
	raw, err := json.Marshal(doc)
	if err != nil {
		return Persona{}, fmt.Errorf("convert persona yaml: %w", err)
	}
	var jsonDoc any
	if err := json.Unmarshal(raw, &jsonDoc); err != nil {
		return Persona{}, fmt.Errorf("convert persona yaml: %w", err)
	}
	if err := schema.Validate(jsonDoc); err != nil {
		return Persona{}, fmt.Errorf("invalid persona: %w", err)
	}

	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Persona{}, fmt.Errorf("decode persona: %w", err)
	}
	return p.withDefaults(), nil
}
