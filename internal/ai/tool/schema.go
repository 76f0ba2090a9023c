package tool

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validate checks parameters against t's declared JSON schema, so a
// malformed LLM tool call is rejected with a descriptive error before it
// ever reaches Run. A tool with no schema (nil or empty map) always
// passes.
func Validate(t Tool, parameters map[string]any) error {
	schema := t.Schema()
	if len(schema) == 0 {
		return nil
	}

	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("tool: marshaling schema for %q: %w", t.Name(), err)
	}
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
	if err != nil {
		return fmt.Errorf("tool: parsing schema for %q: %w", t.Name(), err)
	}

	compiler := jsonschema.NewCompiler()
	resourceURL := "mem://onyx/tool/" + t.Name()
	if err := compiler.AddResource(resourceURL, schemaDoc); err != nil {
		return fmt.Errorf("tool: compiling schema for %q: %w", t.Name(), err)
	}
	compiled, err := compiler.Compile(resourceURL)
	if err != nil {
		return fmt.Errorf("tool: compiling schema for %q: %w", t.Name(), err)
	}

	paramBytes, err := json.Marshal(parameters)
	if err != nil {
		return fmt.Errorf("tool: marshaling arguments for %q: %w", t.Name(), err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(paramBytes))
	if err != nil {
		return fmt.Errorf("tool: parsing arguments for %q: %w", t.Name(), err)
	}

	if err := compiled.Validate(instance); err != nil {
		return fmt.Errorf("tool: %q arguments invalid: %w", t.Name(), err)
	}
	return nil
}
