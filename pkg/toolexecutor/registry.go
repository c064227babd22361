package toolexecutor

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Descriptor is the advertised form of a tool
type Descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type entry struct {
	tool       Tool
	descriptor Descriptor
	schema     *gojsonschema.Schema
}

// Registry is the closed, ordered set of tools. It cannot change after
// construction.
type Registry struct {
	entries []entry
	index   map[string]int
}

// NewRegistry validates and registers tools in the given order
func NewRegistry(tools ...Tool) (*Registry, error) {
	r := &Registry{index: make(map[string]int, len(tools))}

	for _, tool := range tools {
		if err := validateTool(tool); err != nil {
			return nil, err
		}
		name := tool.Name()
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("tool %s already registered", name)
		}

		schemaMap := generateSchemaMap(tool.Parameters())
		schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schemaMap))
		if err != nil {
			return nil, fmt.Errorf("failed to generate schema for %s: %w", name, err)
		}

		r.index[name] = len(r.entries)
		r.entries = append(r.entries, entry{
			tool: tool,
			descriptor: Descriptor{
				Name:        name,
				Description: tool.Description(),
				InputSchema: schemaMap,
			},
			schema: schema,
		})

		log.Debug().Str("tool", name).Msg("Tool registered")
	}

	return r, nil
}

// Lookup returns the tool registered under name
func (r *Registry) Lookup(name string) (Tool, bool) {
	i, ok := r.index[name]
	if !ok {
		return nil, false
	}
	return r.entries[i].tool, true
}

// List returns descriptors in registration order
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.descriptor
	}
	return out
}

// Len returns the number of registered tools
func (r *Registry) Len() int {
	return len(r.entries)
}

// Validate checks args against the schema of the named tool
func (r *Registry) Validate(name string, args map[string]interface{}) error {
	i, ok := r.index[name]
	if !ok {
		return fmt.Errorf("unknown tool: %s", name)
	}
	return validateParameters(r.entries[i].schema, args)
}

// validateTool validates a tool definition
func validateTool(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool cannot be nil")
	}
	if tool.Name() == "" {
		return fmt.Errorf("tool name cannot be empty")
	}
	if tool.Description() == "" {
		return fmt.Errorf("tool description cannot be empty for %s", tool.Name())
	}

	validTypes := map[string]bool{
		"string": true, "number": true, "boolean": true,
		"object": true, "array": true, "integer": true,
	}
	seen := map[string]bool{}
	for _, param := range tool.Parameters() {
		if param.Name == "" {
			return fmt.Errorf("parameter name cannot be empty for %s", tool.Name())
		}
		if param.Description == "" {
			return fmt.Errorf("parameter description cannot be empty for %s", param.Name)
		}
		if !validTypes[param.Type] {
			return fmt.Errorf("invalid parameter type %q for %s", param.Type, param.Name)
		}
		if seen[param.Name] {
			return fmt.Errorf("duplicate parameter %s for %s", param.Name, tool.Name())
		}
		seen[param.Name] = true
	}

	return nil
}

// generateSchemaMap builds the JSON Schema of a parameter list. Extra
// properties are allowed so session arguments can accompany any tool.
func generateSchemaMap(params []ToolParameter) map[string]interface{} {
	properties := make(map[string]interface{}, len(params))
	required := []string{}

	for _, param := range params {
		paramSchema := map[string]interface{}{
			"type":        param.Type,
			"description": param.Description,
		}
		if param.Default != nil {
			paramSchema["default"] = param.Default
		}
		properties[param.Name] = paramSchema

		if param.Required {
			required = append(required, param.Name)
		}
	}

	schemaMap := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schemaMap["required"] = required
	}
	return schemaMap
}

// validateParameters validates parameters against a JSON Schema
func validateParameters(schema *gojsonschema.Schema, params map[string]interface{}) error {
	if schema == nil {
		return nil
	}
	if params == nil {
		params = map[string]interface{}{}
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(params))
	if err != nil {
		return err
	}

	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
		}
		return fmt.Errorf("invalid arguments: %s", strings.Join(errs, "; "))
	}

	return nil
}
