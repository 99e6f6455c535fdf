package toolbox

import (
	"context"
	"encoding/json"
)

// Args holds the arguments of a single tool invocation. Every value is a
// string; tools that need other types parse them themselves.
type Args map[string]string

// Handler executes a tool with the given arguments and returns a text result.
type Handler func(ctx context.Context, args Args) (string, error)

// Param describes one named tool parameter.
type Param struct {
	Name        string
	Description string
	Required    bool
}

// Descriptor is the backend-facing description of a tool.
type Descriptor struct {
	Name        string
	Description string
	Params      []Param
}

// JSONSchema renders the descriptor parameters as a JSON Schema object. Every
// parameter is typed "string" regardless of what the tool does with it.
func (d Descriptor) JSONSchema() json.RawMessage {
	props := make(map[string]any, len(d.Params))
	required := make([]string, 0, len(d.Params))

	for _, p := range d.Params {
		desc := p.Description
		if desc == "" {
			desc = "The " + p.Name + " parameter"
		}
		props[p.Name] = map[string]string{
			"type":        "string",
			"description": desc,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":       "object",
		"properties": props,
		"required":   required,
	}

	// Only maps of strings and slices; marshaling cannot fail.
	b, _ := json.Marshal(schema)

	return b
}

// Tool represents an executable tool with a name, description, parameters,
// and handler.
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Handler     Handler
}

// Descriptor returns the backend-facing description of the tool.
func (t Tool) Descriptor() Descriptor {
	params := make([]Param, len(t.Params))
	copy(params, t.Params)

	return Descriptor{Name: t.Name, Description: t.Description, Params: params}
}
