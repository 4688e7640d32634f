package gemini

import (
	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

// toSchema converts a reflected JSON schema to the Gemini OpenAPI subset.
// Property order follows Required so the model emits fields in declaration order.
func toSchema(d jsonschema.Definition) *genai.Schema {
	s := &genai.Schema{
		Description: d.Description,
		Enum:        d.Enum,
	}
	switch d.Type {
	case jsonschema.Object:
		s.Type = genai.TypeObject
	case jsonschema.Array:
		s.Type = genai.TypeArray
	case jsonschema.Integer:
		s.Type = genai.TypeInteger
	case jsonschema.Number:
		s.Type = genai.TypeNumber
	case jsonschema.Boolean:
		s.Type = genai.TypeBoolean
	default:
		s.Type = genai.TypeString
	}

	if d.Items != nil {
		s.Items = toSchema(*d.Items)
	}
	if len(d.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(d.Properties))
		for name, prop := range d.Properties {
			s.Properties[name] = toSchema(prop)
		}
		s.Required = append([]string(nil), d.Required...)
		s.PropertyOrdering = append([]string(nil), d.Required...)
	}
	return s
}
