package catalog

import "github.com/orderdesk/orderdesk/internal/openai"

// FunctionDeclaration converts a tool descriptor into the model-facing
// function declaration. Name and description map straight through; the input
// schema's type, properties and required list are copied verbatim. A
// descriptor without a schema becomes a zero-argument callable.
func FunctionDeclaration(d Descriptor) openai.Function {
	return openai.Function{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  parameters(d.InputSchema),
	}
}

// FunctionDeclarations translates a whole catalog.
func FunctionDeclarations(tools []Descriptor) []openai.Function {
	fns := make([]openai.Function, 0, len(tools))
	for _, t := range tools {
		fns = append(fns, FunctionDeclaration(t))
	}
	return fns
}

func parameters(s *InputSchema) openai.Parameters {
	if s == nil {
		return openai.Parameters{
			Type:       "object",
			Properties: map[string]any{},
			Required:   []string{},
		}
	}

	p := openai.Parameters{
		Type:       s.Type,
		Properties: s.Properties,
		Required:   s.Required,
	}
	if p.Type == "" {
		p.Type = "object"
	}
	if p.Properties == nil {
		p.Properties = map[string]any{}
	}
	if p.Required == nil {
		p.Required = []string{}
	}
	return p
}
