package toolcall

import (
	"fmt"

	"github.com/chaodoze/multimodal-live-api-web-console/internal/wire"
)

// Convention is the single permitted calling shape: one function name taking
// exactly one string parameter.
type Convention struct {
	Name  string
	Param string
}

// DefaultConvention matches the console's declared pdf_lookup tool.
var DefaultConvention = Convention{Name: "pdf_lookup", Param: "pdfUri"}

// Example renders the canonical call the model is steered back towards.
func (c Convention) Example() string {
	return fmt.Sprintf(`{"name": %q, "args": {%q: "files/abc123"}}`, c.Name, c.Param)
}

// CorrectiveText is the plain-language steering message sent back into the
// session when a turn or a call batch leaks programmatic syntax.
func (c Convention) CorrectiveText() string {
	return fmt.Sprintf(
		"Do not respond with executable code. To look up a document, issue a single %s function call with exactly one %q argument, for example: %s",
		c.Name, c.Param, c.Example(),
	)
}

// Declaration returns the tool schema advertised in the setup frame.
func (c Convention) Declaration(description string) wire.FunctionDeclaration {
	return wire.FunctionDeclaration{
		Name:        c.Name,
		Description: description,
		Parameters: &wire.Schema{
			Type: "object",
			Properties: map[string]*wire.Schema{
				c.Param: {
					Type:        "string",
					Description: "Resource id of the document to read, e.g. files/abc123",
				},
			},
			Required: []string{c.Param},
		},
	}
}
