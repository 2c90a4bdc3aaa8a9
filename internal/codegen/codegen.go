// Package codegen names the code-generation collaborator that consumes a
// parsed grammar. Generating parser source from a model.Grammar is out of
// this module's scope; this interface is the seam a future generator
// would implement, so callers can depend on it without reaching into
// internal/model's traversal helpers themselves.
package codegen

import "github.com/ritamzico/parsekit/internal/model"

// Generator turns a validated grammar into generated source for some
// target language or runtime. No implementation ships with this module.
type Generator interface {
	Generate(g *model.Grammar) ([]byte, error)
}
