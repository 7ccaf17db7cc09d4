package frontend

import (
	"fmt"
	"io"

	"tinypy.dev/x86backend/pkg/ast"
	"tinypy.dev/x86backend/pkg/tempname"
)

// SourceParser is the three-stage entry point (text → tokens → surface AST
// → desugared AST), shaped after pkg/vm.Parser / pkg/jack.Parser's own
// `reader in, Module out` entry point.
type SourceParser struct {
	reader io.Reader
	names  *tempname.Context
}

// NewSourceParser returns a SourceParser reading from r. names is the same
// arena the rest of the pipeline (pkg/explicate, pkg/flatten, pkg/regalloc)
// will draw temporaries from, so And/Or/List/Dict desugaring never collides with a
// later pass's own allocations.
func NewSourceParser(r io.Reader, names *tempname.Context) *SourceParser {
	return &SourceParser{reader: r, names: names}
}

// Parse reads the source from the wrapped reader and returns the fully
// desugared *ast.Module ready for pkg/explicate.
func (sp *SourceParser) Parse() (*ast.Module, error) {
	content, err := io.ReadAll(sp.reader)
	if err != nil {
		return nil, fmt.Errorf("frontend: cannot read source: %w", err)
	}

	toks, err := NewLexer(string(content)).Lex()
	if err != nil {
		return nil, err
	}

	surface, err := NewParser(toks).ParseModule()
	if err != nil {
		return nil, err
	}

	return NewDesugarer(sp.names).Desugar(surface)
}
