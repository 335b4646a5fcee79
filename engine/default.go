package engine

import (
	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/term"
)

// DefaultEngine is the ambient Engine the package-level convenience
// functions below operate on. Package-level access is kept for ergonomic
// embedding, but it's just sugar over an ordinary *Engine any caller can
// also construct directly.
var DefaultEngine = New()

// Compile loads source into DefaultEngine.
func Compile(source string) error { return DefaultEngine.Compile(source) }

// CompileFile loads a file into DefaultEngine.
func CompileFile(path string) error { return DefaultEngine.CompileFile(path) }

// Run executes a query against DefaultEngine and reports first-solution
// success.
func Run(query string) (bool, error) { return DefaultEngine.Run(query) }

// Query starts an iterable query against DefaultEngine.
func Query(query string) (*Solutions, error) { return DefaultEngine.Query(query) }

// DefineGlobal creates or overwrites a global on DefaultEngine.
func DefineGlobal(name string, v cell.Value) { DefaultEngine.DefineGlobal(name, v) }

// Find reads a global from DefaultEngine.
func Find(name string) (cell.Value, bool) { return DefaultEngine.Find(name) }

// DefineTable creates a table predicate on DefaultEngine.
func DefineTable(pi term.Indicator) { DefaultEngine.DefineTable(pi) }

// LoadTable populates a table predicate on DefaultEngine from a file.
func LoadTable(pi term.Indicator, path string) error {
	return DefaultEngine.LoadTable(pi, path)
}

// Listing pretty-prints one predicate's compiled clauses from DefaultEngine.
func Listing(pi term.Indicator) string { return DefaultEngine.Listing(pi) }
