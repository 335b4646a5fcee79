package engine

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/rzubek/botl/cell"
	"github.com/rzubek/botl/compiler"
	"github.com/rzubek/botl/machine"
	"github.com/rzubek/botl/parser"
	"github.com/rzubek/botl/store"
	"github.com/rzubek/botl/term"
)

// Engine bundles a Store, a Compiler writing into it, and the ambient
// configuration needed to run queries against it. State that a
// process-wide implementation would keep global instead lives per Engine,
// with DefaultEngine as the ambient instance for package-level convenience
// functions.
type Engine struct {
	Store    *store.Store
	Compiler *compiler.Compiler

	// StepLimit bounds each query's CCall/CLastCall count; 0 is unbounded.
	// Applied to the machine.Machine created by every Query call.
	StepLimit int
	// Host is installed on every query's machine, if set, giving the F-VM
	// access to host-object reflection.
	Host machine.HostInterop

	pendingTrace []string
	lastErr      string
}

// New returns an Engine with an empty Store and no configuration.
func New() *Engine {
	s := store.New()
	compiler.Bootstrap(s)
	c := compiler.New(s)
	e := &Engine{Store: s, Compiler: c}
	c.OnRequire = e.requireFile
	c.OnReport = func(text string) { fmt.Print(text) }
	c.OnWarning = func(format string, args ...interface{}) { log.Printf(format, args...) }
	return e
}

// NewWithConfig returns an Engine seeded from cfg (default extension,
// initial globals, trace-on-load predicates).
func NewWithConfig(cfg *Config) *Engine {
	e := New()
	cfg.applyTo(e)
	return e
}

// Compile parses source and processes each top-level term until EOF.
func (e *Engine) Compile(source string) error {
	return e.compileNamed(source, "<string>")
}

func (e *Engine) compileNamed(source, file string) error {
	p := parser.New(source)
	for {
		t, err := p.Next()
		if err != nil {
			return e.reportError(err)
		}
		if t == nil {
			break
		}
		if err := e.Compiler.Compile(t, file, p.Line()); err != nil {
			return e.reportError(err)
		}
	}
	e.applyPendingTrace()
	return nil
}

// CompileFile compiles a file's contents, idempotent by canonical path:
// a second CompileFile/require of the same path is a silent no-op.
func (e *Engine) CompileFile(path string) error {
	canon := e.Store.CanonicalPath(path)
	if e.Store.Require(canon) {
		return nil
	}
	bs, err := os.ReadFile(canon)
	if err != nil {
		return err
	}
	return e.compileNamed(string(bs), canon)
}

func (e *Engine) requireFile(path string) error {
	return e.CompileFile(path)
}

// reportError logs err once, suppressing an immediate repeat of the same
// message so an exception propagating across nested require frames isn't
// printed once per frame.
func (e *Engine) reportError(err error) error {
	msg := err.Error()
	if msg != e.lastErr {
		log.Print(msg)
		e.lastErr = msg
	}
	return err
}

func (e *Engine) applyPendingTrace() {
	for _, indicator := range e.pendingTrace {
		if pi, ok := parseIndicatorString(indicator); ok {
			e.Store.SetTraced(pi, true)
		}
	}
	e.pendingTrace = nil
}

// Run compiles query as a top-level goal, executes it, and reports whether
// a first solution exists.
func (e *Engine) Run(query string) (bool, error) {
	s, err := e.Query(query)
	if err != nil {
		return false, err
	}
	defer s.Close()
	ok := s.Next()
	return ok, s.Err()
}

// DefineGlobal creates or overwrites a global variable.
func (e *Engine) DefineGlobal(name string, v cell.Value) {
	e.Store.DefineGlobal(term.Intern(name), v)
}

// Find returns a global variable's current value.
func (e *Engine) Find(name string) (cell.Value, bool) {
	return e.Store.Find(term.Intern(name))
}

// DefineTable creates a table predicate.
func (e *Engine) DefineTable(pi term.Indicator) *store.Table {
	return e.Store.DefineTable(pi)
}

// LoadTable populates a table predicate from a comma-separated file.
func (e *Engine) LoadTable(pi term.Indicator, path string) error {
	return e.Store.LoadTable(pi, path)
}

// Listing pretty-prints a predicate's compiled clauses.
func (e *Engine) Listing(pi term.Indicator) string {
	return e.Store.Listing(pi)
}

func parseIndicatorString(s string) (term.Indicator, bool) {
	i := strings.LastIndexByte(s, '/')
	if i < 0 {
		return term.Indicator{}, false
	}
	arity, err := strconv.Atoi(s[i+1:])
	if err != nil {
		return term.Indicator{}, false
	}
	return term.NewIndicator(s[:i], arity), true
}
