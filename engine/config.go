package engine

import (
	"github.com/BurntSushi/toml"

	"github.com/rzubek/botl/cell"
)

// Config is optional ambient configuration for an Engine, sourced from a
// TOML file. An Engine with no config behaves the same as one built with
// New(); every field here is additive.
type Config struct {
	// DefaultExtension is appended to CompileFile/require paths with none.
	DefaultExtension string `toml:"default_extension"`
	// TraceOnLoad lists "name/arity" predicate indicators to mark IsTraced
	// as soon as they're compiled.
	TraceOnLoad []string `toml:"trace_on_load"`
	// Globals seeds global variables (by name) before any source loads.
	// Only int/float/bool/string values are supported from TOML.
	Globals map[string]interface{} `toml:"globals"`
	// TableSearchPath is a list of directories LoadTable's caller may
	// search for a bare CSV filename; the engine itself only resolves the
	// literal path given to LoadTable, but exposes this list for an
	// embedder's own resolution logic.
	TableSearchPath []string `toml:"table_search_path"`
}

// LoadConfig reads and decodes a TOML config file.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyTo seeds e with cfg's settings. Called once, from NewWithConfig.
func (cfg *Config) applyTo(e *Engine) {
	if cfg.DefaultExtension != "" {
		e.Store.DefaultExtension = cfg.DefaultExtension
	}
	for name, v := range cfg.Globals {
		if val, ok := tomlLiteral(v); ok {
			e.DefineGlobal(name, val)
		}
	}
	for _, indicator := range cfg.TraceOnLoad {
		e.pendingTrace = append(e.pendingTrace, indicator)
	}
}

func tomlLiteral(v interface{}) (cell.Value, bool) {
	switch x := v.(type) {
	case int64:
		return cell.SetInt(x), true
	case int:
		return cell.SetInt(int64(x)), true
	case float64:
		return cell.SetFloat(float32(x)), true
	case bool:
		return cell.SetBool(x), true
	case string:
		return cell.SetReference(x), true
	default:
		return cell.Value{}, false
	}
}
