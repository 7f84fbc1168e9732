package section

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"
	"sync"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/log"
)

// ─────────────────────────────────────────────────────────────
// Section Registry: section key → renderable definition
// ─────────────────────────────────────────────────────────────

// Registry maps section keys to definitions. It is filled at startup and read
// concurrently afterwards; Replace swaps the whole set when a theme reloads.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Register adds or replaces the definition for def.Key.
func (r *Registry) Register(def Definition) error {
	if def.Key == "" {
		return fmt.Errorf("register section: empty key: %w", domain.ErrValidation)
	}
	def = def.withDefaults()

	r.mu.Lock()
	r.defs[def.Key] = def
	r.mu.Unlock()
	return nil
}

// Replace swaps every definition at once.
func (r *Registry) Replace(defs []Definition) error {
	next := make(map[string]Definition, len(defs))
	for _, def := range defs {
		if def.Key == "" {
			return fmt.Errorf("replace sections: empty key: %w", domain.ErrValidation)
		}
		next[def.Key] = def.withDefaults()
	}

	r.mu.Lock()
	r.defs = next
	r.mu.Unlock()
	return nil
}

func (r *Registry) Get(key string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[key]
	return def, ok
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.defs))
}

// All returns every definition sorted by key.
func (r *Registry) All() []Definition {
	return r.filter(func(Definition) bool { return true })
}

// ForContext returns the sections that declare contextKey.
func (r *Registry) ForContext(contextKey string) []Definition {
	return r.filter(func(d Definition) bool { return d.Allows(contextKey) })
}

// Available returns the sections an editor may place on a page bound to
// contextKey.
func (r *Registry) Available(contextKey string) []Definition {
	return r.filter(func(d Definition) bool { return d.AvailableFor(contextKey) })
}

func (r *Registry) ByCategory(category string) []Definition {
	return r.filter(func(d Definition) bool { return d.Category == category })
}

// Categories groups every definition by category.
func (r *Registry) Categories() map[string][]Definition {
	out := make(map[string][]Definition)
	for _, d := range r.All() {
		out[d.Category] = append(out[d.Category], d)
	}
	return out
}

func (r *Registry) filter(keep func(Definition) bool) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.defs))
	for _, d := range r.defs {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Render merges the definition defaults with settings (settings win) and runs
// the section template. It returns ok=false without side effects when the key
// is unknown or has no template. Template failures are logged and also
// reported as ok=false.
func (r *Registry) Render(key string, settings map[string]any, ctx any) (string, bool) {
	def, ok := r.Get(key)
	if !ok || def.Template == nil {
		return "", false
	}

	merged := domain.CloneSettings(def.DefaultSettings)
	if merged == nil {
		merged = map[string]any{}
	}
	for k, v := range settings {
		merged[k] = v
	}

	html, err := def.Template.Execute(NewSettings(merged, def.Schema), NewContextView(ctx))
	if err != nil {
		log.ErrorErr(log.CatRender, "section template failed", err, "key", key)
		return "", false
	}
	return html, true
}

// Validate checks settings against the section schema and returns a
// field → message map. Unknown fields are ignored. An unregistered key
// validates as empty.
func (r *Registry) Validate(key string, settings map[string]any) map[string]string {
	def, ok := r.Get(key)
	if !ok {
		return nil
	}
	return ValidateSettings(def.Schema, settings)
}

// ValidateSettings checks settings against schema.
func ValidateSettings(schema map[string]Field, settings map[string]any) map[string]string {
	errs := make(map[string]string)
	for _, name := range slices.Sorted(maps.Keys(schema)) {
		field := schema[name]
		v, present := settings[name]
		if !present || v == nil || v == "" {
			if field.Required {
				errs[name] = fmt.Sprintf("%s is required", name)
			}
			continue
		}
		if msg := checkType(name, field.Type, v); msg != "" {
			errs[name] = msg
		}
	}
	return errs
}

func checkType(name string, typ FieldType, v any) string {
	switch typ {
	case FieldNumber:
		if !isNumber(v) {
			return fmt.Sprintf("%s must be a number", name)
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Sprintf("%s must be a boolean", name)
		}
	case FieldArray:
		switch reflect.ValueOf(v).Kind() {
		case reflect.Slice, reflect.Array:
		default:
			return fmt.Sprintf("%s must be an array", name)
		}
	}
	return ""
}

// isNumber accepts numeric kinds only. Numeric strings are rejected even
// though the settings view can read them.
func isNumber(v any) bool {
	if n, ok := v.(json.Number); ok {
		_, err := n.Float64()
		return err == nil
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
