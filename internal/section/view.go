package section

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
)

// ─────────────────────────────────────────────────────────────
// Settings view
// ─────────────────────────────────────────────────────────────

// Settings is the read-only settings view handed to templates. Unknown keys
// read as zero values; keys absent from the instance fall back to the schema
// default.
type Settings struct {
	values map[string]any
	schema map[string]Field
}

// NewSettings builds a settings view over values with schema fallbacks.
func NewSettings(values map[string]any, schema map[string]Field) Settings {
	if values == nil {
		values = map[string]any{}
	}
	return Settings{values: values, schema: schema}
}

// Get returns the raw value for name.
func (s Settings) Get(name string) (any, bool) {
	if v, ok := s.values[name]; ok && v != nil {
		return v, true
	}
	if f, ok := s.schema[name]; ok && f.Default != nil {
		return f.Default, true
	}
	return nil, false
}

// Has reports whether name resolves to a value.
func (s Settings) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

func (s Settings) String(name string) string {
	v, ok := s.Get(name)
	if !ok {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func (s Settings) Float(name string) float64 {
	v, ok := s.Get(name)
	if !ok {
		return 0
	}
	f, _ := toFloat(v)
	return f
}

func (s Settings) Int(name string) int {
	return int(s.Float(name))
}

func (s Settings) Bool(name string) bool {
	v, ok := s.Get(name)
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(t)
		return b
	default:
		f, ok := toFloat(t)
		return ok && f != 0
	}
}

// List returns a slice-typed setting as []any.
func (s Settings) List(name string) []any {
	v, ok := s.Get(name)
	if !ok {
		return nil
	}
	if l, ok := v.([]any); ok {
		return l
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func (s Settings) Map(name string) map[string]any {
	v, ok := s.Get(name)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]any)
	return m
}

// All returns the instance values merged over schema defaults.
func (s Settings) All() map[string]any {
	out := make(map[string]any, len(s.values)+len(s.schema))
	for name, f := range s.schema {
		if f.Default != nil {
			out[name] = f.Default
		}
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ─────────────────────────────────────────────────────────────
// Context view
// ─────────────────────────────────────────────────────────────

// ContextMapper is implemented by domain values that expose themselves as a
// flat field map.
type ContextMapper interface {
	ContextMap() map[string]any
}

// ContextView wraps the live data bound to a page. A nil *ContextView means
// the page has no context; its methods are safe to call on nil.
type ContextView struct {
	value  any
	fields map[string]any
}

// NewContextView returns nil when value is nil.
func NewContextView(value any) *ContextView {
	if value == nil {
		return nil
	}
	return &ContextView{value: value, fields: ContextFields(value)}
}

// Value returns the underlying domain value.
func (c *ContextView) Value() any {
	if c == nil {
		return nil
	}
	return c.value
}

// Fields returns the flattened field map.
func (c *ContextView) Fields() map[string]any {
	if c == nil {
		return nil
	}
	return c.fields
}

func (c *ContextView) Get(name string) any {
	if c == nil {
		return nil
	}
	return c.fields[name]
}

func (c *ContextView) Has(name string) bool {
	if c == nil {
		return false
	}
	_, ok := c.fields[name]
	return ok
}

func (c *ContextView) String(name string) string {
	v := c.Get(name)
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// ContextFields flattens a domain value into a field map. Maps pass through,
// ContextMapper values are asked directly, and anything else goes through its
// JSON encoding. Non-object encodings are exposed under "items".
func ContextFields(value any) map[string]any {
	switch v := value.(type) {
	case nil:
		return nil
	case map[string]any:
		return v
	case ContextMapper:
		return v.ContextMap()
	}

	data, err := json.Marshal(value)
	if err != nil {
		return map[string]any{}
	}
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return map[string]any{}
	}
	if m, ok := decoded.(map[string]any); ok {
		return m
	}
	return map[string]any{"items": decoded}
}
