package section

import (
	"slices"
)

// FieldType is the declared type of a settings field.
type FieldType string

const (
	FieldString  FieldType = "string"
	FieldText    FieldType = "text"
	FieldNumber  FieldType = "number"
	FieldBoolean FieldType = "boolean"
	FieldArray   FieldType = "array"
	FieldImage   FieldType = "image"
	FieldColor   FieldType = "color"
)

// Field describes one entry of a section's settings schema.
type Field struct {
	Type     FieldType `json:"type" yaml:"type"`
	Label    string    `json:"label,omitempty" yaml:"label"`
	Required bool      `json:"required,omitempty" yaml:"required"`
	Default  any       `json:"default,omitempty" yaml:"default"`
}

// Template renders a section from its settings and optional context.
type Template interface {
	Execute(settings Settings, ctx *ContextView) (string, error)
}

// TemplateFunc adapts a plain function to Template.
type TemplateFunc func(settings Settings, ctx *ContextView) (string, error)

func (f TemplateFunc) Execute(settings Settings, ctx *ContextView) (string, error) {
	return f(settings, ctx)
}

// Definition is a registered section type.
type Definition struct {
	Key             string           `json:"key"`
	Label           string           `json:"label"`
	Icon            string           `json:"icon"`
	Category        string           `json:"category"`
	TemplateRef     string           `json:"templateRef"`
	Template        Template         `json:"-"`
	DefaultSettings map[string]any   `json:"defaultSettings"`
	Schema          map[string]Field `json:"schema"`
	AllowedContexts []string         `json:"allowedContexts"`
}

const (
	DefaultCategory = "general"
	DefaultIcon     = "square"
)

// withDefaults fills the optional parts of a definition.
func (d Definition) withDefaults() Definition {
	if d.Label == "" {
		d.Label = d.Key
	}
	if d.Icon == "" {
		d.Icon = DefaultIcon
	}
	if d.Category == "" {
		d.Category = DefaultCategory
	}
	if d.DefaultSettings == nil {
		d.DefaultSettings = map[string]any{}
	}
	if d.Schema == nil {
		d.Schema = map[string]Field{}
	}
	if len(d.AllowedContexts) > 0 {
		ctxs := slices.Clone(d.AllowedContexts)
		slices.Sort(ctxs)
		d.AllowedContexts = slices.Compact(ctxs)
	}
	return d
}

// Allows reports whether the section declares contextKey as usable.
func (d Definition) Allows(contextKey string) bool {
	return slices.Contains(d.AllowedContexts, contextKey)
}

// AvailableFor reports whether the section can be placed on a page bound to
// contextKey. Sections without declared contexts are available everywhere.
func (d Definition) AvailableFor(contextKey string) bool {
	return len(d.AllowedContexts) == 0 || d.Allows(contextKey)
}
