package theme

import (
	"fmt"
	"html/template"
	"strings"

	"pagebuilder/internal/section"
)

var templateFuncs = template.FuncMap{
	"default": func(fallback, v any) any {
		if v == nil || v == "" {
			return fallback
		}
		return v
	},
	"money": func(v any) string {
		switch t := v.(type) {
		case float64:
			return fmt.Sprintf("%.2f", t)
		case int:
			return fmt.Sprintf("%d.00", t)
		case nil:
			return ""
		default:
			return fmt.Sprint(t)
		}
	},
	"join": func(sep string, items []any) string {
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = fmt.Sprint(it)
		}
		return strings.Join(parts, sep)
	},
}

// templateData is the dot value inside a section template.
type templateData struct {
	Settings section.Settings
	Context  *section.ContextView
}

// HTMLTemplate is a section.Template backed by html/template.
type HTMLTemplate struct {
	tmpl *template.Template
}

var _ section.Template = (*HTMLTemplate)(nil)

// ParseHTMLTemplate compiles src. Missing map keys render as empty.
func ParseHTMLTemplate(name, src string) (*HTMLTemplate, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=zero").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &HTMLTemplate{tmpl: tmpl}, nil
}

func (t *HTMLTemplate) Execute(settings section.Settings, ctx *section.ContextView) (string, error) {
	var b strings.Builder
	if err := t.tmpl.Execute(&b, templateData{Settings: settings, Context: ctx}); err != nil {
		return "", err
	}
	return b.String(), nil
}
