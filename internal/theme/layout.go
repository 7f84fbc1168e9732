package theme

import (
	"fmt"
	"html/template"
	"io"

	"pagebuilder/internal/render"
)

// LayoutData is the dot value inside a layout template.
type LayoutData struct {
	Title  string
	SEO    map[string]string
	Header []template.HTML
	Body   []template.HTML
	Footer []template.HTML
	Doc    *render.ComposedDocument
}

const defaultLayoutSrc = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{- with .SEO.description}}
<meta name="description" content="{{.}}">{{end}}
{{- with .SEO.keywords}}
<meta name="keywords" content="{{.}}">{{end}}
<meta name="robots" content="{{.SEO.robots}}">
{{- with .SEO.canonical}}
<link rel="canonical" href="{{.}}">{{end}}
<meta property="og:title" content="{{.Title}}">
<meta property="og:type" content="{{.SEO.ogType}}">
{{- with .SEO.image}}
<meta property="og:image" content="{{.}}">{{end}}
</head>
<body>
<header>{{range .Header}}{{.}}{{end}}</header>
<main>{{range .Body}}{{.}}{{end}}</main>
<footer>{{range .Footer}}{{.}}{{end}}</footer>
</body>
</html>
`

var defaultLayout = template.Must(template.New(layoutTemplateID).Funcs(templateFuncs).Parse(defaultLayoutSrc))

// NewLayoutData prepares doc for a layout. Fragments were produced by
// html/template section templates and are already escaped.
func NewLayoutData(doc *render.ComposedDocument) LayoutData {
	seo := doc.SEO.WithDefaults(doc.Page, doc.Theme)
	return LayoutData{
		Title:  seo.Title,
		SEO:    seo.Map(),
		Header: fragmentsHTML(doc.HeaderSections),
		Body:   fragmentsHTML(doc.BodySections),
		Footer: fragmentsHTML(doc.FooterSections),
		Doc:    doc,
	}
}

// RenderDocument writes doc through layout, or through the built-in shell
// when layout is nil.
func RenderDocument(w io.Writer, layout *template.Template, doc *render.ComposedDocument) error {
	if layout == nil {
		layout = defaultLayout
	}
	if err := layout.Execute(w, NewLayoutData(doc)); err != nil {
		return fmt.Errorf("render layout: %w", err)
	}
	return nil
}

func fragmentsHTML(frags []render.Fragment) []template.HTML {
	out := make([]template.HTML, len(frags))
	for i, f := range frags {
		out[i] = template.HTML(f.HTML)
	}
	return out
}
