// Package theme loads section and context definitions from a theme directory.
//
// Layout:
//
//	theme.yaml                  theme name, contexts, default chrome, layout
//	layout.html                 optional document shell
//	sections/<key>/section.yaml section definition
//	sections/<key>/*.html       section template
package theme

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	stdpath "path"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"pagebuilder/internal/domain"
	"pagebuilder/internal/section"
)

const (
	ThemeFileName    = "theme.yaml"
	SectionFileName  = "section.yaml"
	DefaultTemplate  = "template.html"
	DefaultLayout    = "layout.html"
	sectionsDir      = "sections"
	SourceCatalog    = "catalog"
	layoutTemplateID = "layout"
)

// ThemeFile is the root structure of theme.yaml.
type ThemeFile struct {
	Slug     string        `yaml:"slug"`
	Name     string        `yaml:"name"`
	Layout   string        `yaml:"layout"`
	Contexts []ContextDef  `yaml:"contexts"`
	Header   []InstanceDef `yaml:"header"` // seeds the header draft of a new theme
	Footer   []InstanceDef `yaml:"footer"` // seeds the footer draft of a new theme
}

// ContextDef binds a context key to a table of a configured data source.
type ContextDef struct {
	Key        string   `yaml:"key"`
	Source     string   `yaml:"source"`
	Table      string   `yaml:"table"`
	Identifier string   `yaml:"identifier"`
	Cacheable  bool     `yaml:"cacheable"`
	CacheTTL   string   `yaml:"cache_ttl"`
	Filters    []string `yaml:"filters"`
	Sorts      []string `yaml:"sorts"`
	Pagination bool     `yaml:"pagination"`
	PerPage    int      `yaml:"per_page"`
	EagerLoad  []string `yaml:"eager_load"`
}

// InstanceDef is a section placement in theme.yaml.
type InstanceDef struct {
	Key      string         `yaml:"key"`
	Settings map[string]any `yaml:"settings"`
}

// SectionFile is the structure of sections/<key>/section.yaml.
type SectionFile struct {
	Key      string                   `yaml:"key"`
	Label    string                   `yaml:"label"`
	Icon     string                   `yaml:"icon"`
	Category string                   `yaml:"category"`
	Template string                   `yaml:"template"`
	Defaults map[string]any           `yaml:"defaults"`
	Schema   map[string]section.Field `yaml:"schema"`
	Contexts []string                 `yaml:"contexts"`
}

// Manifest is a fully parsed theme.
type Manifest struct {
	Theme    ThemeFile
	Sections []section.Definition
	Layout   *template.Template
}

// LoadDir loads the theme rooted at dir.
func LoadDir(dir string) (*Manifest, error) {
	return LoadManifest(os.DirFS(dir))
}

// LoadManifest parses theme.yaml and every sections/*/section.yaml in fsys.
func LoadManifest(fsys fs.FS) (*Manifest, error) {
	content, err := fs.ReadFile(fsys, ThemeFileName)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", ThemeFileName, err)
	}
	var tf ThemeFile
	if err := yaml.Unmarshal(content, &tf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ThemeFileName, err)
	}
	if tf.Slug == "" {
		return nil, fmt.Errorf("%s: slug is required: %w", ThemeFileName, domain.ErrValidation)
	}
	if tf.Name == "" {
		tf.Name = tf.Slug
	}
	if err := validateContexts(tf.Contexts); err != nil {
		return nil, err
	}

	m := &Manifest{Theme: tf}
	if m.Layout, err = loadLayout(fsys, tf.Layout); err != nil {
		return nil, err
	}
	if m.Sections, err = loadSections(fsys); err != nil {
		return nil, err
	}
	return m, nil
}

func validateContexts(defs []ContextDef) error {
	seen := make(map[string]bool, len(defs))
	for _, c := range defs {
		switch {
		case c.Key == "":
			return fmt.Errorf("context: key is required: %w", domain.ErrValidation)
		case seen[c.Key]:
			return fmt.Errorf("context %s: duplicate key: %w", c.Key, domain.ErrValidation)
		case c.Source == "":
			return fmt.Errorf("context %s: source is required: %w", c.Key, domain.ErrValidation)
		case c.Source != SourceCatalog && c.Table == "":
			return fmt.Errorf("context %s: table is required: %w", c.Key, domain.ErrValidation)
		}
		if c.CacheTTL != "" {
			if _, err := time.ParseDuration(c.CacheTTL); err != nil {
				return fmt.Errorf("context %s: cache_ttl: %w", c.Key, err)
			}
		}
		seen[c.Key] = true
	}
	return nil
}

func loadLayout(fsys fs.FS, name string) (*template.Template, error) {
	explicit := name != ""
	if !explicit {
		name = DefaultLayout
	}
	src, err := fs.ReadFile(fsys, name)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", name, err)
	}
	tmpl, err := template.New(layoutTemplateID).Funcs(templateFuncs).Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", name, err)
	}
	return tmpl, nil
}

func loadSections(fsys fs.FS) ([]section.Definition, error) {
	if _, err := fs.Stat(fsys, sectionsDir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var defs []section.Definition
	seen := make(map[string]string)
	err := fs.WalkDir(fsys, sectionsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != SectionFileName {
			return nil
		}

		def, err := loadSection(fsys, path)
		if err != nil {
			return err
		}
		if prev, dup := seen[def.Key]; dup {
			return fmt.Errorf("section %s defined in %s and %s: %w", def.Key, prev, path, domain.ErrValidation)
		}
		seen[def.Key] = path
		defs = append(defs, def)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan sections: %w", err)
	}

	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs, nil
}

func loadSection(fsys fs.FS, path string) (section.Definition, error) {
	content, err := fs.ReadFile(fsys, path)
	if err != nil {
		return section.Definition{}, fmt.Errorf("read %s: %w", path, err)
	}
	var sf SectionFile
	if err := yaml.Unmarshal(content, &sf); err != nil {
		return section.Definition{}, fmt.Errorf("parse %s: %w", path, err)
	}

	// Use path.Dir (not filepath.Dir) since fs.FS always uses forward slashes
	dir := stdpath.Dir(path)
	if sf.Key == "" {
		sf.Key = stdpath.Base(dir)
	}

	ref := resolveTemplatePath(sf.Template, dir)
	src, err := fs.ReadFile(fsys, ref)
	if err != nil {
		return section.Definition{}, fmt.Errorf("section %s: read template %s: %w", sf.Key, ref, err)
	}
	tmpl, err := ParseHTMLTemplate(sf.Key, string(src))
	if err != nil {
		return section.Definition{}, fmt.Errorf("section %s: %w", sf.Key, err)
	}

	return section.Definition{
		Key:             sf.Key,
		Label:           sf.Label,
		Icon:            sf.Icon,
		Category:        sf.Category,
		TemplateRef:     ref,
		Template:        tmpl,
		DefaultSettings: sf.Defaults,
		Schema:          sf.Schema,
		AllowedContexts: sf.Contexts,
	}, nil
}

// resolveTemplatePath resolves a template name against the section
// directory. Names containing a slash are taken relative to the theme root.
func resolveTemplatePath(name, sectionDir string) string {
	if name == "" {
		name = DefaultTemplate
	}
	if strings.Contains(name, "/") {
		return stdpath.Clean(name)
	}
	return stdpath.Join(sectionDir, name)
}

// ChromeSeed returns the default chrome list for slot.
func (m *Manifest) ChromeSeed(slot domain.ChromeSlot) domain.SectionList {
	defs := m.Theme.Header
	if slot == domain.ChromeFooter {
		defs = m.Theme.Footer
	}
	list := domain.SectionList{}
	for _, d := range defs {
		list, _ = list.Add(d.Key, d.Settings, domain.AppendPosition)
	}
	return list
}
