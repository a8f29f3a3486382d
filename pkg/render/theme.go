package render

import (
	"fmt"
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

const DefaultThemeName = "formdemo"

// ThemeConfig is the renderer-facing projection of a go-theme selection.
type ThemeConfig struct {
	Name    string
	Variant string
	Tokens  map[string]string
	CSSVars map[string]string
}

// CSSVarsStyle renders the CSS custom properties as a `:root` block.
func (c *ThemeConfig) CSSVarsStyle() string {
	if c == nil || len(c.CSSVars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(c.CSSVars))
	for key := range c.CSSVars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(c.CSSVars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

// DefaultThemeManifest is the built-in look of the demo page, with a dark
// variant.
func DefaultThemeManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			"brand":       "#3b82f6",
			"brand-hover": "#2563eb",
			"surface":     "#ffffff",
			"border":      "#d1d5db",
			"text":        "#111827",
			"radius":      "0.5rem",
		},
		Variants: map[string]theme.Variant{
			"dark": {
				Tokens: map[string]string{
					"surface": "#111827",
					"border":  "#374151",
					"text":    "#f9fafb",
				},
			},
		},
	}
}

// StaticSelector serves a fixed set of manifests. It satisfies
// theme.ThemeSelector so callers can swap in a registry-backed selector.
type StaticSelector struct {
	manifests      map[string]*theme.Manifest
	defaultTheme   string
	defaultVariant string
}

var _ theme.ThemeSelector = (*StaticSelector)(nil)

// NewStaticSelector indexes manifests by name. The first manifest is the
// default theme.
func NewStaticSelector(defaultVariant string, manifests ...*theme.Manifest) *StaticSelector {
	s := &StaticSelector{
		manifests:      make(map[string]*theme.Manifest, len(manifests)),
		defaultVariant: strings.TrimSpace(defaultVariant),
	}
	for _, manifest := range manifests {
		if manifest == nil || manifest.Name == "" {
			continue
		}
		if s.defaultTheme == "" {
			s.defaultTheme = manifest.Name
		}
		s.manifests[manifest.Name] = manifest
	}
	return s
}

// Select resolves a theme and variant, falling back to the defaults when
// either is blank.
func (s *StaticSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = s.defaultTheme
	}
	manifest, ok := s.manifests[name]
	if !ok {
		return nil, fmt.Errorf("render: theme %q not found", name)
	}
	variant = strings.TrimSpace(variant)
	if variant == "" {
		variant = s.defaultVariant
	}
	if variant != "" {
		if _, ok := manifest.Variants[variant]; !ok {
			return nil, fmt.Errorf("render: theme %q has no variant %q", name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: manifest}, nil
}

// ResolveTheme asks selector for a theme and flattens the manifest and variant
// tokens into a ThemeConfig. Variant tokens override base tokens.
func ResolveTheme(selector theme.ThemeSelector, name, variant string) (*ThemeConfig, error) {
	if selector == nil {
		return nil, nil
	}
	selection, err := selector.Select(name, variant)
	if err != nil {
		return nil, err
	}
	if selection == nil || selection.Manifest == nil {
		return nil, fmt.Errorf("render: theme selection for %q is empty", name)
	}

	tokens := make(map[string]string, len(selection.Manifest.Tokens))
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if v, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range v.Tokens {
			tokens[key] = value
		}
	}

	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		vars["--fd-"+key] = value
	}

	return &ThemeConfig{
		Name:    selection.Theme,
		Variant: selection.Variant,
		Tokens:  tokens,
		CSSVars: vars,
	}, nil
}
