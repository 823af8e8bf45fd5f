package agent

import (
	_ "embed"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// Catalog holds the localized response templates, keyed by language code.
type Catalog struct {
	Clarify map[string]string            `yaml:"clarify"`
	Retry   map[string]string            `yaml:"retry"`
	Failed  map[string]string            `yaml:"failed"`
	Confirm map[string]string            `yaml:"confirm"`
	Fields  map[string]map[string]string `yaml:"fields"`
}

// loadCatalog parses the embedded message catalog.
func loadCatalog() (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(messagesYAML, &c); err != nil {
		return nil, eris.Wrap(err, "agent: parse message catalog")
	}
	for name, m := range map[string]map[string]string{
		"clarify": c.Clarify, "retry": c.Retry, "failed": c.Failed, "confirm": c.Confirm,
	} {
		if m["en"] == "" {
			return nil, eris.Errorf("agent: message catalog missing english %s template", name)
		}
	}
	return &c, nil
}

// template returns the template for the key in the given language, falling
// back to English. The bool reports whether the language had a native entry.
func (c *Catalog) template(templates map[string]string, language string) (string, bool) {
	if t, ok := templates[language]; ok && t != "" {
		return t, true
	}
	return templates["en"], false
}

// fieldNames renders the field identifiers as a spoken list in the given
// language, falling back to English names for gaps.
func (c *Catalog) fieldNames(fields []string, language string) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		entry := c.Fields[f]
		if entry == nil {
			names = append(names, f)
			continue
		}
		if n, ok := entry[language]; ok && n != "" {
			names = append(names, n)
		} else if n := entry["en"]; n != "" {
			names = append(names, n)
		} else {
			names = append(names, f)
		}
	}
	return strings.Join(names, ", ")
}
