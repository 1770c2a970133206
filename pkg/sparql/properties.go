package sparql

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Properties maps the ontology's vocabulary onto template text: namespace
// prefixes, the structural shorthand tokens used inside templates (P1,
// S1, ANS...) and the metric keys the extractor emits.
type Properties struct {
	// Prefixes declares the PREFIX header prepended to every query.
	Prefixes map[string]string `yaml:"prefixes"`

	// Structural maps shorthand tokens to predicates or variable names.
	// Tokens starting with S, O or ANS are SPARQL variables and are
	// substituted with their "?" sigil.
	Structural map[string]string `yaml:"structural"`

	// Metrics maps "metrica.<key>" to the RDF property holding it.
	Metrics map[string]string `yaml:"metrics"`
}

// LoadProperties reads the placeholder properties YAML file.
func LoadProperties(path string) (*Properties, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Properties
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse placeholder properties: %w", err)
	}
	return &p, nil
}

// MetricProperty resolves a metric key ("metrica.preco_fechamento") to
// its RDF property. Returns "" when the key is unknown.
func (p *Properties) MetricProperty(key string) string {
	return p.Metrics[key]
}

// PrefixHeader renders the PREFIX declarations, sorted for stable output.
func (p *Properties) PrefixHeader() string {
	names := make([]string, 0, len(p.Prefixes))
	for name := range p.Prefixes {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "PREFIX %s: <%s>\n", name, p.Prefixes[name])
	}
	b.WriteString("\n")
	return b.String()
}

// ReplaceStructural substitutes the structural shorthand tokens. Longer
// keys are replaced first so P10 is never mangled by P1.
func (p *Properties) ReplaceStructural(query string) string {
	keys := make([]string, 0, len(p.Structural))
	for key := range p.Structural {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	for _, key := range keys {
		value := p.Structural[key]
		if isVariableToken(key) {
			query = strings.ReplaceAll(query, "?"+key, "?"+value)
		} else {
			query = strings.ReplaceAll(query, key, value)
		}
	}
	return query
}

func isVariableToken(key string) bool {
	return strings.HasPrefix(key, "S") || strings.HasPrefix(key, "O") || strings.HasPrefix(key, "ANS")
}
