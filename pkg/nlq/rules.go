package nlq

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ontostock/ontostock-engine/pkg/models"
)

// ruleInput is what a rule predicate may look at: the normalized question
// text and the parameters already extracted from it.
type ruleInput struct {
	Norm   string
	Params *models.Parameters
}

// ruleFunc returns the template ID it selects, or "" when the rule does
// not apply. Rules are pure: they never modify the input.
type ruleFunc func(in ruleInput) string

// Rule pairs a stable name with its predicate. The name is what the
// rule-order configuration refers to.
type Rule struct {
	Name  string
	Apply ruleFunc
}

// isComplexRanking is true when the question ranks by one metric but asks
// a different metric to be reported ("qual o volume das ações com maior
// alta percentual").
func isComplexRanking(p *models.Parameters) bool {
	return p.HasRanking() && p.DesiredValue != "" &&
		"metrica."+p.RankingCalculation != p.DesiredValue
}

// ruleRegistry holds every known rule by name. The evaluation order is
// not defined here. It comes from the rule-order configuration, so
// reordering is a config change, not a code change.
var ruleRegistry = map[string]ruleFunc{
	"ranking_composto_grupo": func(in ruleInput) string {
		if isComplexRanking(in.Params) && in.Params.HasGroupFilter() {
			return "Template_6B"
		}
		return ""
	},
	"ranking_composto": func(in ruleInput) string {
		if isComplexRanking(in.Params) {
			return "Template_6A"
		}
		return ""
	},
	"ranking_grupo": func(in ruleInput) string {
		if in.Params.HasRanking() && in.Params.HasGroupFilter() {
			return "Template_5B"
		}
		return ""
	},
	"ranking": func(in ruleInput) string {
		if in.Params.HasRanking() {
			return "Template_5A"
		}
		return ""
	},
	"empresa_calculo": func(in ruleInput) string {
		if in.Params.EntityName != "" && in.Params.Calculation != "" {
			return "Template_1D"
		}
		return ""
	},
	"consulta_ticker": func(in ruleInput) string {
		if in.Params.DesiredValue == "metrica.ticker" {
			return "Template_2A"
		}
		return ""
	},
	"grupo_empresas": func(in ruleInput) string {
		if in.Params.HasGroupFilter() && strings.Contains(in.Norm, "empresas") {
			return "Template_3B"
		}
		return ""
	},
	"grupo_metrica": func(in ruleInput) string {
		if in.Params.HasGroupFilter() && in.Params.DesiredValue != "" {
			return "Template_4"
		}
		return ""
	},
	"grupo": func(in ruleInput) string {
		if in.Params.HasGroupFilter() {
			return "Template_3A"
		}
		return ""
	},
	"empresa_setor_atuacao": func(in ruleInput) string {
		if in.Params.EntityName != "" && strings.Contains(in.Norm, "setor de atuacao") {
			return "Template_2B"
		}
		return ""
	},
	"empresa_classe": func(in ruleInput) string {
		if in.Params.EntityName != "" && in.Params.RegexPattern != "" {
			return "Template_1C"
		}
		return ""
	},
	"empresa_metrica": func(in ruleInput) string {
		if in.Params.EntityName != "" && in.Params.DesiredValue != "" {
			if in.Params.EntityType == models.EntityTicker {
				return "Template_1B"
			}
			return "Template_1A"
		}
		return ""
	},
	"empresa": func(in ruleInput) string {
		if in.Params.EntityName != "" {
			return "Template_2A"
		}
		return ""
	},
}

// defaultRuleOrder is the priority order shipped with the engine. Narrow
// rules come before the general ones they would otherwise be shadowed by;
// in particular the group-scoped ranking rules outrank the bare group
// rules, which settles the sector+volume tie-break.
var defaultRuleOrder = []string{
	"ranking_composto_grupo",
	"ranking_composto",
	"ranking_grupo",
	"ranking",
	"empresa_calculo",
	"consulta_ticker",
	"grupo_empresas",
	"grupo_metrica",
	"grupo",
	"empresa_setor_atuacao",
	"empresa_classe",
	"empresa_metrica",
	"empresa",
}

type ruleOrderDoc struct {
	Rules []string `yaml:"rules"`
}

// LoadRuleOrder reads a YAML file listing rule names in priority order and
// resolves them against the registry. The file must name every registered
// rule exactly once; anything else is a configuration error, caught at
// startup rather than as a silent misclassification later.
func LoadRuleOrder(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc ruleOrderDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule order: %w", err)
	}
	return resolveRuleOrder(doc.Rules)
}

// DefaultRules returns the built-in priority order.
func DefaultRules() []Rule {
	rules, err := resolveRuleOrder(defaultRuleOrder)
	if err != nil {
		// The default order is validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return rules
}

func resolveRuleOrder(names []string) ([]Rule, error) {
	seen := make(map[string]bool, len(names))
	rules := make([]Rule, 0, len(names))
	for _, name := range names {
		fn, ok := ruleRegistry[name]
		if !ok {
			return nil, fmt.Errorf("unknown rule %q", name)
		}
		if seen[name] {
			return nil, fmt.Errorf("rule %q listed twice", name)
		}
		seen[name] = true
		rules = append(rules, Rule{Name: name, Apply: fn})
	}
	if len(rules) != len(ruleRegistry) {
		for name := range ruleRegistry {
			if !seen[name] {
				return nil, fmt.Errorf("rule %q missing from order", name)
			}
		}
	}
	return rules, nil
}
