package sparql

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

var leftoverPlaceholders = regexp.MustCompile(`#[A-Z_]+#`)

// Filler substitutes extracted entities into a template. The entity map
// uses the upper-cased placeholder names produced by
// models.Parameters.Entities.
type Filler struct {
	props  *Properties
	logger *zap.Logger
}

// NewFiller creates a Filler over the placeholder properties.
func NewFiller(props *Properties, logger *zap.Logger) *Filler {
	return &Filler{props: props, logger: logger}
}

// Fill produces the final query: filter blocks first, then the dynamic
// placeholders, then cleanup of unused tokens, structural shorthand and
// the prefix header.
func (f *Filler) Fill(template string, entities map[string]any) (string, error) {
	query := f.fillFilterBlocks(template, entities)

	for key, raw := range entities {
		value, ok := raw.(string)
		if !ok {
			// LISTA_TICKERS is handled by the filter blocks.
			continue
		}

		switch key {
		case "VALOR_DESEJADO":
			property := f.props.MetricProperty(value)
			if property == "" {
				f.logger.Warn("unknown metric key", zap.String("key", value))
				continue
			}
			query = strings.ReplaceAll(query, "#VALOR_DESEJADO#", property)
			// Rename the answer variable after the metric so result
			// columns read naturally (?precoFechamento, not ?valor).
			varName := "?" + toCamelCase(value)
			query = strings.ReplaceAll(query, "?valor", varName)
			query = strings.ReplaceAll(query, "?ANS", varName)
		case "CALCULO":
			query = strings.ReplaceAll(query, "#CALCULO#", calculationFormula(value, ""))
		case "RANKING_CALCULATION":
			query = strings.ReplaceAll(query, "#RANKING_CALCULATION#", calculationFormula(value, "_rank"))
		case "REGEX_PATTERN":
			filter := fmt.Sprintf("FILTER(REGEX(STR(?ticker), \"%s\"))", escapeLiteral(value))
			query = strings.ReplaceAll(query, "#REGEX_FILTER#", filter)
		case "ENTIDADE_NOME", "TIPO_ENTIDADE", "NOME_SETOR":
			// Consumed by the filter blocks.
		default:
			query = strings.ReplaceAll(query, "#"+key+"#", escapeLiteral(value))
		}
	}

	// Unused dynamic tokens (an optional #REGEX_FILTER#, say) are
	// dropped, never left in the query text.
	query = leftoverPlaceholders.ReplaceAllString(query, "")
	query = f.props.ReplaceStructural(query)

	return f.props.PrefixHeader() + query, nil
}

// fillFilterBlocks renders the principal-entity restriction. A ticker
// binds the security directly; a name goes through a label regex; an
// index becomes a VALUES list. When several could apply, the most
// specific wins: tickers list, then sector, then single entity.
func (f *Filler) fillFilterBlocks(query string, entities map[string]any) string {
	var entityFilter, sectorFilter, tickersFilter string

	if raw, ok := entities["ENTIDADE_NOME"]; ok {
		name, _ := raw.(string)
		if entityType, _ := entities["TIPO_ENTIDADE"].(string); entityType == "ticker" {
			entityFilter = fmt.Sprintf("BIND(b3:%s AS ?SO1)", strings.ToUpper(name))
		} else {
			entityFilter = fmt.Sprintf(
				"?S1 P7 ?label .\n    FILTER(REGEX(STR(?label), \"%s\", \"i\"))\n    ?S1 P1 ?SO1 .",
				escapeLiteral(name))
		}
	}

	if raw, ok := entities["NOME_SETOR"]; ok {
		sector, _ := raw.(string)
		sectorFilter = fmt.Sprintf("?S1 P9 ?S4 .\n    ?S4 P7 \"%s\"@pt .", escapeLiteral(sector))
	}

	if raw, ok := entities["LISTA_TICKERS"]; ok {
		if tickers, ok := raw.([]string); ok && len(tickers) > 0 {
			uris := make([]string, len(tickers))
			for i, ticker := range tickers {
				uris[i] = "b3:" + ticker
			}
			tickersFilter = fmt.Sprintf("VALUES ?SO1 { %s }", strings.Join(uris, " "))
		}
	}

	filterBlock := entityFilter
	if sectorFilter != "" {
		filterBlock = sectorFilter
	}
	if tickersFilter != "" {
		filterBlock = tickersFilter
	}

	groupFilter := sectorFilter
	if tickersFilter != "" {
		groupFilter = tickersFilter
	}

	query = strings.ReplaceAll(query, "#FILTER_BLOCK#", filterBlock)
	query = strings.ReplaceAll(query, "#FILTER_BLOCK_ENTIDADE#", entityFilter)
	query = strings.ReplaceAll(query, "#FILTER_BLOCK_SETOR#", groupFilter)
	return query
}

// calculationFormula expands a derived-metric key into its SPARQL
// arithmetic. The suffix keeps ranking variables apart from result
// variables when a template computes both.
func calculationFormula(key, suffix string) string {
	switch key {
	case "variacao_abs":
		return fmt.Sprintf("ABS(?fechamento%s - ?abertura%s)", suffix, suffix)
	case "variacao_perc":
		return fmt.Sprintf("((?fechamento%s - ?abertura%s) / ?abertura%s) * 100", suffix, suffix, suffix)
	case "intervalo_abs":
		return fmt.Sprintf("ABS(?maximo%s - ?minimo%s)", suffix, suffix)
	case "intervalo_perc":
		return fmt.Sprintf("((?maximo%s - ?minimo%s) / ?abertura%s) * 100", suffix, suffix, suffix)
	default:
		return "?undefinedCalculation"
	}
}

// toCamelCase turns "metrica.preco_fechamento" into "precoFechamento".
func toCamelCase(key string) string {
	key = strings.TrimPrefix(key, "metrica.")
	key = strings.TrimPrefix(key, "b3:")

	var b strings.Builder
	upperNext := false
	for _, r := range key {
		switch {
		case r == '_':
			upperNext = true
		case upperNext:
			b.WriteString(strings.ToUpper(string(r)))
			upperNext = false
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// escapeLiteral escapes characters that would break out of a quoted
// SPARQL literal. Values come from curated dictionaries, but the raw
// question can reach #DATA#-style placeholders, so escape anyway.
func escapeLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
