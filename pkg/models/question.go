package models

import "regexp"

// tickerPattern matches a B3 trading symbol: four letters and one or two
// digits (PETR4, CSNA3, TAEE11).
var tickerPattern = regexp.MustCompile(`^[A-Z]{4}[0-9]{1,2}$`)

// IsTicker reports whether s looks like a trading symbol.
func IsTicker(s string) bool {
	return tickerPattern.MatchString(s)
}

// EntityType discriminates how the principal entity was recognized.
type EntityType string

const (
	EntityTicker EntityType = "ticker"
	EntityName   EntityType = "nome"
)

// Parameters is the closed set of values the extractor can pull out of a
// question. A zero value means "not found", which is not an error; whether
// a missing field matters depends on the template chosen downstream.
type Parameters struct {
	// Date in ISO form (2023-03-10), converted from DD/MM/YYYY input.
	Date string

	// Limit is the number of rows a ranking question asks for, as a
	// string ready for LIMIT substitution. Defaults to "1".
	Limit string

	// RankingCalculation is the canonical key of a ranking phrase
	// ("maior alta percentual" -> variacao_perc).
	RankingCalculation string

	// Calculation is a derived-metric key (variacao_abs, intervalo_perc).
	Calculation string

	// DesiredValue is a plain metric reference such as
	// "metrica.preco_fechamento".
	DesiredValue string

	// EntityName is the canonical company identifier (ticker or formal
	// name) resolved through the company map, with EntityType telling
	// which of the two it is.
	EntityName string
	EntityType EntityType

	// SectorName is the canonical sector label from the sector map.
	SectorName string

	// TickerList holds index constituents when the question names a
	// market index.
	TickerList []string

	// RegexPattern filters tickers by share-class suffix ("3$", "[456]$",
	// "11$").
	RegexPattern string

	// Order is "DESC" or "ASC". Always set by the extractor.
	Order string
}

// HasRanking reports whether a ranking phrase was found.
func (p *Parameters) HasRanking() bool { return p.RankingCalculation != "" }

// HasGroupFilter reports whether the question is scoped to a sector or an
// index's constituents.
func (p *Parameters) HasGroupFilter() bool {
	return p.SectorName != "" || len(p.TickerList) > 0
}

// HasMetric reports whether either a plain metric or a derived calculation
// was found.
func (p *Parameters) HasMetric() bool {
	return p.DesiredValue != "" || p.Calculation != ""
}

// Entities serializes the parameters to the placeholder map consumed by the
// template filler. Keys are upper-cased here and nowhere else; internally
// everything stays lower-case.
func (p *Parameters) Entities() map[string]any {
	out := make(map[string]any)
	if p.Date != "" {
		out["DATA"] = p.Date
	}
	if p.Limit != "" {
		out["LIMITE"] = p.Limit
	}
	if p.RankingCalculation != "" {
		out["RANKING_CALCULATION"] = p.RankingCalculation
	}
	if p.Calculation != "" {
		out["CALCULO"] = p.Calculation
	}
	if p.DesiredValue != "" {
		out["VALOR_DESEJADO"] = p.DesiredValue
	}
	if p.EntityName != "" {
		out["ENTIDADE_NOME"] = p.EntityName
		out["TIPO_ENTIDADE"] = string(p.EntityType)
	}
	if p.SectorName != "" {
		out["NOME_SETOR"] = p.SectorName
	}
	if len(p.TickerList) > 0 {
		out["LISTA_TICKERS"] = p.TickerList
	}
	if p.RegexPattern != "" {
		out["REGEX_PATTERN"] = p.RegexPattern
	}
	if p.Order != "" {
		out["ORDEM"] = p.Order
	}
	return out
}

// Classification is the pipeline's answer for one question: which template
// to use and the values to substitute into it.
type Classification struct {
	TemplateID string         `json:"templateId"`
	Entities   map[string]any `json:"entities"`
}
