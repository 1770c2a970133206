package nlq

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/knowledge"
	"github.com/ontostock/ontostock-engine/pkg/models"
	"github.com/ontostock/ontostock-engine/pkg/textnorm"
)

var (
	datePattern  = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/(?:\d{4}|\d{2}))\b`)
	limitPattern = regexp.MustCompile(`\b(?:as|os)?\s*(\d+|cinco|quatro|tres|duas|dois)\s+(?:acoes|papeis)\b`)
	topNPattern  = regexp.MustCompile(`\btop\s*(\d+)\b`)
	// Normalized text is lower-case, so tickers appear as "petr4".
	tickerTokenPattern = regexp.MustCompile(`\b([a-z]{4}\d{1,2})\b`)
)

var spelledNumbers = map[string]string{
	"cinco":  "5",
	"quatro": "4",
	"tres":   "3",
	"duas":   "2",
	"dois":   "2",
}

// Extractor turns a question into a Parameters value by running a fixed
// sequence of passes over the normalized text. Later passes see a working
// copy with earlier matches blanked out, so a date or a ranking phrase
// cannot be re-read as something else.
type Extractor struct {
	res    *knowledge.Resources
	logger *zap.Logger
}

// NewExtractor creates an Extractor over the given resource bundle.
func NewExtractor(res *knowledge.Resources, logger *zap.Logger) *Extractor {
	return &Extractor{res: res, logger: logger}
}

// Extract runs all passes. A field it cannot fill stays zero; that is
// never an error here. Required-field checks belong to the template layer.
func (e *Extractor) Extract(question string) models.Parameters {
	var params models.Parameters

	norm := textnorm.Normalize(question)
	// Pad so word-boundary patterns behave the same at the edges.
	working := " " + norm + " "

	working = e.extractDate(working, &params)
	e.extractLimit(working, &params)
	working = e.extractRanking(working, &params)
	e.extractMetric(working, &params)
	e.extractPrincipalEntity(working, &params)
	e.extractShareClass(norm, &params)

	// Domain default is "biggest first"; "baixa"/"menor" flips it.
	if strings.Contains(norm, "baixa") || strings.Contains(norm, "menor") {
		params.Order = "ASC"
	} else {
		params.Order = "DESC"
	}
	if params.Limit == "" {
		params.Limit = "1"
	}

	return params
}

// extractDate finds a DD/MM/YYYY (or DD/MM/YY) date, validates it and
// stores the ISO form. Unparsable dates are dropped silently and the
// matched substring is removed either way so "10/03/2023" can never be
// mistaken for part of a company name.
func (e *Extractor) extractDate(working string, params *models.Parameters) string {
	m := datePattern.FindStringSubmatch(working)
	if m == nil {
		return working
	}

	layout := "2/1/2006"
	if len(m[1])-strings.LastIndex(m[1], "/") == 3 { // two-digit year
		layout = "2/1/06"
	}
	if t, err := time.Parse(layout, m[1]); err == nil {
		params.Date = t.Format("2006-01-02")
	} else {
		e.logger.Debug("dropping unparsable date", zap.String("candidate", m[1]))
	}
	return strings.Replace(working, m[1], " ", 1)
}

func (e *Extractor) extractLimit(working string, params *models.Parameters) {
	if m := limitPattern.FindStringSubmatch(working); m != nil {
		if n, ok := spelledNumbers[m[1]]; ok {
			params.Limit = n
		} else {
			params.Limit = m[1]
		}
		return
	}
	if m := topNPattern.FindStringSubmatch(working); m != nil {
		params.Limit = m[1]
	}
}

// extractRanking scans the ranking phrase groups in priority order. The
// matched phrase is blanked out of the working text so the plain-metric
// pass cannot match inside it ("maior alta percentual" must not also
// yield a percentage metric).
func (e *Extractor) extractRanking(working string, params *models.Parameters) string {
	for _, group := range e.res.Ranking {
		if p := group.Match(working); p != nil {
			params.RankingCalculation = group.Key
			return p.ReplaceAllString(working, " ")
		}
	}
	return working
}

// extractMetric scans metric synonym groups in priority order; derived
// calculations come before plain price/volume metrics in the table, and
// the first match ends the pass. A ranking question that names no result
// metric reports the ranking metric itself.
func (e *Extractor) extractMetric(working string, params *models.Parameters) {
	for _, group := range e.res.Metrics {
		if group.Match(working) == nil {
			continue
		}
		if group.Kind == "calc" {
			params.Calculation = group.Key
		} else {
			params.DesiredValue = "metrica." + group.Key
		}
		return
	}
	if params.RankingCalculation != "" && !params.HasMetric() {
		params.DesiredValue = "metrica." + params.RankingCalculation
	}
}

// extractPrincipalEntity resolves, in precedence order: index membership,
// sector, explicit ticker, company name. Index and sector take precedence
// so that "ações do setor bancário" is not read as a company called
// "bancário". Company keys are tried longest first by the matcher table.
func (e *Extractor) extractPrincipalEntity(working string, params *models.Parameters) {
	for _, idx := range e.res.Indexes {
		if idx.Match(working) {
			params.TickerList = idx.Tickers
			return
		}
	}

	if _, sector, ok := e.res.Sectors.Find(working); ok {
		params.SectorName = sector
		return
	}

	if m := tickerTokenPattern.FindStringSubmatch(working); m != nil {
		params.EntityName = strings.ToUpper(m[1])
		params.EntityType = models.EntityTicker
		return
	}

	if _, value, ok := e.res.Companies.Find(working); ok {
		params.EntityName = value
		if models.IsTicker(value) {
			params.EntityType = models.EntityTicker
		} else {
			params.EntityType = models.EntityName
		}
	}
}

// extractShareClass maps the closed share-class vocabulary to ticker
// suffix patterns. Substring matching is deliberate: it also covers the
// plurals ("ordinárias").
func (e *Extractor) extractShareClass(norm string, params *models.Parameters) {
	switch {
	case strings.Contains(norm, "ordinaria"):
		params.RegexPattern = "3$"
	case strings.Contains(norm, "preferencial"):
		params.RegexPattern = "[456]$"
	case strings.Contains(norm, "unit"):
		params.RegexPattern = "11$"
	}
}
