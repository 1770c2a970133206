package nlq

import (
	"strings"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/apperrors"
	"github.com/ontostock/ontostock-engine/pkg/knowledge"
	"github.com/ontostock/ontostock-engine/pkg/models"
	"github.com/ontostock/ontostock-engine/pkg/similarity"
	"github.com/ontostock/ontostock-engine/pkg/textnorm"
)

// Classifier decides which template answers a question. It folds an
// ordered rule table first; only when no rule fires does it fall back to
// TF-IDF cosine similarity against the exemplar corpus.
type Classifier struct {
	rules      []Rule
	vectorizer *similarity.Vectorizer
	refVectors []map[string]float64
	exemplars  []knowledge.Exemplar
	threshold  float64
	logger     *zap.Logger
}

// NewClassifier fits the TF-IDF space over the exemplar corpus once. An
// empty corpus is allowed at construction; classification then surfaces
// ErrCorpusUnfit if the fallback is ever needed.
func NewClassifier(res *knowledge.Resources, rules []Rule, threshold float64, logger *zap.Logger) *Classifier {
	corpus := make([]string, len(res.Exemplars))
	for i, ex := range res.Exemplars {
		corpus[i] = ex.Text
	}

	vectorizer := similarity.NewVectorizer()
	refVectors := vectorizer.FitTransform(corpus)

	return &Classifier{
		rules:      rules,
		vectorizer: vectorizer,
		refVectors: refVectors,
		exemplars:  res.Exemplars,
		threshold:  threshold,
		logger:     logger,
	}
}

// Classify returns the template ID for the question given its extracted
// parameters. It may adjust params: ranking templates reuse the ranking
// key as the result calculation when none was named.
func (c *Classifier) Classify(question string, params *models.Parameters) (string, error) {
	norm := textnorm.Normalize(question)
	in := ruleInput{Norm: norm, Params: params}

	for _, rule := range c.rules {
		if id := rule.Apply(in); id != "" {
			c.logger.Debug("rule fired",
				zap.String("rule", rule.Name),
				zap.String("template", id),
			)
			c.adjust(id, params)
			return id, nil
		}
	}

	id, err := c.bySimilarity(norm)
	if err != nil {
		return "", err
	}
	c.adjust(id, params)
	return id, nil
}

// bySimilarity picks the exemplar with the highest cosine similarity,
// discarding matches below the threshold. An unfit corpus is a
// configuration error, not a classification miss.
func (c *Classifier) bySimilarity(norm string) (string, error) {
	if !c.vectorizer.Fitted() || len(c.refVectors) == 0 {
		return "", apperrors.ErrCorpusUnfit
	}

	qv := c.vectorizer.Transform(norm)
	best := -1.0
	bestIdx := -1
	for i, rv := range c.refVectors {
		if s := similarity.Cosine(qv, rv); s > best {
			best = s
			bestIdx = i
		}
	}

	if bestIdx < 0 || best <= c.threshold {
		c.logger.Debug("similarity below threshold",
			zap.Float64("best", best),
			zap.Float64("threshold", c.threshold),
		)
		return "", apperrors.ErrNoTemplate
	}

	c.logger.Debug("similarity fallback matched",
		zap.String("template", c.exemplars[bestIdx].TemplateID),
		zap.Float64("score", best),
	)
	return c.exemplars[bestIdx].TemplateID, nil
}

// adjust fills the calculation slot for the simple ranking templates: the
// ORDER BY expression needs a formula even when the user only phrased the
// ranking ("maior alta percentual").
func (c *Classifier) adjust(templateID string, params *models.Parameters) {
	if templateID != "Template_5A" && templateID != "Template_5B" {
		return
	}
	if params.Calculation != "" {
		return
	}
	if params.RankingCalculation != "" {
		params.Calculation = params.RankingCalculation
	} else if params.DesiredValue != "" {
		params.Calculation = strings.TrimPrefix(params.DesiredValue, "metrica.")
	}
}
