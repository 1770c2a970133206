package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/apperrors"
	"github.com/ontostock/ontostock-engine/pkg/history"
	"github.com/ontostock/ontostock-engine/pkg/models"
	"github.com/ontostock/ontostock-engine/pkg/nlq"
	"github.com/ontostock/ontostock-engine/pkg/sparql"
)

// requiredKeys lists, per template, the placeholder keys that must be
// present for the generated query to make sense. The pseudo-key "GRUPO"
// is satisfied by either a sector or an index ticker list.
var requiredKeys = map[string][]string{
	"Template_1A": {"ENTIDADE_NOME", "DATA", "VALOR_DESEJADO"},
	"Template_1B": {"ENTIDADE_NOME", "DATA", "VALOR_DESEJADO"},
	"Template_1C": {"ENTIDADE_NOME", "REGEX_PATTERN"},
	"Template_1D": {"ENTIDADE_NOME", "DATA", "CALCULO"},
	"Template_2A": {"ENTIDADE_NOME"},
	"Template_2B": {"ENTIDADE_NOME"},
	"Template_3A": {"GRUPO"},
	"Template_3B": {"GRUPO"},
	"Template_4":  {"GRUPO", "DATA", "VALOR_DESEJADO"},
	"Template_5A": {"DATA", "CALCULO"},
	"Template_5B": {"GRUPO", "DATA", "CALCULO"},
	"Template_6A": {"DATA", "RANKING_CALCULATION", "VALOR_DESEJADO"},
	"Template_6B": {"GRUPO", "DATA", "RANKING_CALCULATION", "VALOR_DESEJADO"},
}

// Answer is the full pipeline output for one question.
type Answer struct {
	Question       string                `json:"question"`
	Classification models.Classification `json:"classification"`
	Query          string                `json:"query"`
	// Results is nil when no SPARQL endpoint is configured.
	Results []map[string]string `json:"results,omitempty"`
}

// QuestionService turns Portuguese market questions into SPARQL and,
// when an endpoint is configured, into answers.
type QuestionService interface {
	// Classify runs extraction and template selection only.
	Classify(ctx context.Context, question string) (*models.Classification, error)

	// Answer runs the full pipeline: classify, validate required
	// parameters, fill the template and execute it.
	Answer(ctx context.Context, question string) (*Answer, error)
}

type questionService struct {
	extractor  *nlq.Extractor
	classifier *nlq.Classifier
	templates  *sparql.TemplateStore
	filler     *sparql.Filler
	executor   sparql.QueryExecutor // nil disables execution
	log        *history.Store       // nil disables history
	logger     *zap.Logger
}

// NewQuestionService wires the pipeline. executor and log may be nil:
// without an executor Answer returns the query with no results, without
// a log nothing is recorded.
func NewQuestionService(
	extractor *nlq.Extractor,
	classifier *nlq.Classifier,
	templates *sparql.TemplateStore,
	filler *sparql.Filler,
	executor sparql.QueryExecutor,
	log *history.Store,
	logger *zap.Logger,
) QuestionService {
	return &questionService{
		extractor:  extractor,
		classifier: classifier,
		templates:  templates,
		filler:     filler,
		executor:   executor,
		log:        log,
		logger:     logger.Named("question-service"),
	}
}

var _ QuestionService = (*questionService)(nil)

func (s *questionService) Classify(ctx context.Context, question string) (*models.Classification, error) {
	if question == "" {
		return nil, apperrors.ErrEmptyQuestion
	}

	params := s.extractor.Extract(question)
	templateID, err := s.classifier.Classify(question, &params)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("question classified",
		zap.String("template", templateID))
	return &models.Classification{
		TemplateID: templateID,
		Entities:   params.Entities(),
	}, nil
}

func (s *questionService) Answer(ctx context.Context, question string) (*Answer, error) {
	start := time.Now()

	classification, err := s.Classify(ctx, question)
	if err != nil {
		if errors.Is(err, apperrors.ErrNoTemplate) {
			s.record(ctx, question, "", nil, history.OutcomeNoTemplate, start)
		}
		return nil, err
	}

	if err := validateRequired(classification.TemplateID, classification.Entities); err != nil {
		s.record(ctx, question, classification.TemplateID, classification.Entities, history.OutcomeIncomplete, start)
		return nil, err
	}

	template, err := s.templates.Load(classification.TemplateID)
	if err != nil {
		return nil, err
	}
	query, err := s.filler.Fill(template, classification.Entities)
	if err != nil {
		return nil, fmt.Errorf("fill template %s: %w", classification.TemplateID, err)
	}

	answer := &Answer{
		Question:       question,
		Classification: *classification,
		Query:          query,
	}

	if s.executor != nil {
		results, err := s.executor.Select(query)
		if err != nil {
			s.record(ctx, question, classification.TemplateID, classification.Entities, history.OutcomeFailed, start)
			return nil, err
		}
		answer.Results = results
	}

	s.record(ctx, question, classification.TemplateID, classification.Entities, history.OutcomeAnswered, start)
	s.logger.Info("question answered",
		zap.String("template", classification.TemplateID),
		zap.Int("results", len(answer.Results)),
		zap.Duration("duration", time.Since(start)))
	return answer, nil
}

// validateRequired checks the template's required placeholders. The
// extractor never fails on a missing value; this is where the gap
// surfaces, named after the first missing key.
func validateRequired(templateID string, entities map[string]any) error {
	for _, key := range requiredKeys[templateID] {
		if key == "GRUPO" {
			if entities["NOME_SETOR"] == nil && entities["LISTA_TICKERS"] == nil {
				return fmt.Errorf("%w: NOME_SETOR", apperrors.ErrMissingParameter)
			}
			continue
		}
		if entities[key] == nil {
			return fmt.Errorf("%w: %s", apperrors.ErrMissingParameter, key)
		}
	}
	return nil
}

// record logs the question outcome, best effort.
func (s *questionService) record(ctx context.Context, question, templateID string, entities map[string]any, outcome string, start time.Time) {
	if s.log == nil {
		return
	}
	err := s.log.Record(ctx, history.Entry{
		Question:   question,
		TemplateID: templateID,
		Entities:   entities,
		Outcome:    outcome,
		Duration:   time.Since(start),
	})
	if err != nil {
		s.logger.Warn("failed to record question", zap.Error(err))
	}
}
