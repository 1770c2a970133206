package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/config"
	"github.com/ontostock/ontostock-engine/pkg/history"
	"github.com/ontostock/ontostock-engine/pkg/knowledge"
	"github.com/ontostock/ontostock-engine/pkg/nlq"
	"github.com/ontostock/ontostock-engine/pkg/ontology"
	"github.com/ontostock/ontostock-engine/pkg/services"
	"github.com/ontostock/ontostock-engine/pkg/sparql"
)

// app bundles everything a command needs after bootstrap.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	graph    *ontology.Graph
	history  *history.Store
	question services.QuestionService
}

func (a *app) close() {
	if a.history != nil {
		a.history.Close()
	}
	_ = a.logger.Sync()
}

// newLogger builds a production logger, or a development one for the
// local environment.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// bootstrap loads configuration and wires the full pipeline. withHistory
// is off for one-shot commands so they do not touch the log database.
func bootstrap(withHistory bool) (*app, error) {
	cfg, err := config.Load(cfgFile, Version)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	res, err := knowledge.Load(cfg.Resources.Dir, logger)
	if err != nil {
		return nil, err
	}
	rules, err := nlq.LoadRuleOrder(cfg.Resources.RulesFile)
	if err != nil {
		return nil, err
	}
	classifier := nlq.NewClassifier(res, rules, cfg.Classifier.SimilarityThreshold, logger)
	extractor := nlq.NewExtractor(res, logger)

	graph, err := ontology.Load(cfg.Knowledge.OntologyPath, logger)
	if err != nil {
		return nil, err
	}

	templates, err := sparql.NewTemplateStore(cfg.Resources.TemplatesDir)
	if err != nil {
		return nil, err
	}
	props, err := sparql.LoadProperties(cfg.Resources.PlaceholdersFile)
	if err != nil {
		return nil, err
	}
	filler := sparql.NewFiller(props, logger)

	var executor sparql.QueryExecutor
	if cfg.Knowledge.Endpoint != "" {
		client, err := sparql.NewEndpointClient(cfg.Knowledge.Endpoint, cfg.Knowledge.QueryTimeout(), logger)
		if err != nil {
			return nil, err
		}
		executor = client
	} else {
		logger.Warn("no SPARQL endpoint configured, running in classification-only mode")
	}

	var log *history.Store
	if withHistory {
		if log, err = history.Open(cfg.History.Path, logger); err != nil {
			return nil, err
		}
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		graph:    graph,
		history:  log,
		question: services.NewQuestionService(extractor, classifier, templates, filler, executor, log, logger),
	}, nil
}
