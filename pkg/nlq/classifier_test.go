package nlq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/apperrors"
	"github.com/ontostock/ontostock-engine/pkg/knowledge"
)

func newTestPipeline(t *testing.T) (*Extractor, *Classifier) {
	t.Helper()
	res := testResources(t)
	return NewExtractor(res, zap.NewNop()),
		NewClassifier(res, DefaultRules(), 0.3, zap.NewNop())
}

// classify runs the full extract+classify pipeline for one question.
func classify(t *testing.T, question string) (string, error) {
	t.Helper()
	e, c := newTestPipeline(t)
	params := e.Extract(question)
	return c.Classify(question, &params)
}

// The regression suite pinning question -> template routing. Rule order
// is configuration; this table is what validates a reordering.
func TestClassifyRouting(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{"entity metric date", "Qual foi o preço de fechamento da Vale em 10/03/2023?", "Template_1A"},
		{"ticker metric", "Qual foi o preço mínimo de PETR4 em 10/03/2023?", "Template_1B"},
		{"entity share class", "Quais as ações ordinárias da Vale?", "Template_1C"},
		{"entity calculation", "Qual a variação percentual da Vale em 10/03/2023?", "Template_1D"},
		{"entity only", "O que você sabe sobre a Petrobras?", "Template_2A"},
		{"ticker lookup", "Qual o ticker da Vale?", "Template_2A"},
		{"entity sector", "Qual o setor de atuação da Gerdau?", "Template_2B"},
		{"sector listing", "Quais as ações do setor bancário?", "Template_3A"},
		{"sector companies", "Quais as empresas do setor de siderurgia?", "Template_3B"},
		{"sector metric", "Qual o volume negociado das ações do setor bancário em 10/03/2023?", "Template_4"},
		{"ranking", "Qual ação teve a maior alta percentual em 10/03/2023?", "Template_5A"},
		{"ranking in sector", "Quais as cinco ações com maior alta percentual no setor bancário?", "Template_5B"},
		{"ranking in index", "Qual ação do ibovespa teve o maior volume em 10/03/2023?", "Template_5B"},
		{"complex ranking", "Qual o volume negociado da ação com maior alta percentual?", "Template_6A"},
		{"complex ranking in sector", "Qual o preço de fechamento da ação do setor bancário com maior baixa absoluta?", "Template_6B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classify(t, tt.question)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Sector + ranking questions trigger both the group rules and the ranking
// rules; the ranking rule has higher priority and must win no matter how
// the dictionaries or exemplars are ordered.
func TestRulePriorityDeterminism(t *testing.T) {
	for range 5 {
		got, err := classify(t, "Quais as 3 ações com maior volume no setor bancário?")
		require.NoError(t, err)
		assert.Equal(t, "Template_5B", got)
	}
}

func TestClassifyAdjustsRankingCalculation(t *testing.T) {
	e, c := newTestPipeline(t)

	params := e.Extract("Quais as cinco ações com maior alta percentual no setor bancário?")
	id, err := c.Classify("Quais as cinco ações com maior alta percentual no setor bancário?", &params)
	require.NoError(t, err)

	assert.Equal(t, "Template_5B", id)
	assert.Equal(t, "variacao_perc", params.Calculation)
	assert.Equal(t, "5", params.Limit)
	assert.Equal(t, "DESC", params.Order)
	assert.Equal(t, "Bancos", params.SectorName)
}

func TestClassifySimilarityFallback(t *testing.T) {
	e, c := newTestPipeline(t)

	// No entity, no sector, no ranking: no rule fires, but the question
	// is close to the Template_1A exemplar.
	q := "qual foi o preco de fechamento em uma data"
	params := e.Extract(q)
	// The metric alone does not satisfy any rule without an entity.
	require.Empty(t, params.EntityName)

	id, err := c.Classify(q, &params)
	require.NoError(t, err)
	assert.Equal(t, "Template_1A", id)
}

func TestClassifyNoTemplate(t *testing.T) {
	_, err := classify(t, "Quantos habitantes tem o Brasil?")
	assert.ErrorIs(t, err, apperrors.ErrNoTemplate)
}

func TestClassifyCorpusUnfit(t *testing.T) {
	res, err := knowledge.New(
		map[string]string{}, map[string]string{}, map[string][]string{},
		knowledge.NewGroups(), knowledge.NewGroups(), nil,
	)
	require.NoError(t, err)

	c := NewClassifier(res, DefaultRules(), 0.3, zap.NewNop())
	e := NewExtractor(res, zap.NewNop())

	q := "qualquer pergunta sem regras"
	params := e.Extract(q)
	_, err = c.Classify(q, &params)
	assert.ErrorIs(t, err, apperrors.ErrCorpusUnfit)
}

func TestClassifyIdempotent(t *testing.T) {
	e, c := newTestPipeline(t)
	q := "Qual foi o preço de fechamento da Vale em 10/03/2023?"

	p1 := e.Extract(q)
	id1, err1 := c.Classify(q, &p1)
	p2 := e.Extract(q)
	id2, err2 := c.Classify(q, &p2)

	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, id1, id2)
	assert.Equal(t, p1, p2)
}

func TestDefaultRulesComplete(t *testing.T) {
	rules := DefaultRules()
	assert.Len(t, rules, len(ruleRegistry))
}

func TestLoadRuleOrder(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "rules.yaml")
		content := "rules:\n"
		for _, name := range defaultRuleOrder {
			content += "  - " + name + "\n"
		}
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		rules, err := LoadRuleOrder(path)
		require.NoError(t, err)
		assert.Len(t, rules, len(defaultRuleOrder))
	})

	t.Run("unknown rule", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - nao_existe\n"), 0o644))
		_, err := LoadRuleOrder(path)
		assert.Error(t, err)
	})

	t.Run("missing rule", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - ranking\n"), 0o644))
		_, err := LoadRuleOrder(path)
		assert.Error(t, err)
	})
}

// Reordering the table changes routing: that is the point of making the
// order explicit configuration, and why the routing regression table
// above must accompany any reorder.
func TestRuleOrderIsBehavior(t *testing.T) {
	res := testResources(t)
	e := NewExtractor(res, zap.NewNop())

	reordered := make([]string, 0, len(defaultRuleOrder))
	reordered = append(reordered, "grupo")
	for _, name := range defaultRuleOrder {
		if name != "grupo" {
			reordered = append(reordered, name)
		}
	}
	rules, err := resolveRuleOrder(reordered)
	require.NoError(t, err)

	c := NewClassifier(res, rules, 0.3, zap.NewNop())
	q := "Quais as 3 ações com maior volume no setor bancário?"
	params := e.Extract(q)
	id, err := c.Classify(q, &params)
	require.NoError(t, err)
	assert.Equal(t, "Template_3A", id)
}
