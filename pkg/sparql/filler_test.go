package sparql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testProperties() *Properties {
	return &Properties{
		Prefixes: map[string]string{
			"b3":   "https://ontostock.dev/b3#",
			"rdfs": "http://www.w3.org/2000/01/rdf-schema#",
			"xsd":  "http://www.w3.org/2001/XMLSchema#",
		},
		Structural: map[string]string{
			"P1":  "b3:temValorMobiliarioNegociado",
			"P2":  "b3:negociado",
			"P7":  "rdfs:label",
			"P9":  "b3:atuaNoSetor",
			"P10": "b3:ocorreEmPregao",
			"S1":  "empresa",
			"S4":  "setor",
			"SO1": "valorMobiliario",
		},
		Metrics: map[string]string{
			"metrica.preco_fechamento":  "b3:precoFechamento",
			"metrica.preco_minimo":      "b3:precoMinimo",
			"metrica.volume_financeiro": "b3:volumeNegociacao",
		},
	}
}

func newTestFiller() *Filler {
	return NewFiller(testProperties(), zap.NewNop())
}

func TestFillEntityMetricDate(t *testing.T) {
	f := newTestFiller()

	template := "SELECT ?valor WHERE {\n" +
		"    #FILTER_BLOCK_ENTIDADE#\n" +
		"    ?SO1 P2 ?negociacao .\n" +
		"    ?negociacao b3:data \"#DATA#\"^^xsd:date .\n" +
		"    ?negociacao #VALOR_DESEJADO# ?valor .\n" +
		"}\n"

	query, err := f.Fill(template, map[string]any{
		"ENTIDADE_NOME":  "Vale",
		"TIPO_ENTIDADE":  "nome",
		"DATA":           "2023-03-10",
		"VALOR_DESEJADO": "metrica.preco_fechamento",
	})
	require.NoError(t, err)

	assert.Contains(t, query, "PREFIX b3: <https://ontostock.dev/b3#>")
	assert.Contains(t, query, `FILTER(REGEX(STR(?label), "Vale", "i"))`)
	assert.Contains(t, query, `"2023-03-10"^^xsd:date`)
	assert.Contains(t, query, "b3:precoFechamento")
	// The answer variable is renamed after the metric.
	assert.Contains(t, query, "?precoFechamento")
	assert.NotContains(t, query, "?valor ")
	// Structural shorthand resolved, no placeholder tokens left.
	assert.Contains(t, query, "?valorMobiliario b3:negociado")
	assert.NotRegexp(t, `#[A-Z_]+#`, query)
}

func TestFillTickerBind(t *testing.T) {
	f := newTestFiller()

	query, err := f.Fill("#FILTER_BLOCK_ENTIDADE#\n?SO1 #VALOR_DESEJADO# ?valor .\n", map[string]any{
		"ENTIDADE_NOME":  "PETR4",
		"TIPO_ENTIDADE":  "ticker",
		"VALOR_DESEJADO": "metrica.preco_minimo",
	})
	require.NoError(t, err)

	assert.Contains(t, query, "BIND(b3:PETR4 AS ?valorMobiliario)")
	assert.Contains(t, query, "b3:precoMinimo")
}

func TestFillSectorBlock(t *testing.T) {
	f := newTestFiller()

	query, err := f.Fill("#FILTER_BLOCK_SETOR#\nORDER BY #ORDEM#(?x) LIMIT #LIMITE#\n", map[string]any{
		"NOME_SETOR": "Bancos",
		"ORDEM":      "DESC",
		"LIMITE":     "5",
	})
	require.NoError(t, err)

	assert.Contains(t, query, `?setor rdfs:label "Bancos"@pt .`)
	assert.Contains(t, query, "ORDER BY DESC(?x) LIMIT 5")
}

func TestFillTickerListWinsOverSector(t *testing.T) {
	f := newTestFiller()

	query, err := f.Fill("#FILTER_BLOCK#\n", map[string]any{
		"NOME_SETOR":    "Bancos",
		"LISTA_TICKERS": []string{"PETR4", "VALE3"},
	})
	require.NoError(t, err)

	assert.Contains(t, query, "VALUES ?valorMobiliario { b3:PETR4 b3:VALE3 }")
	assert.NotContains(t, query, "Bancos")
}

func TestFillCalculations(t *testing.T) {
	f := newTestFiller()

	tests := []struct {
		key  string
		want string
	}{
		{"variacao_abs", "ABS(?fechamento - ?abertura)"},
		{"variacao_perc", "((?fechamento - ?abertura) / ?abertura) * 100"},
		{"intervalo_abs", "ABS(?maximo - ?minimo)"},
		{"intervalo_perc", "((?maximo - ?minimo) / ?abertura) * 100"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			query, err := f.Fill("BIND(#CALCULO# AS ?resultado)\n", map[string]any{"CALCULO": tt.key})
			require.NoError(t, err)
			assert.Contains(t, query, tt.want)
		})
	}
}

func TestFillRankingCalculationSuffix(t *testing.T) {
	f := newTestFiller()

	query, err := f.Fill("ORDER BY DESC(#RANKING_CALCULATION#)\n", map[string]any{
		"RANKING_CALCULATION": "variacao_perc",
	})
	require.NoError(t, err)
	assert.Contains(t, query, "((?fechamento_rank - ?abertura_rank) / ?abertura_rank) * 100")
}

func TestFillRegexFilter(t *testing.T) {
	f := newTestFiller()

	t.Run("present", func(t *testing.T) {
		query, err := f.Fill("?x b3:ticker ?ticker .\n#REGEX_FILTER#\n", map[string]any{
			"REGEX_PATTERN": "[456]$",
		})
		require.NoError(t, err)
		assert.Contains(t, query, `FILTER(REGEX(STR(?ticker), "[456]$"))`)
	})

	t.Run("absent placeholder dropped", func(t *testing.T) {
		query, err := f.Fill("?x b3:ticker ?ticker .\n#REGEX_FILTER#\n", map[string]any{})
		require.NoError(t, err)
		assert.NotContains(t, query, "#REGEX_FILTER#")
	})
}

func TestFillEscapesLiterals(t *testing.T) {
	f := newTestFiller()

	query, err := f.Fill("#FILTER_BLOCK_ENTIDADE#\n", map[string]any{
		"ENTIDADE_NOME": `Va"le`,
		"TIPO_ENTIDADE": "nome",
	})
	require.NoError(t, err)
	assert.Contains(t, query, `\"`)
}

func TestToCamelCase(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"metrica.preco_fechamento", "precoFechamento"},
		{"metrica.volume_financeiro", "volumeFinanceiro"},
		{"b3:precoMaximo", "precoMaximo"},
		{"quantidade", "quantidade"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, toCamelCase(tt.in))
	}
}

func TestTemplateStore(t *testing.T) {
	dir := t.TempDir()
	content := "SELECT ?valor WHERE { #FILTER_BLOCK# }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Template_1A.txt"), []byte(content), 0o644))

	store, err := NewTemplateStore(dir)
	require.NoError(t, err)

	t.Run("load", func(t *testing.T) {
		got, err := store.Load("Template_1A")
		require.NoError(t, err)
		assert.Equal(t, content, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := store.Load("Template_9Z")
		assert.Error(t, err)
	})

	t.Run("traversal rejected", func(t *testing.T) {
		_, err := store.Load("../Template_1A")
		assert.Error(t, err)
	})

	t.Run("ids", func(t *testing.T) {
		ids, err := store.IDs()
		require.NoError(t, err)
		assert.Equal(t, []string{"Template_1A"}, ids)
	})
}

func TestPrefixHeaderStable(t *testing.T) {
	p := testProperties()
	first := p.PrefixHeader()
	for range 3 {
		assert.Equal(t, first, p.PrefixHeader())
	}
	assert.True(t, strings.HasPrefix(first, "PREFIX b3:"))
}
