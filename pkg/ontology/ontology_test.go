package ontology

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleTurtle = `@prefix b3: <https://ontostock.dev/b3#> .
@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .

b3:Vale rdfs:label "Vale"@pt ;
    b3:temValorMobiliarioNegociado b3:VALE3 .
b3:Petrobras rdfs:label "Petrobras"@pt ;
    b3:temValorMobiliarioNegociado b3:PETR4 .
`

func writeOntology(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "b3.ttl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	g, err := Load(writeOntology(t, sampleTurtle), zap.NewNop())
	require.NoError(t, err)

	stats := g.Stats()
	assert.Equal(t, 4, stats.Triples)
	assert.Equal(t, 2, stats.Subjects)
	assert.Equal(t, 2, stats.Predicates["http://www.w3.org/2000/01/rdf-schema#label"])
	assert.Equal(t, 2, stats.Predicates["https://ontostock.dev/b3#temValorMobiliarioNegociado"])
}

func TestLoadEmptyFile(t *testing.T) {
	_, err := Load(writeOntology(t, ""), zap.NewNop())
	assert.ErrorContains(t, err, "no triples")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.ttl"), zap.NewNop())
	assert.Error(t, err)
}

func TestLoadMalformed(t *testing.T) {
	_, err := Load(writeOntology(t, "this is not turtle {{{"), zap.NewNop())
	assert.Error(t, err)
}

func TestPredicatesSorted(t *testing.T) {
	g, err := Load(writeOntology(t, sampleTurtle), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"http://www.w3.org/2000/01/rdf-schema#label",
		"https://ontostock.dev/b3#temValorMobiliarioNegociado",
	}, g.Predicates())
}
