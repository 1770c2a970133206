package ontology

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/knakk/rdf"
	"go.uber.org/zap"
)

// Stats summarizes the loaded graph.
type Stats struct {
	Triples    int            `json:"triples"`
	Subjects   int            `json:"subjects"`
	Predicates map[string]int `json:"predicates"`
}

// Graph holds the parsed ontology triples. The service does not query
// the graph directly (queries go to the SPARQL endpoint); loading it at
// startup validates the Turtle file and exposes inventory stats.
type Graph struct {
	triples []rdf.Triple
	stats   Stats
}

// Load parses a Turtle file into a Graph. An unreadable, malformed or
// empty file is an error so a broken deploy fails at startup.
func Load(path string, logger *zap.Logger) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ontology: %w", err)
	}
	defer f.Close()

	g, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse ontology %s: %w", path, err)
	}
	if len(g.triples) == 0 {
		return nil, fmt.Errorf("ontology %s contains no triples", path)
	}

	logger.Info("ontology loaded",
		zap.String("path", path),
		zap.Int("triples", g.stats.Triples),
		zap.Int("subjects", g.stats.Subjects),
	)
	return g, nil
}

func decode(r io.Reader) (*Graph, error) {
	dec := rdf.NewTripleDecoder(r, rdf.Turtle)

	g := &Graph{stats: Stats{Predicates: make(map[string]int)}}
	subjects := make(map[string]struct{})
	for {
		triple, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		g.triples = append(g.triples, triple)
		g.stats.Predicates[triple.Pred.String()]++
		subjects[triple.Subj.String()] = struct{}{}
	}
	g.stats.Triples = len(g.triples)
	g.stats.Subjects = len(subjects)
	return g, nil
}

// Stats returns the graph inventory.
func (g *Graph) Stats() Stats {
	return g.stats
}

// Predicates lists the distinct predicate IRIs, sorted.
func (g *Graph) Predicates() []string {
	preds := make([]string, 0, len(g.stats.Predicates))
	for p := range g.stats.Predicates {
		preds = append(preds, p)
	}
	sort.Strings(preds)
	return preds
}
