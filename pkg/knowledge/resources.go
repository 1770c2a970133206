package knowledge

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/ontostock/ontostock-engine/pkg/textnorm"
)

// File names inside the resources directory. The formats are the ones the
// knowledge base is maintained in: JSON maps for dictionaries and
// "Template_X;question" lines for exemplars.
const (
	companyMapFile     = "empresa_nome_map.json"
	sectorMapFile      = "setor_map.json"
	indexMapFile       = "index_map.json"
	metricSynonymsFile = "metric_synonyms.json"
	referenceFile      = "reference_questions.txt"
)

// Exemplar is one reference question tagged with the template it
// exemplifies. The exemplar corpus feeds the TF-IDF fallback classifier.
type Exemplar struct {
	TemplateID string
	Text       string
}

// Resources is the process-wide, read-only knowledge bundle. It is
// constructed once at startup and passed into the extractor and
// classifier; nothing mutates it after Load returns, so concurrent
// requests can share it without locking.
type Resources struct {
	Companies *MatcherTable
	Sectors   *MatcherTable
	Indexes   []*IndexMatcher

	// Ranking holds ranking-intent phrase groups ("maior alta
	// percentual"); Metrics holds plain metric and calculation synonyms.
	// Both slices are priority-ordered: first group to match wins.
	Ranking []*PhraseGroup
	Metrics []*PhraseGroup

	Exemplars []Exemplar
}

type metricSynonymsDoc struct {
	Ranking []phraseGroupDoc `json:"ranking"`
	Metrics []phraseGroupDoc `json:"metrics"`
}

type phraseGroupDoc struct {
	Key     string   `json:"key"`
	Kind    string   `json:"kind,omitempty"`
	Phrases []string `json:"phrases"`
}

// Load reads every knowledge file from dir and compiles the matcher
// tables. Any missing or malformed file is a fatal configuration error:
// the service cannot classify anything without its dictionaries.
func Load(dir string, logger *zap.Logger) (*Resources, error) {
	companies, err := loadStringMap(filepath.Join(dir, companyMapFile))
	if err != nil {
		return nil, fmt.Errorf("load company map: %w", err)
	}
	sectors, err := loadStringMap(filepath.Join(dir, sectorMapFile))
	if err != nil {
		return nil, fmt.Errorf("load sector map: %w", err)
	}
	indexes, err := loadIndexMap(filepath.Join(dir, indexMapFile))
	if err != nil {
		return nil, fmt.Errorf("load index map: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, metricSynonymsFile))
	if err != nil {
		return nil, fmt.Errorf("load metric synonyms: %w", err)
	}
	var synonyms metricSynonymsDoc
	if err := json.Unmarshal(data, &synonyms); err != nil {
		return nil, fmt.Errorf("parse %s: %w", metricSynonymsFile, err)
	}

	exemplars, err := loadExemplars(filepath.Join(dir, referenceFile))
	if err != nil {
		return nil, fmt.Errorf("load reference questions: %w", err)
	}

	res, err := New(companies, sectors, indexes, synonyms.Ranking, synonyms.Metrics, exemplars)
	if err != nil {
		return nil, err
	}

	logger.Info("knowledge resources loaded",
		zap.Int("companies", res.Companies.Len()),
		zap.Int("sectors", res.Sectors.Len()),
		zap.Int("indexes", len(res.Indexes)),
		zap.Int("ranking_groups", len(res.Ranking)),
		zap.Int("metric_groups", len(res.Metrics)),
		zap.Int("exemplars", len(res.Exemplars)),
	)
	return res, nil
}

// New builds a resource bundle from already-parsed maps. Tests use it to
// inject synthetic dictionaries without touching the filesystem.
func New(
	companies, sectors map[string]string,
	indexes map[string][]string,
	ranking, metrics []phraseGroupDoc,
	exemplars []Exemplar,
) (*Resources, error) {
	companyTable, err := NewMatcherTable(companies)
	if err != nil {
		return nil, fmt.Errorf("company table: %w", err)
	}
	sectorTable, err := NewMatcherTable(sectors)
	if err != nil {
		return nil, fmt.Errorf("sector table: %w", err)
	}

	indexKeys := make([]string, 0, len(indexes))
	for key := range indexes {
		indexKeys = append(indexKeys, key)
	}
	sort.Slice(indexKeys, func(i, j int) bool { return len(indexKeys[i]) > len(indexKeys[j]) })
	indexMatchers := make([]*IndexMatcher, 0, len(indexKeys))
	for _, key := range indexKeys {
		m, err := NewIndexMatcher(key, indexes[key])
		if err != nil {
			return nil, err
		}
		indexMatchers = append(indexMatchers, m)
	}

	rankingGroups, err := compileGroups(ranking)
	if err != nil {
		return nil, fmt.Errorf("ranking groups: %w", err)
	}
	metricGroups, err := compileGroups(metrics)
	if err != nil {
		return nil, fmt.Errorf("metric groups: %w", err)
	}

	return &Resources{
		Companies: companyTable,
		Sectors:   sectorTable,
		Indexes:   indexMatchers,
		Ranking:   rankingGroups,
		Metrics:   metricGroups,
		Exemplars: exemplars,
	}, nil
}

// NewGroups builds phrase-group documents for use with New. Tests use it
// to declare synonym tables inline.
func NewGroups(groups ...phraseGroupDoc) []phraseGroupDoc { return groups }

// Group declares one phrase group.
func Group(key, kind string, phrases ...string) phraseGroupDoc {
	return phraseGroupDoc{Key: key, Kind: kind, Phrases: phrases}
}

func compileGroups(docs []phraseGroupDoc) ([]*PhraseGroup, error) {
	groups := make([]*PhraseGroup, 0, len(docs))
	for _, doc := range docs {
		g, err := NewPhraseGroup(doc.Key, doc.Kind, doc.Phrases)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, nil
}

func loadStringMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

func loadIndexMap(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return m, nil
}

// loadExemplars parses "Template_X;question text" lines. Blank lines and
// lines starting with '#' are skipped. A template may have several
// exemplar questions. Exemplar text is normalized so the TF-IDF space is
// accent-insensitive.
func loadExemplars(path string) ([]Exemplar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var exemplars []Exemplar
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, text, found := strings.Cut(line, ";")
		if !found {
			return nil, fmt.Errorf("%s:%d: expected 'template_id;question'", filepath.Base(path), lineNo)
		}
		exemplars = append(exemplars, Exemplar{
			TemplateID: strings.TrimSpace(id),
			Text:       textnorm.Normalize(strings.TrimSpace(text)),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return exemplars, nil
}
