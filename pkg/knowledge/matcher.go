package knowledge

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/ontostock/ontostock-engine/pkg/textnorm"
)

// matchEntry is one precompiled dictionary pattern. Keys are normalized
// (lower-case, no diacritics) and matched on word boundaries so that
// "banco do brasil" does not fire inside "bancos".
type matchEntry struct {
	Key     string
	Value   string
	pattern *regexp.Regexp
}

// MatcherTable is an ordered dictionary matcher. Entries are sorted
// longest key first at construction time: short aliases in this domain are
// substrings of longer, more specific ones ("csn" vs "csn mineracao"), so
// the longer key must always win. The ordering is fixed here, not in the
// scan loop.
type MatcherTable struct {
	entries []matchEntry
}

// NewMatcherTable compiles a surface-form -> canonical-value dictionary
// into a longest-first matcher table.
func NewMatcherTable(m map[string]string) (*MatcherTable, error) {
	entries := make([]matchEntry, 0, len(m))
	for key, value := range m {
		norm := textnorm.Normalize(key)
		pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(norm) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile pattern for key %q: %w", key, err)
		}
		entries = append(entries, matchEntry{Key: norm, Value: value, pattern: pattern})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].Key) != len(entries[j].Key) {
			return len(entries[i].Key) > len(entries[j].Key)
		}
		return entries[i].Key < entries[j].Key
	})

	return &MatcherTable{entries: entries}, nil
}

// Find returns the first (longest) key whose pattern occurs in the
// normalized text.
func (t *MatcherTable) Find(normText string) (key, value string, ok bool) {
	for _, e := range t.entries {
		if e.pattern.MatchString(normText) {
			return e.Key, e.Value, true
		}
	}
	return "", "", false
}

// Len returns the number of entries in the table.
func (t *MatcherTable) Len() int { return len(t.entries) }

// PhraseGroup maps one canonical key to its synonym phrases. Phrases are
// compiled longest first; the first group whose phrase matches wins, so
// slice order between groups encodes priority.
type PhraseGroup struct {
	Key      string
	Kind     string // "calc" for derived metrics, "" or "metric" otherwise
	patterns []*regexp.Regexp
}

// NewPhraseGroup compiles the phrases for a canonical key.
func NewPhraseGroup(key, kind string, phrases []string) (*PhraseGroup, error) {
	sorted := make([]string, len(phrases))
	copy(sorted, phrases)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	patterns := make([]*regexp.Regexp, 0, len(sorted))
	for _, phrase := range sorted {
		norm := textnorm.Normalize(phrase)
		p, err := regexp.Compile(`\b` + regexp.QuoteMeta(norm) + `\b`)
		if err != nil {
			return nil, fmt.Errorf("compile phrase %q for key %q: %w", phrase, key, err)
		}
		patterns = append(patterns, p)
	}
	return &PhraseGroup{Key: key, Kind: kind, patterns: patterns}, nil
}

// Match returns the pattern of the first phrase found in the normalized
// text, or nil when none matches.
func (g *PhraseGroup) Match(normText string) *regexp.Regexp {
	for _, p := range g.patterns {
		if p.MatchString(normText) {
			return p
		}
	}
	return nil
}

// IndexMatcher recognizes a market-index mention and carries its
// constituent tickers. The pattern tolerates a leading preposition
// ("no ibovespa", "ações do ibrx 50").
type IndexMatcher struct {
	Key     string
	Tickers []string
	pattern *regexp.Regexp
}

// NewIndexMatcher compiles the matcher for one index name.
func NewIndexMatcher(key string, tickers []string) (*IndexMatcher, error) {
	norm := textnorm.Normalize(key)
	p, err := regexp.Compile(`\b(?:no|do|da|de|entre as|do indice|acoes do)?\s*` + regexp.QuoteMeta(norm) + `\b`)
	if err != nil {
		return nil, fmt.Errorf("compile index pattern %q: %w", key, err)
	}
	return &IndexMatcher{Key: norm, Tickers: tickers, pattern: p}, nil
}

// Match reports whether the index is mentioned in the normalized text.
func (m *IndexMatcher) Match(normText string) bool {
	return m.pattern.MatchString(normText)
}
