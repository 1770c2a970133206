package similarity

import (
	"math"
	"strings"
	"unicode"
)

// Vectorizer builds TF-IDF vectors over a fixed corpus. Fit once at
// startup with the reference questions, then Transform each incoming
// question against the learned vocabulary. Not safe for concurrent Fit,
// but Transform is read-only after fitting.
type Vectorizer struct {
	idf      map[string]float64
	docCount int
	fitted   bool
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer() *Vectorizer {
	return &Vectorizer{idf: make(map[string]float64)}
}

// Fit learns document frequencies from the corpus. Smoothed IDF
// (log((n+1)/(df+1)) + 1) keeps terms that appear in every document from
// vanishing, which matters for tiny exemplar corpora.
func (v *Vectorizer) Fit(corpus []string) {
	v.docCount = len(corpus)
	docFreq := make(map[string]int)

	for _, doc := range corpus {
		seen := make(map[string]bool)
		for _, token := range tokenize(doc) {
			if !seen[token] {
				docFreq[token]++
				seen[token] = true
			}
		}
	}

	n := float64(v.docCount)
	for term, df := range docFreq {
		v.idf[term] = math.Log((n+1)/(float64(df)+1)) + 1
	}
	v.fitted = v.docCount > 0
}

// Fitted reports whether Fit ran over a non-empty corpus.
func (v *Vectorizer) Fitted() bool { return v.fitted }

// Transform converts a document into a TF-IDF vector over the fitted
// vocabulary. Out-of-vocabulary terms are dropped.
func (v *Vectorizer) Transform(doc string) map[string]float64 {
	tokens := tokenize(doc)
	termFreq := make(map[string]int)
	for _, token := range tokens {
		termFreq[token]++
	}

	vector := make(map[string]float64)
	total := float64(len(tokens))
	for term, freq := range termFreq {
		if idf, ok := v.idf[term]; ok {
			vector[term] = float64(freq) / total * idf
		}
	}
	return vector
}

// FitTransform fits on the corpus and returns one vector per document.
func (v *Vectorizer) FitTransform(corpus []string) []map[string]float64 {
	v.Fit(corpus)
	vectors := make([]map[string]float64, len(corpus))
	for i, doc := range corpus {
		vectors[i] = v.Transform(doc)
	}
	return vectors
}

// Cosine computes cosine similarity between two sparse vectors.
func Cosine(vec1, vec2 map[string]float64) float64 {
	if len(vec1) == 0 || len(vec2) == 0 {
		return 0.0
	}

	dot := 0.0
	norm1 := 0.0
	norm2 := 0.0

	for term, val1 := range vec1 {
		if val2, ok := vec2[term]; ok {
			dot += val1 * val2
		}
		norm1 += val1 * val1
	}
	for _, val2 := range vec2 {
		norm2 += val2 * val2
	}

	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

// tokenize lower-cases, strips punctuation and splits into words.
// Single-character tokens are dropped; articles like "a" and "o" would
// otherwise dominate similarity between short questions.
func tokenize(doc string) []string {
	doc = strings.ToLower(strings.TrimSpace(doc))

	var b strings.Builder
	for _, r := range doc {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	words := strings.Fields(b.String())
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) >= 2 {
			tokens = append(tokens, w)
		}
	}
	return tokens
}
