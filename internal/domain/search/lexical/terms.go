// Package lexical computes BM25 relevance over an in-memory document batch.
package lexical

import (
	"strings"
	"unicode"
)

// Tokenize lowercases text and splits it on any run of non-alphanumeric runes.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TermFrequency counts occurrences of each term.
func TermFrequency(terms []string) map[string]int {
	tf := make(map[string]int, len(terms))
	for _, t := range terms {
		tf[t]++
	}
	return tf
}

// DocumentFrequency counts the documents containing each term at least once.
func DocumentFrequency(corpus [][]string) map[string]int {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	return df
}

// AverageLength returns the mean term count per document, 1.0 for an empty corpus.
func AverageLength(corpus [][]string) float64 {
	if len(corpus) == 0 {
		return 1.0
	}
	total := 0
	for _, doc := range corpus {
		total += len(doc)
	}
	return float64(total) / float64(len(corpus))
}

// CorpusStats are the batch-level statistics BM25 needs.
type CorpusStats struct {
	size      int
	docFreq   map[string]int
	avgLength float64
}

// NewCorpusStats computes statistics over tokenized documents.
func NewCorpusStats(corpus [][]string) CorpusStats {
	return CorpusStats{
		size:      len(corpus),
		docFreq:   DocumentFrequency(corpus),
		avgLength: AverageLength(corpus),
	}
}

// Size returns the number of documents in the batch.
func (s *CorpusStats) Size() int { return s.size }

// DocFreq returns the document frequency of term.
func (s *CorpusStats) DocFreq(term string) int { return s.docFreq[term] }

// AvgLength returns the mean document length in terms.
func (s *CorpusStats) AvgLength() float64 { return s.avgLength }
