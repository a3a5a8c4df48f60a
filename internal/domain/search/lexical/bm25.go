package lexical

import "math"

// Params are the BM25 tuning parameters.
type Params struct {
	K1 float64 // term-frequency saturation
	B  float64 // length normalization
}

// DefaultParams returns k1=1.2, b=0.75.
func DefaultParams() Params {
	return Params{K1: 1.2, B: 0.75}
}

// Score returns the BM25 relevance of docTerms for queryTerms, squashed into [0,1)
// via raw/(raw+1). Terms absent from the batch contribute nothing.
func Score(queryTerms, docTerms []string, stats CorpusStats, p Params) float64 {
	if len(queryTerms) == 0 || stats.size == 0 {
		return 0
	}

	tf := TermFrequency(docTerms)
	docLen := float64(len(docTerms))
	avgLen := stats.avgLength
	if avgLen <= 0 {
		avgLen = 1
	}

	var raw float64
	seen := make(map[string]struct{}, len(queryTerms))
	for _, term := range queryTerms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}

		df := stats.docFreq[term]
		if df == 0 {
			continue
		}
		freq := float64(tf[term])
		if freq == 0 {
			continue
		}
		raw += idf(stats.size, df) * tfNorm(freq, docLen, avgLen, p)
	}

	if raw <= 0 || math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	return raw / (raw + 1)
}

// idf is the smoothed inverse document frequency, always positive.
func idf(n, df int) float64 {
	return math.Log((float64(n)-float64(df)+0.5)/(float64(df)+0.5) + 1)
}

func tfNorm(tf, docLen, avgLen float64, p Params) float64 {
	return tf * (p.K1 + 1) / (tf + p.K1*(1-p.B+p.B*(docLen/avgLen)))
}
