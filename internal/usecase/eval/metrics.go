package eval

import "math"

// ReciprocalRank returns 1/rank of the first relevant hit, 0 if none.
func ReciprocalRank(hits []string, gold map[string]struct{}) float64 {
	for i, id := range hits {
		if _, ok := gold[id]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// NDCG returns binary-relevance NDCG@k with a log2 discount.
// The ideal ranking places min(|gold|, k) relevant documents first.
func NDCG(hits []string, gold map[string]struct{}, k int) float64 {
	var dcg float64
	for i := 0; i < len(hits) && i < k; i++ {
		if _, ok := gold[hits[i]]; ok {
			dcg += discount(i)
		}
	}

	var idcg float64
	for i := 0; i < len(gold) && i < k; i++ {
		idcg += discount(i)
	}
	if idcg == 0 {
		return 0
	}
	return dcg / idcg
}

// Recall returns |top-k ∩ gold| / |gold|, 0 for an empty gold set.
func Recall(hits []string, gold map[string]struct{}, k int) float64 {
	if len(gold) == 0 {
		return 0
	}
	found := 0
	for i := 0; i < len(hits) && i < k; i++ {
		if _, ok := gold[hits[i]]; ok {
			found++
		}
	}
	return float64(found) / float64(len(gold))
}

func discount(pos int) float64 {
	return 1 / math.Log2(float64(pos+2))
}

func goldSet(ids []string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}
