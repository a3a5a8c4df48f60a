package db

import (
	"encoding/binary"
	"math"
)

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// Score is cosine similarity (1 - distance), not clamped.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// VectorToBytes encodes a vector as little-endian FLOAT32 for HASH storage and KNN params.
func VectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
