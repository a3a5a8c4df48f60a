package candidate

// Candidate is a nearest-neighbor hit returned by a vector source.
// Score is raw similarity and may fall outside [0,1].
type Candidate struct {
	id    string
	score float64
}

// New creates a candidate.
func New(id string, score float64) Candidate {
	return Candidate{id: id, score: score}
}

// ID returns the document identifier.
func (c *Candidate) ID() string { return c.id }

// Score returns the raw vector similarity.
func (c *Candidate) Score() float64 { return c.score }

// IDs returns candidate identifiers in order.
func IDs(cs []Candidate) []string {
	ids := make([]string, len(cs))
	for i := range cs {
		ids[i] = cs[i].id
	}
	return ids
}
