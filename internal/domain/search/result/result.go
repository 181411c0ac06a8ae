package result

// Record is a hydrated search hit.
type Record struct {
	id     string
	index  string
	score  float64
	fields map[string]any
}

// NewRecord creates a record.
func NewRecord(id, index string, score float64, fields map[string]any) Record {
	return Record{id: id, index: index, score: score, fields: fields}
}

// ID returns the document identifier.
func (r Record) ID() string { return r.id }

// Index returns the index the document was found in.
func (r Record) Index() string { return r.index }

// Score returns the relevance score.
func (r Record) Score() float64 { return r.score }

// Fields returns the document fields.
func (r Record) Fields() map[string]any { return r.fields }

// Hit is one raw backend hit before hydration.
type Hit struct {
	ID     string
	Index  string
	Score  float64
	Source map[string]any
}

// Bucket is one aggregation entry: a distinct value and its document count.
type Bucket struct {
	Key      string
	DocCount int64
}

// Response is the backend answer to one compiled query.
type Response struct {
	Total        int64
	Hits         []Hit
	Aggregations map[string][]Bucket
}

// Buckets returns the buckets of the named aggregation (nil when absent).
func (r *Response) Buckets(name string) []Bucket {
	if r == nil {
		return nil
	}
	return r.Aggregations[name]
}
