package db

import (
	"encoding/binary"
	"errors"
	"math"
	"strconv"
)

// DefaultVectorField is the alias KNN queries target unless VectorField is set.
const DefaultVectorField = "vector"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName   string
	VectorField string
	// PreFilter is a raw FT.SEARCH expression applied before KNN, e.g. "@source:{changelog}".
	PreFilter    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// Validate reports a query FT.SEARCH would reject.
func (q *KNNQuery) Validate() error {
	switch {
	case q.IndexName == "":
		return errors.New("index name is required")
	case len(q.Vector) == 0:
		return errors.New("vector is required")
	case q.K <= 0:
		return errors.New("k must be positive")
	}
	return nil
}

// ScoreField is the attribute FT.SEARCH fills with the cosine distance.
func (q *KNNQuery) ScoreField() string {
	return "__" + q.field() + "_score"
}

// Args renders FT.SEARCH arguments after the command name. Hits come back
// nearest first, at most K of them.
func (q *KNNQuery) Args() []string {
	knn := "[KNN " + strconv.Itoa(q.K) + " @" + q.field() + " $BLOB]"
	expr := "*=>" + knn
	if q.PreFilter != "" {
		expr = "(" + q.PreFilter + ")=>" + knn
	}

	args := []string{q.IndexName, expr}
	if n := len(q.ReturnFields); n > 0 {
		args = append(args, "RETURN", strconv.Itoa(n+1))
		args = append(args, q.ReturnFields...)
		args = append(args, q.ScoreField())
	}
	return append(args,
		"SORTBY", q.ScoreField(), "ASC",
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", EncodeVector(q.Vector),
		"DIALECT", "2",
	)
}

func (q *KNNQuery) field() string {
	if q.VectorField == "" {
		return DefaultVectorField
	}
	return q.VectorField
}

// EncodeVector packs v as little-endian FLOAT32, the blob layout of HNSW fields.
func EncodeVector(v []float32) string {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return string(buf)
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single hit. Score is cosine similarity clamped to [0,1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
