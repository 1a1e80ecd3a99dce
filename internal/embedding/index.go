// Package embedding holds the precomputed product vectors used by style
// search and the text encoders that produce query vectors.
package embedding

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"styleshop/internal/domain"
)

// Entry is one row of the index. Vector is unit length.
type Entry struct {
	Name     string
	Category string
	Vector   []float32
}

// Index is immutable after load and safe for concurrent readers.
type Index struct {
	entries []Entry
	dim     int
}

// Scored is an index position with its similarity to a query.
type Scored struct {
	Pos   int
	Entry Entry
	Score float32
}

// LoadFile reads an index from a CSV file.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()
	return LoadCSV(f)
}

// LoadCSV reads a header row naming at least goods_name and vector, then one
// product per row. The vector cell is a bracketed float list, e.g. "[0.1, -0.2]".
func LoadCSV(r io.Reader) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.Invalid("index", "empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read index header: %w", err)
	}

	nameCol, vecCol, catCol := -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "goods_name":
			nameCol = i
		case "vector":
			vecCol = i
		case "category":
			catCol = i
		}
	}
	if nameCol < 0 || vecCol < 0 {
		return nil, domain.Invalid("index", "header needs goods_name and vector columns")
	}

	idx := &Index{}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read index line %d: %w", line, err)
		}
		if nameCol >= len(rec) || vecCol >= len(rec) {
			return nil, domain.Invalid("index", "line %d: missing columns", line)
		}
		vec, err := ParseVector(rec[vecCol])
		if err != nil {
			return nil, domain.Invalid("index", "line %d: %v", line, err)
		}
		if idx.dim == 0 {
			idx.dim = len(vec)
		} else if len(vec) != idx.dim {
			return nil, domain.Invalid("index", "line %d: dimension %d, want %d", line, len(vec), idx.dim)
		}
		if !normalize(vec) {
			return nil, domain.Invalid("index", "line %d: zero vector", line)
		}
		e := Entry{Name: strings.TrimSpace(rec[nameCol]), Vector: vec}
		if catCol >= 0 && catCol < len(rec) {
			e.Category = strings.TrimSpace(rec[catCol])
		}
		idx.entries = append(idx.entries, e)
	}
	if len(idx.entries) == 0 {
		return nil, domain.Invalid("index", "no entries")
	}
	return idx, nil
}

// New builds an index from in-memory entries, normalising copies of their vectors.
func New(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, domain.Invalid("index", "no entries")
	}
	idx := &Index{dim: len(entries[0].Vector)}
	for i, e := range entries {
		if len(e.Vector) != idx.dim || idx.dim == 0 {
			return nil, domain.Invalid("index", "entry %d: dimension %d, want %d", i, len(e.Vector), idx.dim)
		}
		v := append([]float32(nil), e.Vector...)
		if !normalize(v) {
			return nil, domain.Invalid("index", "entry %d: zero vector", i)
		}
		idx.entries = append(idx.entries, Entry{Name: e.Name, Category: e.Category, Vector: v})
	}
	return idx, nil
}

// ParseVector parses "[a, b, c]".
func ParseVector(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("vector must be bracketed")
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, fmt.Errorf("empty vector")
	}
	parts := strings.Split(body, ",")
	out := make([]float32, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func (x *Index) Len() int { return len(x.entries) }

func (x *Index) Dim() int { return x.dim }

// Entry returns the entry at pos.
func (x *Index) Entry(pos int) Entry { return x.entries[pos] }

// Categories returns distinct category labels in first-seen order.
func (x *Index) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range x.entries {
		if e.Category == "" {
			continue
		}
		if _, ok := seen[e.Category]; ok {
			continue
		}
		seen[e.Category] = struct{}{}
		out = append(out, e.Category)
	}
	return out
}

// Rank scores every entry against query by cosine similarity and returns
// them best first. Equal scores keep index order.
func (x *Index) Rank(query []float32) ([]Scored, error) {
	if len(query) != x.dim {
		return nil, domain.Invalid("query", "dimension %d, want %d", len(query), x.dim)
	}
	q := append([]float32(nil), query...)
	if !normalize(q) {
		return nil, domain.Invalid("query", "zero vector")
	}
	out := make([]Scored, len(x.entries))
	for i, e := range x.entries {
		out[i] = Scored{Pos: i, Entry: e, Score: dot(q, e.Vector)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// TopK is Rank truncated to k entries.
func (x *Index) TopK(query []float32, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, domain.Invalid("top_k", "must be positive")
	}
	ranked, err := x.Rank(query)
	if err != nil {
		return nil, err
	}
	if k < len(ranked) {
		ranked = ranked[:k]
	}
	return ranked, nil
}

func dot(a, b []float32) float32 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return float32(s)
}

// normalize scales v to unit length in place. It reports false for a zero
// or non-finite vector.
func normalize(v []float32) bool {
	var ss float64
	for _, f := range v {
		ss += float64(f) * float64(f)
	}
	n := math.Sqrt(ss)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return false
	}
	for i := range v {
		v[i] = float32(float64(v[i]) / n)
	}
	return true
}
