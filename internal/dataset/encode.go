package dataset

import (
	"fmt"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
)

// Encoder maps raw frames to numeric matrices using statistics learned from
// the training rows: numeric columns are mean-imputed and categorical
// columns are one-hot encoded over the categories seen in training.
type Encoder struct {
	columns []encodedColumn
	names   []string
}

type encodedColumn struct {
	name        string
	categorical bool
	mean        float64
	categories  []string
	index       map[string]int
	offset      int
}

// FitEncoder learns imputation means and category sets from the given rows
// of f. A nil rows slice means every row.
func FitEncoder(f *Frame, rows []int) (*Encoder, error) {
	if rows == nil {
		rows = make([]int, f.Len())
		for i := range rows {
			rows[i] = i
		}
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("encoder needs at least one training row")
	}

	enc := &Encoder{}
	offset := 0
	for j, name := range f.Columns {
		col := encodedColumn{name: name, categorical: f.Categorical[j], offset: offset}
		if col.categorical {
			seen := make(map[string]bool)
			for _, r := range rows {
				cell := f.Values[r][j]
				if !f.IsMissing(cell) {
					seen[cell] = true
				}
			}
			for c := range seen {
				col.categories = append(col.categories, c)
			}
			sort.Strings(col.categories)
			col.index = make(map[string]int, len(col.categories))
			for k, c := range col.categories {
				col.index[c] = k
				enc.names = append(enc.names, name+"="+c)
			}
			offset += len(col.categories)
		} else {
			var present []float64
			for _, r := range rows {
				cell := f.Values[r][j]
				if f.IsMissing(cell) {
					continue
				}
				v, err := strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("column %s: %w", name, err)
				}
				present = append(present, v)
			}
			if len(present) > 0 {
				col.mean = stat.Mean(present, nil)
			}
			enc.names = append(enc.names, name)
			offset++
		}
		enc.columns = append(enc.columns, col)
	}
	if offset == 0 {
		return nil, fmt.Errorf("encoder produced no features")
	}
	return enc, nil
}

// Width returns the number of encoded features
func (e *Encoder) Width() int {
	return len(e.names)
}

// FeatureNames returns the encoded feature names; one-hot columns are name=value
func (e *Encoder) FeatureNames() []string {
	out := make([]string, len(e.names))
	copy(out, e.names)
	return out
}

// Transform encodes every row of f. Columns are matched by name, so f may be
// a different file from the one the encoder was fit on. Unseen categories
// and missing categorical cells encode as all zeros.
func (e *Encoder) Transform(f *Frame) ([][]float64, error) {
	pos := make(map[string]int, len(f.Columns))
	for j, name := range f.Columns {
		pos[name] = j
	}
	src := make([]int, len(e.columns))
	for i, col := range e.columns {
		j, ok := pos[col.name]
		if !ok {
			return nil, fmt.Errorf("column %s is missing", col.name)
		}
		src[i] = j
	}

	width := e.Width()
	X := make([][]float64, f.Len())
	for r, values := range f.Values {
		row := make([]float64, width)
		for i, col := range e.columns {
			cell := values[src[i]]
			if col.categorical {
				if k, ok := col.index[cell]; ok {
					row[col.offset+k] = 1
				}
				continue
			}
			if f.IsMissing(cell) {
				row[col.offset] = col.mean
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, &ParseError{Line: r + 2, Column: col.name, Reason: "expected a number, got " + strconv.Quote(cell)}
			}
			row[col.offset] = v
		}
		X[r] = row
	}
	return X, nil
}
