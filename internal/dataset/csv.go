// Package dataset turns labeled CSV files into feature matrices: loading,
// imputation and one-hot encoding, partitioning, and writing submissions.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/GoSim-25-26J-441/hpsweep/pkg/config"
)

// Schema says how to interpret the columns of a CSV file
type Schema struct {
	IDColumn      string
	LabelColumn   string
	PositiveLabel string // empty => 1/yes/true vs 0/no/false
	Categorical   []string
	Drop          []string
	Missing       []string
	Delimiter     rune
	RequireLabel  bool
}

// SchemaFromConfig builds a schema from the dataset section of an experiment
func SchemaFromConfig(d config.Dataset, requireLabel bool) Schema {
	return Schema{
		IDColumn:      d.IDColumn,
		LabelColumn:   d.LabelColumn,
		PositiveLabel: d.PositiveLabel,
		Categorical:   d.Categorical,
		Drop:          d.Drop,
		Missing:       d.MissingOrDefault(),
		Delimiter:     d.DelimiterRune(),
		RequireLabel:  requireLabel,
	}
}

// Frame is a loaded CSV: raw feature cells plus ids and 0/1 labels
type Frame struct {
	IDs         []string
	Columns     []string   // feature column names, in file order
	Values      [][]string // Values[row][feature]
	Labels      []int      // nil for unlabeled files
	Categorical []bool     // per feature column

	missing map[string]bool
}

// ParseError locates a malformed cell
type ParseError struct {
	Line   int
	Column string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("line %d, column %s: %s", e.Line, e.Column, e.Reason)
}

// ErrNoRows is returned for a file with a header but no data
var ErrNoRows = errors.New("dataset: no data rows")

// LoadFile opens path and calls Load
func LoadFile(path string, schema Schema) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	frame, err := Load(bufio.NewReader(f), schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return frame, nil
}

// Load reads a CSV with a header row. Every column other than the id, the
// label and the dropped ones becomes a feature. A column is categorical when
// the schema lists it or when any non-missing cell is not a number.
func Load(r io.Reader, schema Schema) (*Frame, error) {
	reader := csv.NewReader(r)
	if schema.Delimiter != 0 {
		reader.Comma = schema.Delimiter
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Reason: "missing header row"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	idCol, labelCol := -1, -1
	drop := toSet(schema.Drop)
	categorical := toSet(schema.Categorical)
	frame := &Frame{missing: toSet(schema.Missing)}
	var featureIdx []int
	for i, name := range header {
		switch {
		case schema.IDColumn != "" && name == schema.IDColumn:
			idCol = i
		case schema.LabelColumn != "" && name == schema.LabelColumn:
			labelCol = i
		case drop[name]:
		default:
			featureIdx = append(featureIdx, i)
			frame.Columns = append(frame.Columns, name)
			frame.Categorical = append(frame.Categorical, categorical[name])
		}
	}
	if schema.IDColumn != "" && idCol < 0 {
		return nil, &ParseError{Line: 1, Column: schema.IDColumn, Reason: "id column not found"}
	}
	if schema.RequireLabel && labelCol < 0 {
		return nil, &ParseError{Line: 1, Column: schema.LabelColumn, Reason: "label column not found"}
	}
	if len(featureIdx) == 0 {
		return nil, &ParseError{Line: 1, Reason: "no feature columns"}
	}
	if labelCol >= 0 {
		frame.Labels = []int{}
	}

	line := 1
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}

		if idCol >= 0 {
			frame.IDs = append(frame.IDs, rec[idCol])
		} else {
			frame.IDs = append(frame.IDs, strconv.Itoa(line-1))
		}
		if labelCol >= 0 {
			label, err := parseLabel(rec[labelCol], schema.PositiveLabel, frame.missing)
			if err != nil {
				return nil, &ParseError{Line: line, Column: schema.LabelColumn, Reason: err.Error()}
			}
			frame.Labels = append(frame.Labels, label)
		}

		row := make([]string, len(featureIdx))
		for j, col := range featureIdx {
			cell := strings.TrimSpace(rec[col])
			row[j] = cell
			if !frame.Categorical[j] && !frame.missing[cell] {
				if _, err := strconv.ParseFloat(cell, 64); err != nil {
					frame.Categorical[j] = true
				}
			}
		}
		frame.Values = append(frame.Values, row)
	}

	if len(frame.Values) == 0 {
		return nil, ErrNoRows
	}
	return frame, nil
}

func parseLabel(cell, positive string, missing map[string]bool) (int, error) {
	cell = strings.TrimSpace(cell)
	if missing[cell] {
		return 0, fmt.Errorf("missing label")
	}
	if positive != "" {
		if cell == positive {
			return 1, nil
		}
		return 0, nil
	}
	switch strings.ToLower(cell) {
	case "1", "yes", "true", "1.0":
		return 1, nil
	case "0", "no", "false", "0.0":
		return 0, nil
	}
	return 0, fmt.Errorf("label %q is not binary; set positive_label", cell)
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Values)
}

// IsMissing reports whether a cell is one of the missing markers
func (f *Frame) IsMissing(cell string) bool {
	return f.missing[cell]
}

// Labeled reports whether the frame carries labels
func (f *Frame) Labeled() bool {
	return f.Labels != nil
}

// Positives counts rows labeled 1
func (f *Frame) Positives() int {
	n := 0
	for _, l := range f.Labels {
		n += l
	}
	return n
}

// Select returns the labels at the given rows
func Select(labels []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = labels[r]
	}
	return out
}

// SelectRows returns the feature rows at the given indices
func SelectRows(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, r := range idx {
		out[i] = X[r]
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
