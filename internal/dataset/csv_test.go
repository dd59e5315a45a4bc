package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const titanicCSV = `PassengerId,Survived,Pclass,Sex,Age,Fare,Cabin
1,0,3,male,22,7.25,
2,1,1,female,38,71.28,C85
3,1,3,female,NA,7.92,
4,1,1,female,35,53.1,C123
5,0,3,male,35,8.05,
`

func titanicSchema() Schema {
	return Schema{
		IDColumn:     "PassengerId",
		LabelColumn:  "Survived",
		Drop:         []string{"Cabin"},
		Missing:      []string{"", "NA"},
		RequireLabel: true,
	}
}

func TestLoad(t *testing.T) {
	f, err := Load(strings.NewReader(titanicCSV), titanicSchema())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Len() != 5 {
		t.Fatalf("expected 5 rows, got %d", f.Len())
	}
	wantCols := []string{"Pclass", "Sex", "Age", "Fare"}
	if strings.Join(f.Columns, ",") != strings.Join(wantCols, ",") {
		t.Fatalf("expected columns %v, got %v", wantCols, f.Columns)
	}
	wantCat := []bool{false, true, false, false}
	for i := range wantCat {
		if f.Categorical[i] != wantCat[i] {
			t.Fatalf("column %s: expected categorical=%v", f.Columns[i], wantCat[i])
		}
	}
	if f.IDs[1] != "2" || f.Positives() != 3 || !f.Labeled() {
		t.Fatalf("unexpected ids/labels: %v %v", f.IDs, f.Labels)
	}
	if !f.IsMissing(f.Values[2][2]) {
		t.Fatalf("expected NA age to be missing, got %q", f.Values[2][2])
	}
}

func TestLoadForcedCategorical(t *testing.T) {
	schema := titanicSchema()
	schema.Categorical = []string{"Pclass"}
	f, err := Load(strings.NewReader(titanicCSV), schema)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.Categorical[0] {
		t.Fatal("Pclass should be categorical when listed")
	}
}

func TestLoadPositiveLabel(t *testing.T) {
	data := "id,income,age\na,>50K,40\nb,<=50K,22\nc,>50K,51\n"
	f, err := Load(strings.NewReader(data), Schema{IDColumn: "id", LabelColumn: "income", PositiveLabel: ">50K", RequireLabel: true})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []int{1, 0, 1}
	for i := range want {
		if f.Labels[i] != want[i] {
			t.Fatalf("expected labels %v, got %v", want, f.Labels)
		}
	}
}

func TestLoadUnlabeled(t *testing.T) {
	data := "PassengerId,Pclass,Sex\n10,3,male\n11,1,female\n"
	f, err := Load(strings.NewReader(data), Schema{IDColumn: "PassengerId", LabelColumn: "Survived"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Labeled() {
		t.Fatal("test file should be unlabeled")
	}
	if len(f.Columns) != 2 {
		t.Fatalf("expected 2 feature columns, got %v", f.Columns)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		schema Schema
	}{
		{"empty", "", titanicSchema()},
		{"no rows", "PassengerId,Survived,Pclass\n", titanicSchema()},
		{"missing label column", "PassengerId,Pclass\n1,3\n", titanicSchema()},
		{"missing id column", "Survived,Pclass\n1,3\n", titanicSchema()},
		{"non-binary label", "PassengerId,Survived,Pclass\n1,maybe,3\n", titanicSchema()},
		{"missing label", "PassengerId,Survived,Pclass\n1,NA,3\n", titanicSchema()},
		{"ragged row", "PassengerId,Survived,Pclass\n1,0\n", titanicSchema()},
		{"no features", "PassengerId,Survived\n1,0\n", titanicSchema()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(strings.NewReader(tt.data), tt.schema); err == nil {
				t.Fatal("expected error")
			}
		})
	}

	_, err := Load(strings.NewReader("PassengerId,Survived,Pclass\n1,maybe,3\n"), titanicSchema())
	var parseErr *ParseError
	if !errors.As(err, &parseErr) || parseErr.Line != 2 {
		t.Fatalf("expected *ParseError on line 2, got %v", err)
	}
	if _, err := Load(strings.NewReader("PassengerId,Survived,Pclass\n"), titanicSchema()); !errors.Is(err, ErrNoRows) {
		t.Fatalf("expected ErrNoRows, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(path, []byte(titanicCSV), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := LoadFile(path, titanicSchema())
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if f.Len() != 5 {
		t.Fatalf("expected 5 rows, got %d", f.Len())
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.csv"), titanicSchema()); err == nil {
		t.Fatal("expected error for missing file")
	}
}
