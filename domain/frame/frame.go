package frame

import (
	"strconv"

	"riskfusion/domain/core"
)

// Frame is the in-memory table exchanged between pipeline stages. Row
// position is the only identity a record has.
type Frame struct {
	Records []Record

	// InputColumns is the header order of the ingested table, including the
	// label and passthrough columns.
	InputColumns []string

	// LabelColumn is the name the ground-truth label was read from; empty when
	// the table had no label column.
	LabelColumn string

	groups []ColumnGroup
}

// New builds a frame from observations. If any observation is labeled the
// frame gets the default label column.
func New(observations ...Observation) *Frame {
	f := &Frame{
		Records:      make([]Record, len(observations)),
		InputColumns: append([]string(nil), InputFeatures...),
	}
	for i, o := range observations {
		f.Records[i] = Record{Observation: o}
		if o.Labeled() {
			f.LabelColumn = DefaultLabelColumn
		}
	}
	if f.LabelColumn != "" {
		f.InputColumns = append(f.InputColumns, f.LabelColumn)
	}
	return f
}

// Len returns the number of rows
func (f *Frame) Len() int {
	return len(f.Records)
}

// Clone returns a deep copy; stages applied to the copy never touch f.
func (f *Frame) Clone() *Frame {
	out := &Frame{
		Records:      make([]Record, len(f.Records)),
		InputColumns: append([]string(nil), f.InputColumns...),
		LabelColumn:  f.LabelColumn,
		groups:       append([]ColumnGroup(nil), f.groups...),
	}
	for i, r := range f.Records {
		out.Records[i] = r.clone()
	}
	return out
}

// Validate checks every observation. It is the ingestion gate: rows with
// missing or non-finite features are rejected, never coerced.
func (f *Frame) Validate() error {
	for i := range f.Records {
		if err := f.Records[i].Observation.Validate(i); err != nil {
			return err
		}
	}
	return nil
}

// HasLabelColumn reports whether the frame was built with the named label column.
func (f *Frame) HasLabelColumn(name string) bool {
	return f.LabelColumn != "" && f.LabelColumn == name
}

// LabeledCount returns how many rows carry a ground-truth label.
func (f *Frame) LabeledCount() int {
	n := 0
	for i := range f.Records {
		if f.Records[i].Labeled() {
			n++
		}
	}
	return n
}

// AddGroup records that a stage appended its columns. Repeated calls keep the
// first insertion position.
func (f *Frame) AddGroup(g ColumnGroup) {
	if f.HasGroup(g) {
		return
	}
	f.groups = append(f.groups, g)
}

// HasGroup reports whether a stage's columns are present.
func (f *Frame) HasGroup(g ColumnGroup) bool {
	for _, existing := range f.groups {
		if existing == g {
			return true
		}
	}
	return false
}

// Columns returns every column name in insertion order.
func (f *Frame) Columns() []string {
	cols := append([]string(nil), f.InputColumns...)
	for _, g := range f.groups {
		cols = append(cols, g.Columns()...)
	}
	return cols
}

// Column extracts one numeric column. It returns a SchemaError when any row
// lacks the column.
func (f *Frame) Column(name string) ([]float64, error) {
	out := make([]float64, len(f.Records))
	for i := range f.Records {
		v, ok := f.Records[i].Value(name)
		if !ok {
			return nil, schemaError(name, i, "column absent")
		}
		out[i] = v
	}
	return out, nil
}

// Matrix extracts the named columns row by row.
func (f *Frame) Matrix(columns []string) ([][]float64, error) {
	out := make([][]float64, len(f.Records))
	for i := range f.Records {
		row := make([]float64, len(columns))
		for j, name := range columns {
			v, ok := f.Records[i].Value(name)
			if !ok {
				return nil, schemaError(name, i, "column absent")
			}
			row[j] = v
		}
		out[i] = row
	}
	return out, nil
}

// Table renders the frame as headers plus string cells. Numbers use the
// shortest representation that round-trips, so equal frames render
// byte-identically.
func (f *Frame) Table() ([]string, [][]string) {
	headers := f.Columns()
	rows := make([][]string, len(f.Records))
	for i := range f.Records {
		r := &f.Records[i]
		row := make([]string, 0, len(headers))
		for _, col := range f.InputColumns {
			row = append(row, f.inputCell(r, col))
		}
		for _, g := range f.groups {
			for _, col := range g.Columns() {
				row = append(row, outputCell(r, col))
			}
		}
		rows[i] = row
	}
	return headers, rows
}

// Fingerprint hashes the rendered table.
func (f *Frame) Fingerprint() core.FrameHash {
	headers, rows := f.Table()
	return core.ComputeFrameHash(headers, rows)
}

func (f *Frame) inputCell(r *Record, col string) string {
	if isInputFeature(col) {
		v, _ := r.Value(col)
		return FormatFloat(v)
	}
	if col == f.LabelColumn {
		if r.OutbreakRisk == nil {
			return ""
		}
		return strconv.Itoa(*r.OutbreakRisk)
	}
	return r.Passthrough[col]
}

func outputCell(r *Record, col string) string {
	switch col {
	case ColRuleRiskLevel:
		if r.Rule != nil {
			return r.Rule.RiskLevel
		}
		return ""
	case ColRuleHighRiskFlag, ColMLPredictedClass:
		if v, ok := r.Value(col); ok {
			return strconv.Itoa(int(v))
		}
		return ""
	}
	if v, ok := r.Value(col); ok {
		return FormatFloat(v)
	}
	return ""
}

// FormatFloat renders a value the way Table does.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func schemaError(column string, row int, reason string) error {
	return core.NewSchemaError(column, row, reason)
}
