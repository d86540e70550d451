package frame

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"riskfusion/domain/core"
)

// IngestOptions controls how a raw table becomes a Frame.
type IngestOptions struct {
	LabelColumn string // defaults to DefaultLabelColumn
	MaxRows     int    // 0 means unlimited
}

// FromTable converts a decoded table (header row plus string cells) into a
// Frame. Every row must carry the five input features as finite numbers;
// the first offending cell produces a SchemaError and no frame is returned.
// Columns that are neither features nor the label are kept as passthrough,
// except derived score columns, which are dropped.
func FromTable(headers []string, rows [][]string, opts IngestOptions) (*Frame, error) {
	labelColumn := opts.LabelColumn
	if labelColumn == "" {
		labelColumn = DefaultLabelColumn
	}
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		return nil, core.NewBatchTooLargeError(len(rows), opts.MaxRows)
	}

	index := make(map[string]int, len(headers))
	cleaned := make([]string, 0, len(headers))
	for i, h := range headers {
		name := strings.TrimSpace(h)
		if _, dup := index[name]; dup {
			return nil, core.NewSchemaError(name, -1, "duplicate column")
		}
		index[name] = i
		// Derived columns from an earlier run are recomputed, not carried.
		if _, derived := GroupOf(name); derived {
			continue
		}
		cleaned = append(cleaned, name)
	}
	for _, feature := range InputFeatures {
		if _, ok := index[feature]; !ok {
			return nil, core.NewSchemaError(feature, -1, "required column absent")
		}
	}

	f := &Frame{
		Records:      make([]Record, len(rows)),
		InputColumns: cleaned,
	}
	if _, ok := index[labelColumn]; ok {
		f.LabelColumn = labelColumn
	}

	for i, row := range rows {
		cell := func(col string) string {
			j := index[col]
			if j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		var obs Observation
		values := []*float64{&obs.Temperature, &obs.Humidity, &obs.Rainfall, &obs.VegetationIndex, &obs.SoilMoisture}
		for k, feature := range InputFeatures {
			v, err := parseFinite(cell(feature))
			if err != nil {
				return nil, core.NewSchemaError(feature, i, err.Error())
			}
			*values[k] = v
		}

		if f.LabelColumn != "" {
			label, err := parseLabel(cell(f.LabelColumn))
			if err != nil {
				return nil, core.NewSchemaError(f.LabelColumn, i, err.Error())
			}
			obs.OutbreakRisk = label
		}

		rec := Record{Observation: obs}
		for _, col := range cleaned {
			if isInputFeature(col) || col == f.LabelColumn {
				continue
			}
			if rec.Passthrough == nil {
				rec.Passthrough = make(map[string]string)
			}
			rec.Passthrough[col] = cell(col)
		}
		f.Records[i] = rec
	}

	return f, nil
}

func parseFinite(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("value missing")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not numeric", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("value %q is not finite", s)
	}
	return v, nil
}

// parseLabel accepts 0/1 in integer or float spelling; an empty cell means
// the row is unlabeled.
func parseLabel(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || (v != 0 && v != 1) {
		return nil, fmt.Errorf("label %q must be 0 or 1", s)
	}
	return Label(int(v)), nil
}
