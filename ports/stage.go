package ports

import (
	"riskfusion/domain/frame"
)

// ScoringStage is one step of the fusion pipeline. Apply enriches the frame in
// place and must either append its whole column group or return an error
// without touching any record.
type ScoringStage interface {
	// Name returns the stage name used in logs and the CLI
	Name() string

	// Group returns the column group the stage appends
	Group() frame.ColumnGroup

	// Apply runs the stage over the whole batch
	Apply(f *frame.Frame) error
}
