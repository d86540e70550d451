package tabular

import (
	"os"
	"path/filepath"
	"testing"

	"riskfusion/domain/core"
	"riskfusion/internal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quietLogger = internal.NewLogger(internal.LogLevelError)

var sampleHeaders = []string{"temperature", "humidity", "rule_risk_level", "outbreak_risk"}

var sampleRows = [][]string{
	{"35", "20", "High", "1"},
	{"25.5", "60", "Low", ""},
}

func TestFileType(t *testing.T) {
	assert.Equal(t, FileTypeCSV, FileType("data.csv"))
	assert.Equal(t, FileTypeCSV, FileType("DATA.CSV"))
	assert.Equal(t, FileTypeXLSX, FileType("data.xlsx"))
	assert.Equal(t, FileTypeXLSX, FileType("data"))
}

func TestCSV_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.csv")
	require.NoError(t, Write(path, sampleHeaders, sampleRows))

	table, err := NewReader(path, quietLogger).Read()
	require.NoError(t, err)
	assert.Equal(t, sampleHeaders, table.Headers)
	assert.Equal(t, sampleRows, table.Rows)
}

func TestCSV_PadsShortRowsAndSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := " temperature ,humidity,outbreak_risk\n31,25\n,,\n28,40,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewReader(path, quietLogger).Read()
	require.NoError(t, err)
	assert.Equal(t, []string{"temperature", "humidity", "outbreak_risk"}, table.Headers)
	assert.Equal(t, [][]string{{"31", "25", ""}, {"28", "40", "0"}}, table.Rows)
}

func TestCSV_RejectsCellsPastHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.csv")
	content := "temperature,humidity\n31,25\n28,40,0.7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := NewReader(path, quietLogger).Read()
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
	assert.Contains(t, err.Error(), "row 1")
	assert.Contains(t, err.Error(), "3 cells")
}

func TestToTable_ToleratesTrailingEmptyCells(t *testing.T) {
	table, err := toTable([][]string{{"temperature", "humidity"}, {"31", "25", "", " "}})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"31", "25"}}, table.Rows)

	_, err = toTable([][]string{{"temperature"}, {"31", "", "x"}})
	assert.True(t, core.IsSchemaError(err))
}

func TestXLSX_WriteThenRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enriched.xlsx")
	require.NoError(t, Write(path, sampleHeaders, sampleRows))

	table, err := NewReader(path, quietLogger).Read()
	require.NoError(t, err)
	assert.Equal(t, sampleHeaders, table.Headers)
	assert.Equal(t, sampleRows, table.Rows)
}

func TestRead_Errors(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing.csv"), quietLogger).Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = NewReader(empty, quietLogger).Read()
	assert.Error(t, err)

	notExcel := filepath.Join(t.TempDir(), "data.xlsx")
	require.NoError(t, os.WriteFile(notExcel, []byte("not a zip"), 0o644))
	_, err = NewReader(notExcel, quietLogger).Read()
	assert.Error(t, err)
}
