package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestXLSXFileName(t *testing.T) {
	assert.Equal(t, "sensex_pulse_2025-06-20.xlsx", XLSXFileName(reportAsOf))
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", XLSXFileName(reportAsOf))
	require.NoError(t, WriteXLSX(sampleReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{sheetSignals, sheetSnapshot, sheetSkipped}, f.GetSheetList())

	cell := func(sheet, ref string) string {
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}

	assert.Equal(t, "Stock Name", cell(sheetSignals, "A1"))
	assert.Equal(t, "Reason", cell(sheetSignals, "I1"))
	assert.Equal(t, "RELIANCE.NS", cell(sheetSignals, "A2"))
	assert.Equal(t, "BUY", cell(sheetSignals, "B2"))
	assert.Equal(t, "2875.4", cell(sheetSignals, "C2"))
	assert.Equal(t, "2846.65 - 2904.15", cell(sheetSignals, "D2"))
	assert.Equal(t, "68", cell(sheetSignals, "H2"))
	assert.Equal(t, "TATAMOTORS.NS", cell(sheetSignals, "A3"))
	assert.Equal(t, "SELL", cell(sheetSignals, "B3"))

	assert.Equal(t, "Benchmark", cell(sheetSnapshot, "A1"))
	assert.Equal(t, "^BSESN", cell(sheetSnapshot, "B1"))

	assert.Equal(t, "Symbol", cell(sheetSkipped, "A1"))
	assert.Equal(t, "BAD.NS", cell(sheetSkipped, "A2"))
	assert.Equal(t, "connection refused", cell(sheetSkipped, "B2"))
}

func TestWriteXLSXFreezesSignalsHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), XLSXFileName(reportAsOf))
	require.NoError(t, WriteXLSX(sampleReport(), path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	panes, err := f.GetPanes(sheetSignals)
	require.NoError(t, err)
	assert.True(t, panes.Freeze)
	assert.Equal(t, 1, panes.YSplit)
}

func TestWriteXLSXSnapshotSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), XLSXFileName(reportAsOf))
	rep := sampleReport()
	require.NoError(t, WriteXLSX(rep, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetSnapshot)
	require.NoError(t, err)

	var titles []string
	for _, row := range rows {
		if len(row) == 1 {
			titles = append(titles, row[0])
		}
	}
	assert.Equal(t, []string{"Top Gainers", "Top Losers", "Volume Leaders"}, titles)
}
