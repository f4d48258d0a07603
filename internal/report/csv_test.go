package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sensex-pulse/internal/models"
)

func TestCSVFileName(t *testing.T) {
	assert.Equal(t, "signals_2025-06-20.csv", CSVFileName(reportAsOf))
}

func TestWriteCSVContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", CSVFileName(reportAsOf))
	require.NoError(t, WriteCSV(sampleReport(), path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 3)

	assert.Equal(t,
		"Stock Name,Signal (BUY/SELL),Current Price,Entry Zone,Target Price,Stop Loss,Risk Level,Probability (%),Reason",
		lines[0])
	assert.Equal(t,
		"RELIANCE.NS,BUY,2875.4,2846.65 - 2904.15,2964.2,2790.1,LOW,68,trend aligned up; MACD crossed above signal",
		lines[1])
	assert.Equal(t,
		"TATAMOTORS.NS,SELL,975.25,965.50 - 985.00,946,994.75,HIGH,61.5,RSI overbought at 81.2",
		lines[2])
}

func TestWriteCSVEmptyReport(t *testing.T) {
	rep := Build(&models.EvaluationResult{AsOf: reportAsOf}, Options{})

	path := filepath.Join(t.TempDir(), CSVFileName(reportAsOf))
	require.NoError(t, WriteCSV(rep, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(raw), "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "Stock Name,"))
}
