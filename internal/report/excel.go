package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"sensex-pulse/internal/models"
)

const (
	sheetSignals  = "Signals"
	sheetSnapshot = "Snapshot"
	sheetSkipped  = "Skipped"
)

// XLSXFileName returns the dated file name for a run's workbook.
func XLSXFileName(asOf time.Time) string {
	return "sensex_pulse_" + asOf.Format("2006-01-02") + ".xlsx"
}

// WriteXLSX writes the report as a workbook with Signals, Snapshot and
// Skipped sheets, creating parent directories as needed.
func WriteXLSX(rep *Report, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSignals); err != nil {
		return fmt.Errorf("xlsx signals sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("xlsx header style: %w", err)
	}

	if err := writeSignalsSheet(f, rep.Rows, style); err != nil {
		return fmt.Errorf("xlsx signals sheet: %w", err)
	}
	if err := writeSnapshotSheet(f, rep, style); err != nil {
		return fmt.Errorf("xlsx snapshot sheet: %w", err)
	}
	if err := writeSkippedSheet(f, rep.Skipped, style); err != nil {
		return fmt.Errorf("xlsx skipped sheet: %w", err)
	}

	if idx, err := f.GetSheetIndex(sheetSignals); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}

func writeSignalsSheet(f *excelize.File, rows []Row, style int) error {
	header := make([]interface{}, len(signalHeaders))
	for i, h := range signalHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetSignals, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSignals, "A1", "I1", style); err != nil {
		return err
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.Symbol, r.Direction, r.LastClose, r.EntryZone,
			r.TargetPrice, r.StopLoss, r.RiskLevel, r.ProbabilityPct, r.Reasons,
		}
		if err := f.SetSheetRow(sheetSignals, cell, &row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetSignals, "A", "A", 16); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSignals, "B", "H", 15); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetSignals, "I", "I", 60); err != nil {
		return err
	}

	// Keep the header visible while scrolling.
	return f.SetPanes(sheetSignals, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func writeSnapshotSheet(f *excelize.File, rep *Report, style int) error {
	if _, err := f.NewSheet(sheetSnapshot); err != nil {
		return err
	}

	rowNum := 1
	writeRow := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		rowNum++
		return f.SetSheetRow(sheetSnapshot, cell, &values)
	}

	if rep.Benchmark != nil {
		b := rep.Benchmark
		change := interface{}("")
		if b.HasChange {
			change = b.ChangePct
		}
		if err := writeRow([]interface{}{"Benchmark", b.Symbol, b.LastClose, change}); err != nil {
			return err
		}
		rowNum++
	}

	sections := []struct {
		title  string
		header []interface{}
		rows   [][]interface{}
	}{
		{"Top Gainers", []interface{}{"Symbol", "Last Close", "Change %"}, moverRows(rep.Snapshot.Gainers)},
		{"Top Losers", []interface{}{"Symbol", "Last Close", "Change %"}, moverRows(rep.Snapshot.Losers)},
		{"Volume Leaders", []interface{}{"Symbol", "Last Close", "Volume"}, volumeRows(rep.Snapshot.VolumeLeaders)},
	}

	for _, sec := range sections {
		if len(sec.rows) == 0 {
			continue
		}

		titleCell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := writeRow([]interface{}{sec.title}); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheetSnapshot, titleCell, titleCell, style); err != nil {
			return err
		}

		if err := writeRow(sec.header); err != nil {
			return err
		}
		for _, row := range sec.rows {
			if err := writeRow(row); err != nil {
				return err
			}
		}
		rowNum++
	}

	return f.SetColWidth(sheetSnapshot, "A", "D", 16)
}

func moverRows(movers []models.SymbolOverview) [][]interface{} {
	rows := make([][]interface{}, 0, len(movers))
	for _, o := range movers {
		rows = append(rows, []interface{}{o.Symbol, o.LastClose, o.ChangePct})
	}
	return rows
}

func volumeRows(leaders []models.SymbolOverview) [][]interface{} {
	rows := make([][]interface{}, 0, len(leaders))
	for _, o := range leaders {
		rows = append(rows, []interface{}{o.Symbol, o.LastClose, o.Volume})
	}
	return rows
}

func writeSkippedSheet(f *excelize.File, skipped []models.SkippedSymbol, style int) error {
	if _, err := f.NewSheet(sheetSkipped); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheetSkipped, "A1", &[]interface{}{"Symbol", "Reason"}); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetSkipped, "A1", "B1", style); err != nil {
		return err
	}

	for i, s := range skipped {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetSkipped, cell, &[]interface{}{s.Symbol, s.Reason}); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetSkipped, "A", "A", 16); err != nil {
		return err
	}
	return f.SetColWidth(sheetSkipped, "B", "B", 60)
}
