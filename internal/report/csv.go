package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
)

// CSVFileName returns the dated file name for a run's CSV export.
func CSVFileName(asOf time.Time) string {
	return "signals_" + asOf.Format("2006-01-02") + ".csv"
}

// WriteCSV writes the signal rows to path, creating parent directories
// as needed. An empty report still produces a header-only file.
func WriteCSV(rep *Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(&rep.Rows, f); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
