package export

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/mcoot/cardtally/internal/services/report"
)

const (
	historySheet = "History"
	totalsSheet  = "Totals"
)

// WriteHistoryXLSX writes the round history and per-player totals as a workbook
func WriteHistoryXLSX(w io.Writer, groups []report.RoundGroup, totals report.Totals) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", historySheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := setRow(f, historySheet, 1, "Round", "Date", "Player", "Score"); err != nil {
		return err
	}
	row := 2
	for i, g := range groups {
		for _, e := range g.Entries {
			if err := setRow(f, historySheet, row, i+1, g.Timestamp.Format("2006-01-02 15:04:05"), e.Player, e.Score); err != nil {
				return err
			}
			row++
		}
	}

	if _, err := f.NewSheet(totalsSheet); err != nil {
		return fmt.Errorf("create totals sheet: %w", err)
	}
	if err := setRow(f, totalsSheet, 1, "Player", "Total"); err != nil {
		return err
	}
	row = 2
	for _, player := range slices.Sorted(maps.Keys(totals.ByPlayer)) {
		if err := setRow(f, totalsSheet, row, player, totals.ByPlayer[player]); err != nil {
			return err
		}
		row++
	}
	if err := setRow(f, totalsSheet, row, "Total", totals.Total); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
