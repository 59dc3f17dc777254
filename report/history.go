// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/xuri/excelize/v2"

	"github.com/danielhkuo/classpoll/models"
)

// Sheet names
const (
	HistorySheet = "History"
	ResultsSheet = "Results"
)

var (
	historyHeader = []interface{}{"Poll ID", "Question", "Duration (s)", "Total Votes", "Started", "Completed", "Completed (relative)"}
	resultsHeader = []interface{}{"Poll ID", "Question", "Option #", "Option", "Votes", "Percentage"}
)

// HistoryWorkbook builds a workbook with one row per completed poll on the
// History sheet and one row per option on the Results sheet.
// now anchors the relative completion column.
func HistoryWorkbook(history []models.HistoryEntry, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", HistorySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name history sheet: %w", err)
	}
	if _, err := f.NewSheet(ResultsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create results sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeRow(f, HistorySheet, 1, historyHeader); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRow(f, ResultsSheet, 1, resultsHeader); err != nil {
		f.Close()
		return nil, err
	}
	for _, sheet := range []string{HistorySheet, ResultsSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	resultRow := 2
	for i, entry := range history {
		row := []interface{}{
			entry.ID,
			entry.Question,
			entry.Duration,
			entry.TotalVotes,
			formatTime(entry.StartTime),
			formatTime(entry.CompletedAt),
			relative(entry.CompletedAt, now),
		}
		if err := writeRow(f, HistorySheet, i+2, row); err != nil {
			f.Close()
			return nil, err
		}

		for _, r := range entry.Results {
			row := []interface{}{entry.ID, entry.Question, r.Index + 1, r.Text, r.Votes, fmt.Sprintf("%d%%", r.Percentage)}
			if err := writeRow(f, ResultsSheet, resultRow, row); err != nil {
				f.Close()
				return nil, err
			}
			resultRow++
		}
	}

	if err := f.SetColWidth(HistorySheet, "B", "B", 48); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetColWidth(ResultsSheet, "B", "B", 48); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	return f, nil
}

// WriteHistory renders the history workbook to w as xlsx
func WriteHistory(w io.Writer, history []models.HistoryEntry, now time.Time) error {
	f, err := HistoryWorkbook(history, now)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func relative(t *time.Time, now time.Time) string {
	if t == nil {
		return ""
	}
	return humanize.RelTime(*t, now, "ago", "from now")
}
