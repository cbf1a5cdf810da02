// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"fmt"
	"io"

	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/tally"
	"github.com/xuri/excelize/v2"
)

// Workbook sheet names
const (
	SheetSummary = "Summary"
	SheetOptions = "Options"
	SheetText    = "Text"
)

// WriteXLSX writes a workbook with one sheet per concern: per-question
// summary, option counts and open text answers.
func WriteXLSX(w io.Writer, poll models.Poll, result models.PollResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to name summary sheet: %w", err)
	}
	for _, name := range []string{SheetOptions, SheetText} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", name, err)
		}
	}

	summary := [][]interface{}{
		{"Poll", poll.Title},
		{"Status", poll.Status},
		{"Respondents", result.TotalRespondents},
		{},
		{"Question", "Type", "Votes", "Score"},
	}
	options := [][]interface{}{
		{"Question", "Option", "Count", "Percentage", "Color", "Average Rank"},
	}
	texts := [][]interface{}{
		{"Question", "Response"},
	}

	for _, qr := range result.QuestionResults {
		summary = append(summary, []interface{}{qr.QuestionText, string(qr.Type), qr.TotalVotes, summaryValue(qr)})

		for _, opt := range qr.OptionResults {
			row := []interface{}{qr.QuestionText, opt.Text, opt.Count, tally.FormatPercent(opt.Percentage, 1), opt.Color}
			if qr.Type == models.TypeRanking {
				row = append(row, opt.AverageRank)
			}
			options = append(options, row)
		}

		for _, text := range qr.TextResponses {
			texts = append(texts, []interface{}{qr.QuestionText, text})
		}
	}

	for sheet, rows := range map[string][][]interface{}{
		SheetSummary: summary,
		SheetOptions: options,
		SheetText:    texts,
	} {
		if err := writeRows(f, sheet, rows); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write xlsx: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
