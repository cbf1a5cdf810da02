// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/danielhkuo/pollcast/models"
	"github.com/danielhkuo/pollcast/tally"
)

// Format names accepted by the export endpoint
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

// ParseFormat resolves a query value, defaulting to CSV.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type served for f.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// FileName builds a download name from the poll title.
func FileName(poll models.Poll, f Format) string {
	base := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(poll.Title), "-"), "-")
	if base == "" {
		base = poll.ID
	}
	return base + "-results." + string(f)
}

// Row kinds in the flat CSV layout
const (
	KindOption  = "option"
	KindSummary = "summary"
	KindText    = "text"
)

var csvHeader = []string{"kind", "question_id", "question", "type", "item", "count", "percentage", "color", "value"}

// Records flattens a result into CSV rows, header first. Each question gets a
// summary row, then one row per option, then one row per text answer.
func Records(result models.PollResult) [][]string {
	records := [][]string{csvHeader}

	for _, qr := range result.QuestionResults {
		question := csvText(qr.QuestionText)
		records = append(records, []string{
			KindSummary, qr.QuestionID, question, string(qr.Type),
			"", strconv.Itoa(qr.TotalVotes), "", "", summaryValue(qr),
		})

		for _, opt := range qr.OptionResults {
			value := ""
			if qr.Type == models.TypeRanking {
				value = strconv.FormatFloat(opt.AverageRank, 'f', 2, 64)
			}
			records = append(records, []string{
				KindOption, qr.QuestionID, question, string(qr.Type),
				csvText(opt.Text), strconv.Itoa(opt.Count), tally.FormatPercent(opt.Percentage, 1), opt.Color, value,
			})
		}

		for _, text := range qr.TextResponses {
			records = append(records, []string{
				KindText, qr.QuestionID, question, string(qr.Type),
				csvText(text), "", "", "", "",
			})
		}
	}

	return records
}

// csvText keeps user supplied text from being read as a formula when the
// file is opened in a spreadsheet. Computed cells such as "+50" are not
// passed through it.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// summaryValue is the headline number of a question: the average for ratings,
// the NPS for NPS questions and nothing otherwise.
func summaryValue(qr models.QuestionResult) string {
	switch qr.Type {
	case models.TypeRating:
		return tally.FormatScore(qr.AverageScore)
	case models.TypeNPS:
		return tally.FormatNPS(qr.NPSScore)
	default:
		return ""
	}
}

// WriteCSV writes the flat result table.
func WriteCSV(w io.Writer, result models.PollResult) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Records(result)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteJSON writes the full results document, indented.
func WriteJSON(w io.Writer, resp models.ResultsResponse) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}
