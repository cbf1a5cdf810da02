// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package export renders poll results as downloadable files.

  - CSV: one flat table, see Records for the row layout
  - JSON: the results document, indented
  - XLSX: a workbook with Summary, Options and Text sheets (excelize)

Percentages, averages and NPS values go through the tally formatters so every
format shows the same numbers.
*/
package export
