// Package csvimport parses delimited transaction exports into import
// records using a caller-supplied field mapping.
package csvimport

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/mentat/internal/model"
)

// Structural import errors. Any of these fails the whole import before row
// processing begins; there is no partial output.
var (
	ErrEmptyInput    = errors.New("csv input contains no data rows")
	ErrMissingColumn = errors.New("required column not found")
	ErrFieldCount    = errors.New("field count mismatch")
	ErrInvalidAmount = errors.New("amount is not a number")
	ErrMissingValue  = errors.New("required field is empty")
)

// Logical field names callers may alias via the field mapping.
const (
	FieldDate         = "date"
	FieldAmount       = "amount"
	FieldDescription  = "description"
	FieldAccountID    = "accountId"
	FieldMerchantName = "merchantName"
	FieldType         = "transactionType"
	FieldCategory     = "category"
	FieldReference    = "reference"
)

// requiredFields must resolve to a non-empty value on every data row.
var requiredFields = []string{FieldDate, FieldAmount, FieldDescription, FieldAccountID}

var optionalFields = []string{FieldMerchantName, FieldType, FieldCategory, FieldReference}

// FieldMapping aliases logical field names to actual column headers. A
// logical field absent from the map defaults to a column of the same name.
type FieldMapping map[string]string

// Parse reads comma-separated text with a header row into import records.
// Fields may be double-quoted; quotes toggle separator handling and are not
// carried into values. The returned error is nil only when every row parsed.
func Parse(text string, mapping FieldMapping) ([]model.ImportRecord, error) {
	lines := dataLines(text)
	if len(lines) < 2 {
		return nil, ErrEmptyInput
	}

	headers := splitLine(lines[0])
	columns, err := resolveColumns(headers, mapping)
	if err != nil {
		return nil, err
	}

	records := make([]model.ImportRecord, 0, len(lines)-1)
	for i, line := range lines[1:] {
		row := i + 1 // 1-based data row number for error reporting

		fields := splitLine(line)
		if len(fields) != len(headers) {
			return nil, fmt.Errorf("row %d: %w: expected %d fields, got %d", row, ErrFieldCount, len(headers), len(fields))
		}

		value := func(logical string) string {
			idx, ok := columns[logical]
			if !ok {
				return ""
			}
			return fields[idx]
		}

		for _, logical := range requiredFields {
			if value(logical) == "" {
				return nil, fmt.Errorf("row %d: %w: %s (values: %q)", row, ErrMissingValue, logical, fields)
			}
		}

		amount, err := parseAmount(value(FieldAmount))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %q", row, ErrInvalidAmount, value(FieldAmount))
		}

		records = append(records, model.ImportRecord{
			AccountID:    value(FieldAccountID),
			Date:         value(FieldDate),
			Description:  value(FieldDescription),
			MerchantName: value(FieldMerchantName),
			Type:         value(FieldType),
			Category:     value(FieldCategory),
			Reference:    value(FieldReference),
			Amount:       amount,
		})
	}

	return records, nil
}

// resolveColumns maps each logical field to its column index. Required
// logical fields must resolve to an existing header.
func resolveColumns(headers []string, mapping FieldMapping) (map[string]int, error) {
	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}

	columns := make(map[string]int)
	for _, logical := range append(append([]string{}, requiredFields...), optionalFields...) {
		header := logical
		if mapped, ok := mapping[logical]; ok && mapped != "" {
			header = mapped
		}
		if i, ok := index[header]; ok {
			columns[logical] = i
		}
	}

	for _, logical := range requiredFields {
		if _, ok := columns[logical]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, logical)
		}
	}

	return columns, nil
}

// splitLine splits one CSV line on commas outside double quotes. Quote
// characters toggle separator handling and are dropped; they are never
// unescaped.
func splitLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))

	return fields
}

func dataLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// amountNoiseRe matches currency symbols, thousands separators, and
// whitespace stripped before numeric parsing.
var amountNoiseRe = regexp.MustCompile(`[$€£¥,\s]`)

func parseAmount(raw string) (float64, error) {
	cleaned := amountNoiseRe.ReplaceAllString(raw, "")
	return strconv.ParseFloat(cleaned, 64)
}
