// Package importer turns bank-export CSV files into ledger writes. Rows are
// parsed and validated up front; name resolution and the actual creates
// happen in Importer.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"moneta/internal/models"
)

const (
	dateFormat = "2006-01-02"
	numFields  = 9

	colDate        = 0
	colType        = 1
	colAmount      = 2
	colDescription = 3
	colAccount     = 4
	colCategory    = 5
	colNotes       = 6
	colTags        = 7
	colSplitGroup  = 8
)

var expectedHeader = []string{
	"date", "type", "amount", "description", "account",
	"category", "notes", "tags", "split_group",
}

// Record is one validated CSV row. Rows sharing a non-empty SplitGroup are
// combined into a single split transaction.
type Record struct {
	Date        time.Time
	Type        models.TransactionType
	Amount      int64
	Description string
	Account     string
	Category    string
	Notes       string
	Tags        []string
	SplitGroup  string
}

// ParseCSV reads and validates an import file. The header row is required.
func ParseCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("import CSV is empty")
	}
	if err := checkHeader(rows[0]); err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func checkHeader(row []string) error {
	for i, want := range expectedHeader {
		if !strings.EqualFold(strings.TrimSpace(row[i]), want) {
			return fmt.Errorf("unexpected header column %d: got %q, want %q", i+1, row[i], want)
		}
	}
	return nil
}

func parseRow(row []string) (Record, error) {
	date, err := time.Parse(dateFormat, strings.TrimSpace(row[colDate]))
	if err != nil {
		return Record{}, fmt.Errorf("parsing date %q: %w", row[colDate], err)
	}

	transactionType := models.TransactionType(strings.ToLower(strings.TrimSpace(row[colType])))
	switch transactionType {
	case models.TransactionTypeIncome, models.TransactionTypeExpense, models.TransactionTypeTransfer:
	default:
		return Record{}, fmt.Errorf("type %q must be income, expense, or transfer", row[colType])
	}

	amount, err := ParseAmount(strings.TrimSpace(row[colAmount]))
	if err != nil {
		return Record{}, err
	}

	description := strings.TrimSpace(row[colDescription])
	if description == "" {
		return Record{}, fmt.Errorf("description is required")
	}

	account := strings.TrimSpace(row[colAccount])
	if account == "" {
		return Record{}, fmt.Errorf("account is required")
	}

	return Record{
		Date:        date,
		Type:        transactionType,
		Amount:      amount,
		Description: description,
		Account:     account,
		Category:    strings.TrimSpace(row[colCategory]),
		Notes:       strings.TrimSpace(row[colNotes]),
		Tags:        parseTags(row[colTags]),
		SplitGroup:  strings.TrimSpace(row[colSplitGroup]),
	}, nil
}

// parseTags splits the semicolon-separated tag column.
func parseTags(s string) []string {
	var tags []string
	for _, part := range strings.Split(s, ";") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
