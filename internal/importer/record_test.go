package importer

import (
	"strings"
	"testing"

	"moneta/internal/models"
)

const csvHeader = "date,type,amount,description,account,category,notes,tags,split_group\n"

func TestParseCSV(t *testing.T) {
	t.Run("valid_rows", func(t *testing.T) {
		input := csvHeader +
			"2025-01-15,expense,46.46,Groceries,Checking,Food,weekly shop,food;errands,\n" +
			"2025-01-16,income,2500.00,Salary,Checking,,,,\n"

		records, err := ParseCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}

		first := records[0]
		if first.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense, got %s", first.Type)
		}
		if first.Amount != 4646 {
			t.Errorf("expected amount 4646, got %d", first.Amount)
		}
		if first.Account != "Checking" || first.Category != "Food" {
			t.Errorf("unexpected account/category: %s/%s", first.Account, first.Category)
		}
		if len(first.Tags) != 2 || first.Tags[0] != "food" || first.Tags[1] != "errands" {
			t.Errorf("unexpected tags: %v", first.Tags)
		}
		if first.Date.Year() != 2025 || first.Date.Month() != 1 || first.Date.Day() != 15 {
			t.Errorf("unexpected date: %v", first.Date)
		}

		second := records[1]
		if second.Type != models.TransactionTypeIncome || second.Amount != 250000 {
			t.Errorf("unexpected second record: %+v", second)
		}
		if len(second.Tags) != 0 {
			t.Errorf("expected no tags, got %v", second.Tags)
		}
	})

	t.Run("header_case_insensitive", func(t *testing.T) {
		input := "Date,Type,Amount,Description,Account,Category,Notes,Tags,Split_Group\n" +
			"2025-01-15,expense,10.00,Coffee,Checking,,,,\n"

		records, err := ParseCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
	})

	t.Run("empty_file", func(t *testing.T) {
		if _, err := ParseCSV(strings.NewReader("")); err == nil {
			t.Error("expected error for empty file")
		}
	})

	t.Run("wrong_header", func(t *testing.T) {
		input := "when,type,amount,description,account,category,notes,tags,split_group\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for wrong header")
		}
	})

	t.Run("wrong_column_count", func(t *testing.T) {
		input := csvHeader + "2025-01-15,expense,10.00,Coffee\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for short row")
		}
	})

	t.Run("bad_date", func(t *testing.T) {
		input := csvHeader + "15/01/2025,expense,10.00,Coffee,Checking,,,,\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for bad date")
		}
	})

	t.Run("transfer_type_is_schema_valid", func(t *testing.T) {
		input := csvHeader +
			"2025-01-15,transfer,10.00,Move,Checking,,,,\n" +
			"2025-01-16,expense,5.00,Coffee,Checking,,,,\n"
		records, err := ParseCSV(strings.NewReader(input))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 2 {
			t.Fatalf("expected 2 records, got %d", len(records))
		}
		if records[0].Type != models.TransactionTypeTransfer {
			t.Errorf("expected transfer type, got %s", records[0].Type)
		}
	})

	t.Run("unknown_type_rejected", func(t *testing.T) {
		input := csvHeader + "2025-01-15,withdrawal,10.00,Cash,Checking,,,,\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for unknown type")
		}
	})

	t.Run("missing_description", func(t *testing.T) {
		input := csvHeader + "2025-01-15,expense,10.00,,Checking,,,,\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for missing description")
		}
	})

	t.Run("missing_account", func(t *testing.T) {
		input := csvHeader + "2025-01-15,expense,10.00,Coffee,,,,,\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for missing account")
		}
	})

	t.Run("negative_amount_rejected", func(t *testing.T) {
		input := csvHeader + "2025-01-15,expense,-10.00,Coffee,Checking,,,,\n"
		if _, err := ParseCSV(strings.NewReader(input)); err == nil {
			t.Error("expected error for negative amount")
		}
	})
}
