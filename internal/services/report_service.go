package services

import (
	"sort"
	"time"

	"gorm.io/gorm"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
)

// reportService aggregates ledger data for reporting. It is purely
// read-side: every query assumes the balance invariants already hold,
// excludes transfer rows, and counts split children instead of their
// parents.
type reportService struct {
	db *gorm.DB
}

// NewReportService creates a new ReportServicer.
func NewReportService(db *gorm.DB) ReportServicer {
	return &reportService{db: db}
}

const monthKeyLayout = "2006-01"

// reportRows loads the non-parent, non-transfer transactions in a date range.
// Aggregation happens in memory so the same code path serves Postgres and
// the SQLite test database without dialect-specific date functions.
func (s *reportService) reportRows(ownerID string, from, to time.Time) ([]models.Transaction, error) {
	q := s.db.Where("owner_id = ? AND is_parent = ? AND type <> ?",
		ownerID, false, models.TransactionTypeTransfer)
	if !from.IsZero() {
		q = q.Where("date >= ?", from)
	}
	if !to.IsZero() {
		q = q.Where("date <= ?", to)
	}

	var rows []models.Transaction
	if err := q.Order("date").Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rows, nil
}

// MonthlySummaries groups income and expense totals by calendar month.
func (s *reportService) MonthlySummaries(ownerID string, from, to time.Time) ([]MonthlySummary, error) {
	rows, err := s.reportRows(ownerID, from, to)
	if err != nil {
		return nil, err
	}

	byMonth := make(map[string]*MonthlySummary)
	for _, row := range rows {
		key := row.Date.Format(monthKeyLayout)
		summary, ok := byMonth[key]
		if !ok {
			summary = &MonthlySummary{Month: key}
			byMonth[key] = summary
		}
		switch row.Type {
		case models.TransactionTypeIncome:
			summary.Income += row.Amount
		case models.TransactionTypeExpense:
			summary.Expense += row.Amount
		}
	}

	summaries := make([]MonthlySummary, 0, len(byMonth))
	for _, summary := range byMonth {
		summary.Net = summary.Income - summary.Expense
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Month < summaries[j].Month })
	return summaries, nil
}

// CategoryBreakdown groups totals of one transaction type by resolved
// category, with each category's percentage of the overall total.
// Uncategorized rows are reported as their own bucket.
func (s *reportService) CategoryBreakdown(ownerID string, transactionType models.TransactionType, from, to time.Time) ([]CategorySummary, error) {
	if transactionType != models.TransactionTypeIncome && transactionType != models.TransactionTypeExpense {
		return nil, apperrors.ErrInvalidTransactionType
	}

	rows, err := s.reportRows(ownerID, from, to)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.Where("owner_id = ?", ownerID).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	totals := make(map[string]*CategorySummary)
	var grandTotal int64
	for _, row := range rows {
		if row.Type != transactionType {
			continue
		}
		key := ""
		if row.CategoryID != nil {
			key = *row.CategoryID
		}
		summary, ok := totals[key]
		if !ok {
			summary = &CategorySummary{CategoryName: "Uncategorized"}
			if key != "" {
				id := key
				summary.CategoryID = &id
				if name, found := names[key]; found {
					summary.CategoryName = name
				}
			}
			totals[key] = summary
		}
		summary.Total += row.Amount
		grandTotal += row.Amount
	}

	summaries := make([]CategorySummary, 0, len(totals))
	for _, summary := range totals {
		if grandTotal > 0 {
			summary.Percentage = float64(summary.Total) / float64(grandTotal) * 100
		}
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Total > summaries[j].Total })
	return summaries, nil
}

// CumulativeBalance reports each month's net change and the running total
// across the range, in chronological order.
func (s *reportService) CumulativeBalance(ownerID string, from, to time.Time) ([]MonthlyBalance, error) {
	summaries, err := s.MonthlySummaries(ownerID, from, to)
	if err != nil {
		return nil, err
	}

	balances := make([]MonthlyBalance, 0, len(summaries))
	var running int64
	for _, summary := range summaries {
		running += summary.Net
		balances = append(balances, MonthlyBalance{
			Month:      summary.Month,
			Net:        summary.Net,
			Cumulative: running,
		})
	}
	return balances, nil
}
