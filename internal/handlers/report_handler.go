package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/services"
)

// ReportHandler handles reporting requests.
type ReportHandler struct {
	reportService services.ReportServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService services.ReportServicer) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// reportRange parses the optional from/to query parameters.
func reportRange(c *gin.Context) (time.Time, time.Time, error) {
	var from, to time.Time

	if v := c.Query("from"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date")
		}
		from = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDate(v)
		if err != nil {
			return from, to, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date")
		}
		to = t
	}
	return from, to, nil
}

// GetMonthlySummary reports income/expense/net totals by month
// @Summary     Monthly summary
// @Description Get income, expense, and net totals grouped by calendar month
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (inclusive)"
// @Param       to   query string false "End date (inclusive)"
// @Success     200 {array} services.MonthlySummary "Monthly summaries"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly [get]
func (h *ReportHandler) GetMonthlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.reportService.MonthlySummaries(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summaries": summaries})
}

// GetCategoryBreakdown reports totals by category
// @Summary     Category breakdown
// @Description Get totals of one transaction type grouped by category, with percentage of the overall total
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       type query string true  "Transaction type (income or expense)"
// @Param       from query string false "Start date (inclusive)"
// @Param       to   query string false "End date (inclusive)"
// @Success     200 {array} services.CategorySummary "Category summaries"
// @Failure     400 {object} ErrorResponse "Invalid type or date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetCategoryBreakdown(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionType := models.TransactionType(c.DefaultQuery("type", string(models.TransactionTypeExpense)))

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	summaries, err := h.reportService.CategoryBreakdown(userID, transactionType, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": summaries})
}

// GetCumulativeBalance reports the running net balance by month
// @Summary     Cumulative balance
// @Description Get each month's net change and the running total across the range
// @Tags        reports
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (inclusive)"
// @Param       to   query string false "End date (inclusive)"
// @Success     200 {array} services.MonthlyBalance "Monthly balances"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/balance [get]
func (h *ReportHandler) GetCumulativeBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, to, err := reportRange(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	balances, err := h.reportService.CumulativeBalance(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"balances": balances})
}
