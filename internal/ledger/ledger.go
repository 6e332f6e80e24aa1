// Package ledger implements the pure aggregation core: running
// balances, period summaries, and the annual settlement roll-up. All
// functions operate on a transaction slice without mutating it, so the
// same snapshot can back any number of concurrent reads.
package ledger

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/jeongsim/accounting-api/internal/domain"
)

var datePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// NormalizeDate reduces a date string to its canonical YYYY-MM-DD
// prefix. Malformed dates return "" and are excluded from range
// filters, but the transactions carrying them still count in totals.
func NormalizeDate(date string) string {
	return datePrefix.FindString(date)
}

// signed returns the amount with the sign implied by the type.
func signed(t domain.Transaction) domain.Amount {
	if t.Type == domain.TypeExpense {
		return -t.Amount
	}
	return t.Amount
}

// ============================================================
// Running balance (journal view)
// ============================================================

// JournalRow is one journal line with its post-transaction balance.
type JournalRow struct {
	domain.Transaction
	Balance domain.Amount `json:"balance"`
}

// BuildJournal sorts transactions by (date, id) ascending and folds a
// running balance starting from the opening carryover. Both sort keys
// compare lexically; the id tie-break keeps same-day entries in a
// stable, reproducible order.
func BuildJournal(txs []domain.Transaction, opening domain.Amount) []JournalRow {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Date != sorted[j].Date {
			return sorted[i].Date < sorted[j].Date
		}
		return sorted[i].ID < sorted[j].ID
	})

	rows := make([]JournalRow, 0, len(sorted))
	balance := opening
	for _, t := range sorted {
		balance += signed(t)
		rows = append(rows, JournalRow{Transaction: t, Balance: balance})
	}
	return rows
}

// ============================================================
// Period summary (dashboard view)
// ============================================================

// PeriodSummary aggregates totals and per-category sums for an
// inclusive date range.
type PeriodSummary struct {
	StartDate         string                   `json:"startDate"`
	EndDate           string                   `json:"endDate"`
	TotalIncome       domain.Amount            `json:"totalIncome"`
	TotalExpense      domain.Amount            `json:"totalExpense"`
	IncomeByCategory  map[string]domain.Amount `json:"incomeByCategory"`
	ExpenseByCategory map[string]domain.Amount `json:"expenseByCategory"`
}

// Summarize filters transactions whose normalized date falls in the
// inclusive [start, end] range and accumulates totals plus per-category
// sums. Comparison is lexical on the YYYY-MM-DD prefix.
func Summarize(txs []domain.Transaction, start, end string) PeriodSummary {
	s := PeriodSummary{
		StartDate:         start,
		EndDate:           end,
		IncomeByCategory:  map[string]domain.Amount{},
		ExpenseByCategory: map[string]domain.Amount{},
	}
	for _, t := range txs {
		d := NormalizeDate(t.Date)
		if d == "" || d < start || d > end {
			continue
		}
		switch t.Type {
		case domain.TypeIncome:
			s.TotalIncome += t.Amount
			s.IncomeByCategory[t.Category] += t.Amount
		case domain.TypeExpense:
			s.TotalExpense += t.Amount
			s.ExpenseByCategory[t.Category] += t.Amount
		}
	}
	return s
}

// ============================================================
// Annual settlement (report view)
// ============================================================

// Settlement is the annual settlement report for one target year.
type Settlement struct {
	TargetYear        int                      `json:"targetYear"`
	PrevCarryover     domain.Amount            `json:"prevCarryover"`
	TotalIncome       domain.Amount            `json:"totalIncome"`
	TotalExpense      domain.Amount            `json:"totalExpense"`
	Balance           domain.Amount            `json:"balance"`
	IncomeByCategory  map[string]domain.Amount `json:"incomeByCategory"`
	ExpenseByCategory map[string]domain.Amount `json:"expenseByCategory"`
}

// Settle computes the annual settlement for targetYear. The opening
// carryover of the year is always recomputed from the full history
// (initial carryover plus every transaction strictly before Jan 1 of
// the target year), never read from a stored balance, so editing a past
// transaction keeps every later year consistent.
func Settle(txs []domain.Transaction, initialCarryover domain.Amount, targetYear int) Settlement {
	r := Settlement{
		TargetYear:        targetYear,
		PrevCarryover:     initialCarryover,
		IncomeByCategory:  map[string]domain.Amount{},
		ExpenseByCategory: map[string]domain.Amount{},
	}

	yearStart := fmt.Sprintf("%d-01-01", targetYear)
	yearPrefix := fmt.Sprintf("%d", targetYear)

	for _, t := range txs {
		if t.Date < yearStart {
			r.PrevCarryover += signed(t)
		}
		if !strings.HasPrefix(t.Date, yearPrefix) {
			continue
		}
		switch t.Type {
		case domain.TypeIncome:
			r.TotalIncome += t.Amount
			r.IncomeByCategory[t.Category] += t.Amount
		case domain.TypeExpense:
			r.TotalExpense += t.Amount
			r.ExpenseByCategory[t.Category] += t.Amount
		}
	}

	r.Balance = r.PrevCarryover + r.TotalIncome - r.TotalExpense
	return r
}
