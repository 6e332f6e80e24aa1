package ledger_test

import (
	"testing"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/ledger"
)

func tx(id, date string, typ domain.TransactionType, amount int64) domain.Transaction {
	return domain.Transaction{ID: id, Date: date, Type: typ, Amount: domain.Amount(amount), Category: "기타"}
}

func TestBuildJournalRunningBalance(t *testing.T) {
	txs := []domain.Transaction{
		tx("3", "2024-02-01", domain.TypeExpense, 300),
		tx("1", "2024-01-01", domain.TypeIncome, 1000),
		tx("2", "2024-01-15", domain.TypeExpense, 200),
	}

	rows := ledger.BuildJournal(txs, 500)
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}

	want := []int64{1500, 1300, 1000}
	for i, w := range want {
		if int64(rows[i].Balance) != w {
			t.Errorf("row %d: expected balance %d, got %d", i, w, rows[i].Balance)
		}
	}
}

func TestBuildJournalDeterminism(t *testing.T) {
	txs := []domain.Transaction{
		tx("b", "2024-03-01", domain.TypeIncome, 100),
		tx("a", "2024-03-01", domain.TypeExpense, 50),
	}

	first := ledger.BuildJournal(txs, 0)
	second := ledger.BuildJournal(txs, 0)
	for i := range first {
		if first[i].Balance != second[i].Balance || first[i].ID != second[i].ID {
			t.Fatalf("journal not deterministic at row %d", i)
		}
	}

	// Same-date entries order by lexical id: "a" before "b".
	if first[0].ID != "a" || first[1].ID != "b" {
		t.Errorf("expected id tie-break a,b; got %s,%s", first[0].ID, first[1].ID)
	}
	if first[0].Balance != -50 || first[1].Balance != 50 {
		t.Errorf("unexpected balances: %d, %d", first[0].Balance, first[1].Balance)
	}

	// Swapping the ids must swap the fold order too.
	txs[0].ID, txs[1].ID = "a", "b"
	swapped := ledger.BuildJournal(txs, 0)
	if swapped[0].Type != domain.TypeIncome {
		t.Errorf("expected income row first after id swap")
	}
	if swapped[0].Balance != 100 || swapped[1].Balance != 50 {
		t.Errorf("unexpected balances after swap: %d, %d", swapped[0].Balance, swapped[1].Balance)
	}
}

func TestBuildJournalDoesNotMutateInput(t *testing.T) {
	txs := []domain.Transaction{
		tx("2", "2024-01-02", domain.TypeIncome, 10),
		tx("1", "2024-01-01", domain.TypeIncome, 10),
	}
	ledger.BuildJournal(txs, 0)
	if txs[0].ID != "2" {
		t.Error("input slice was reordered")
	}
}

func TestSummarizeInclusiveRange(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "1", Date: "2024-01-01", Type: domain.TypeIncome, Category: "후원금", Amount: 1000},
		{ID: "2", Date: "2024-01-31", Type: domain.TypeExpense, Category: "운영비", Amount: 400},
		{ID: "3", Date: "2024-02-01", Type: domain.TypeIncome, Category: "후원금", Amount: 700},
		{ID: "4", Date: "not-a-date", Type: domain.TypeIncome, Category: "후원금", Amount: 999},
	}

	s := ledger.Summarize(txs, "2024-01-01", "2024-01-31")
	if s.TotalIncome != 1000 {
		t.Errorf("expected income 1000, got %d", s.TotalIncome)
	}
	if s.TotalExpense != 400 {
		t.Errorf("expected expense 400, got %d", s.TotalExpense)
	}
	if s.IncomeByCategory["후원금"] != 1000 {
		t.Errorf("unexpected category sum: %d", s.IncomeByCategory["후원금"])
	}
	if s.ExpenseByCategory["운영비"] != 400 {
		t.Errorf("unexpected category sum: %d", s.ExpenseByCategory["운영비"])
	}
}

func TestSummarizeDateWithTimeSuffix(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "1", Date: "2024-01-15T09:30:00", Type: domain.TypeIncome, Category: "후원금", Amount: 500},
	}
	s := ledger.Summarize(txs, "2024-01-01", "2024-01-31")
	if s.TotalIncome != 500 {
		t.Errorf("timestamped date should fall in range, got income %d", s.TotalIncome)
	}
}

// The worked example: carryover 1,000,000 and three transactions across
// the year boundary.
func TestSettleExampleScenario(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "2023-12-31", domain.TypeIncome, 500000),
		tx("2", "2024-01-10", domain.TypeExpense, 200000),
		tx("3", "2024-03-01", domain.TypeIncome, 300000),
	}

	r := ledger.Settle(txs, 1000000, 2024)
	if r.PrevCarryover != 1500000 {
		t.Errorf("expected prevCarryover 1500000, got %d", r.PrevCarryover)
	}
	if r.TotalIncome != 300000 {
		t.Errorf("expected totalIncome 300000, got %d", r.TotalIncome)
	}
	if r.TotalExpense != 200000 {
		t.Errorf("expected totalExpense 200000, got %d", r.TotalExpense)
	}
	if r.Balance != 1600000 {
		t.Errorf("expected balance 1600000, got %d", r.Balance)
	}
}

// Roll-forward consistency: a year's opening carryover equals the prior
// year's closing balance when the transaction set is held fixed.
func TestSettleCarryoverRollForward(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "2022-05-01", domain.TypeIncome, 800),
		tx("2", "2023-02-10", domain.TypeIncome, 300),
		tx("3", "2023-08-20", domain.TypeExpense, 150),
		tx("4", "2024-01-05", domain.TypeExpense, 50),
	}

	for year := 2023; year <= 2025; year++ {
		prev := ledger.Settle(txs, 100, year-1)
		cur := ledger.Settle(txs, 100, year)
		if cur.PrevCarryover != prev.Balance {
			t.Errorf("year %d: carryover %d != prior balance %d", year, cur.PrevCarryover, prev.Balance)
		}
	}
}

func TestSettleBalanceIdentity(t *testing.T) {
	txs := []domain.Transaction{
		tx("1", "2024-01-01", domain.TypeIncome, 123),
		tx("2", "2024-06-15", domain.TypeExpense, 45),
		tx("3", "2024-12-31", domain.TypeIncome, 6789),
	}
	r := ledger.Settle(txs, 55, 2024)
	if r.Balance != r.PrevCarryover+r.TotalIncome-r.TotalExpense {
		t.Errorf("balance identity violated: %d != %d + %d - %d",
			r.Balance, r.PrevCarryover, r.TotalIncome, r.TotalExpense)
	}
}

func TestNormalizeDate(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"2024-03-01", "2024-03-01"},
		{"2024-03-01T12:00:00Z", "2024-03-01"},
		{"03/01/2024", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := ledger.NormalizeDate(c.in); got != c.want {
			t.Errorf("NormalizeDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
