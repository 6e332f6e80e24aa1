package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/service"
)

func TestJournal_StartsFromCarryover(t *testing.T) {
	env := newTestEnv()
	svc := service.NewLedgerService(env.snap)

	rows, err := svc.Journal(context.Background())
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Balance != 1_050_000 {
		t.Errorf("expected first balance 1050000, got %d", rows[0].Balance)
	}
	if rows[1].Balance != 1_030_000 {
		t.Errorf("expected final balance 1030000, got %d", rows[1].Balance)
	}
}

func TestSummarize_ValidatesRange(t *testing.T) {
	env := newTestEnv()
	svc := service.NewLedgerService(env.snap)
	ctx := context.Background()

	var valErr *domain.ErrValidation
	if _, err := svc.Summarize(ctx, "2024-13", "2024-12-31"); !errors.As(err, &valErr) {
		t.Errorf("expected validation error for bad start, got %v", err)
	}
	if _, err := svc.Summarize(ctx, "2024-12-31", "2024-01-01"); !errors.As(err, &valErr) {
		t.Errorf("expected validation error for inverted range, got %v", err)
	}

	sum, err := svc.Summarize(ctx, "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if sum.TotalIncome != 50_000 || sum.TotalExpense != 0 {
		t.Errorf("unexpected totals %+v", sum)
	}
}

func TestSettle_UsesSnapshotCarryover(t *testing.T) {
	env := newTestEnv()
	svc := service.NewLedgerService(env.snap)

	r, err := svc.Settle(context.Background(), 2024)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if r.PrevCarryover != 1_000_000 {
		t.Errorf("expected carryover 1000000, got %d", r.PrevCarryover)
	}
	if r.Balance != 1_030_000 {
		t.Errorf("expected balance 1030000, got %d", r.Balance)
	}

	var valErr *domain.ErrValidation
	if _, err := svc.Settle(context.Background(), 42); !errors.As(err, &valErr) {
		t.Errorf("expected validation error for bad year, got %v", err)
	}
}
