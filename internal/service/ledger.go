package service

import (
	"context"
	"fmt"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/ledger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var ledgerTracer = otel.Tracer("service/ledger")

// LedgerService exposes the aggregation views over the snapshot:
// journal with running balances, period summaries, and annual
// settlements.
type LedgerService struct {
	snap *SnapshotService
}

// NewLedgerService creates a new ledger service.
func NewLedgerService(snap *SnapshotService) *LedgerService {
	return &LedgerService{snap: snap}
}

// Journal returns every transaction sorted by (date, id) with a
// running balance folded from the initial carryover.
func (s *LedgerService) Journal(ctx context.Context) ([]ledger.JournalRow, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Journal")
	defer span.End()

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.BuildJournal(data.Transactions, data.OrgInfo.InitialCarryover), nil
}

// Summarize aggregates totals and per-category sums for an inclusive
// [start, end] date range.
func (s *LedgerService) Summarize(ctx context.Context, start, end string) (*ledger.PeriodSummary, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Summarize")
	defer span.End()

	if ledger.NormalizeDate(start) == "" {
		return nil, &domain.ErrValidation{Field: "start", Message: "invalid date, use YYYY-MM-DD"}
	}
	if ledger.NormalizeDate(end) == "" {
		return nil, &domain.ErrValidation{Field: "end", Message: "invalid date, use YYYY-MM-DD"}
	}
	if start > end {
		return nil, &domain.ErrValidation{Field: "start", Message: "must not be after end"}
	}

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	sum := ledger.Summarize(data.Transactions, start, end)
	return &sum, nil
}

// Settle computes the annual settlement for targetYear. The carryover
// into the year is always recomputed from the full history, never read
// from a stored balance.
func (s *LedgerService) Settle(ctx context.Context, targetYear int) (*ledger.Settlement, error) {
	ctx, span := ledgerTracer.Start(ctx, "LedgerService.Settle")
	defer span.End()
	span.SetAttributes(attribute.Int("target_year", targetYear))

	if targetYear < 1900 || targetYear > 9999 {
		return nil, &domain.ErrValidation{Field: "year", Message: fmt.Sprintf("invalid target year %d", targetYear)}
	}

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	result := ledger.Settle(data.Transactions, data.OrgInfo.InitialCarryover, targetYear)
	return &result, nil
}
