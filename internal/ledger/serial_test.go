package ledger_test

import (
	"fmt"
	"testing"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/ledger"
)

func donation(serial string, year int) domain.DonationRecord {
	return domain.DonationRecord{SerialNumber: serial, TargetYear: domain.Year(year)}
}

func TestNextSerialFirstOfYear(t *testing.T) {
	if got := ledger.NextSerial(nil, 2024); got != "2024-001" {
		t.Errorf("expected 2024-001, got %s", got)
	}
}

func TestNextSerialSkipsGaps(t *testing.T) {
	donations := []domain.DonationRecord{
		donation("2024-001", 2024),
		donation("2024-003", 2024),
	}
	if got := ledger.NextSerial(donations, 2024); got != "2024-004" {
		t.Errorf("expected 2024-004 (max-based, not gap-filling), got %s", got)
	}
}

func TestNextSerialIgnoresOtherYearsAndMalformed(t *testing.T) {
	donations := []domain.DonationRecord{
		donation("2023-009", 2023),
		donation("2024-abc", 2024),
		donation("nonsense", 2024),
		donation("2024-002", 2024),
	}
	if got := ledger.NextSerial(donations, 2024); got != "2024-003" {
		t.Errorf("expected 2024-003, got %s", got)
	}
}

func TestNextSerialMonotonic(t *testing.T) {
	var donations []domain.DonationRecord
	for i := 1; i <= 5; i++ {
		serial := ledger.NextSerial(donations, 2024)
		want := fmt.Sprintf("2024-%03d", i)
		if serial != want {
			t.Fatalf("allocation %d: expected %s, got %s", i, want, serial)
		}
		donations = append(donations, donation(serial, 2024))
	}
}

func TestDonationTotalNameMatching(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "1", Date: "2024-02-01", Type: domain.TypeIncome, Vendor: "김성도", Amount: 10000},
		{ID: "2", Date: "2024-05-01", Type: domain.TypeIncome, Vendor: " 김성도 ", Amount: 5000},
		{ID: "3", Date: "2024-07-01", Type: domain.TypeExpense, Vendor: "김성도", Amount: 3000},
		{ID: "4", Date: "2023-12-01", Type: domain.TypeIncome, Vendor: "김성도", Amount: 7000},
		{ID: "5", Date: "2024-03-01", Type: domain.TypeIncome, Vendor: "박성도", Amount: 2000},
	}

	got := ledger.DonationTotal(txs, "김성도", 2024)
	if got != 15000 {
		t.Errorf("expected 15000 (trimmed income matches of 2024 only), got %d", got)
	}
}
