package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jeongsim/accounting-api/internal/domain"
)

// NextSerial derives the next donation receipt serial for a target
// year: the maximum sequence among existing serials of that year plus
// one, formatted "{year}-{seq:03d}". Gaps are never refilled and
// malformed serials are skipped. This is a read-time computation over
// the full record list, not a stored counter, so two concurrent
// issuances for the same year can collide; that check-then-act window
// is inherited from the source system's single-operator trust model.
func NextSerial(donations []domain.DonationRecord, targetYear int) string {
	maxSeq := 0
	for _, d := range donations {
		if int(d.TargetYear) != targetYear {
			continue
		}
		parts := strings.SplitN(d.SerialNumber, "-", 2)
		if len(parts) != 2 {
			continue
		}
		seq, err := strconv.Atoi(parts[1])
		if err != nil {
			continue
		}
		if seq > maxSeq {
			maxSeq = seq
		}
	}
	return fmt.Sprintf("%d-%03d", targetYear, maxSeq+1)
}

// DonationTotal reconstructs a donor's yearly total from the
// transaction log: income entries of the target year whose vendor
// matches the donor's name by trimmed string equality. The donation
// amount is never stored on its own; name matching at receipt time is
// the system of record, typos and all.
func DonationTotal(txs []domain.Transaction, saintName string, targetYear int) domain.Amount {
	name := strings.TrimSpace(saintName)
	yearPrefix := strconv.Itoa(targetYear)

	var total domain.Amount
	for _, t := range txs {
		if t.Type != domain.TypeIncome {
			continue
		}
		if !strings.HasPrefix(t.Date, yearPrefix) {
			continue
		}
		if strings.TrimSpace(t.Vendor) != name {
			continue
		}
		total += t.Amount
	}
	return total
}
