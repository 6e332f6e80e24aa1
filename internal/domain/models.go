// Package domain defines the core types of the accounting API.
// JSON tags follow the payload shape of the spreadsheet backend, so a
// fetched snapshot decodes directly into these types.
package domain

// TransactionType distinguishes income from expense entries.
// The literal values are the Korean labels stored in the sheet.
type TransactionType string

const (
	TypeIncome  TransactionType = "수입"
	TypeExpense TransactionType = "지출"
)

// ============================================================
// Ledger
// ============================================================

// Approvals is the three-tier sign-off record of a transaction.
// Missing keys in the backend payload decode as false.
type Approvals struct {
	PIC      bool `json:"pic"`      // 담당
	SecGen   bool `json:"secGen"`   // 사무국장
	Director bool `json:"director"` // 원장
}

// Transaction is a single income or expense voucher entry.
// Amounts are whole currency units (KRW), no minor unit.
type Transaction struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"` // YYYY-MM-DD, lexically sortable
	Type        TransactionType `json:"type"`
	Category    string          `json:"category"`
	Amount      Amount          `json:"amount"`
	Description string          `json:"description"`
	Vendor      string          `json:"vendor,omitempty"`
	Spender     string          `json:"spender,omitempty"`
	// EvidenceURL holds either a single URL or a JSON-encoded array of
	// URLs when a voucher has multiple attachments.
	EvidenceURL string    `json:"evidenceUrl,omitempty"`
	Approvals   Approvals `json:"approvals"`
}

// OrgInfo is the singleton organization record. Read-only here; it is
// edited directly in the backing sheet.
type OrgInfo struct {
	Name               string `json:"name"`
	RegistrationNumber string `json:"registrationNumber"`
	Address            string `json:"address"`
	Representative     string `json:"representative"`
	PhoneNumber        string `json:"phoneNumber,omitempty"`
	SealURL            string `json:"sealUrl,omitempty"`
	// InitialCarryover is the opening balance as of the earliest
	// representable date. Absent or non-numeric decodes as 0.
	InitialCarryover Amount `json:"initialCarryover,omitempty"`
}

// AccountCategories lists the configured bookkeeping categories.
type AccountCategories struct {
	Income  []string `json:"income"`
	Expense []string `json:"expense"`
}

// AccountCode is a chart-of-accounts entry.
type AccountCode struct {
	Code string          `json:"code"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// ============================================================
// People
// ============================================================

// ApprovalLineItem is one roster entry of the approval chain.
// ID and password live in cleartext in the backing sheet (columns D/E);
// preserving that comparison is part of the contract with the source
// system.
type ApprovalLineItem struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	SignURL  string `json:"signUrl,omitempty"`
	ID       string `json:"id,omitempty"`
	Password string `json:"password,omitempty"`
}

// User is an authenticated session identity derived from the roster.
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Role    Role   `json:"role"`
	SignURL string `json:"signUrl,omitempty"`
}

// Member is a staff roster entry.
type Member struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

// Saint is a donor roster entry.
type Saint struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	JuminNo  string `json:"juminNo,omitempty"`
	Position string `json:"position,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	Email    string `json:"email,omitempty"`
	Note     string `json:"note,omitempty"`
}

// ============================================================
// Donations
// ============================================================

// DonationRecord is an issued donation tax receipt.
// SerialNumber is "{year}-{seq:03d}", unique per target year.
type DonationRecord struct {
	ID           string `json:"id"`
	IssueDate    string `json:"issueDate"`
	TargetYear   Year   `json:"targetYear"`
	SaintName    string `json:"saintName"`
	SaintID      string `json:"saintId"`
	Amount       Amount `json:"amount"`
	Issuer       string `json:"issuer"`
	SerialNumber string `json:"serialNumber"`
}

// ============================================================
// Snapshot
// ============================================================

// AppData is the aggregate snapshot fetched wholesale from the backend.
// The aggregation functions treat it as immutable; refreshes replace it
// as a whole.
type AppData struct {
	Transactions      []Transaction      `json:"transactions"`
	AccountCodes      []AccountCode      `json:"accountCodes"`
	AccountCategories AccountCategories  `json:"accountCategories"`
	Members           []Member           `json:"members"`
	Saints            []Saint            `json:"saints"`
	Donations         []DonationRecord   `json:"donations"`
	OrgInfo           OrgInfo            `json:"churchInfo"`
	ApprovalLine      []ApprovalLineItem `json:"approvalLine"`
}
