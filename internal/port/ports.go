// Package port defines the interfaces between the service layer and
// the infrastructure adapters. Services accept these interfaces and
// the adapters (Apps Script client, Sheets API client) implement them.
package port

import (
	"context"

	"github.com/jeongsim/accounting-api/internal/domain"
)

// SnapshotFetcher retrieves the full application snapshot from the
// spreadsheet backend.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) (*domain.AppData, error)
}

// TransactionWriter persists transaction writes. Both operations are
// fire-and-forget at the wire level: the backend response body is
// never interpreted, so an error here means the request could not be
// delivered, not that it was rejected.
type TransactionWriter interface {
	AddTransaction(ctx context.Context, tx domain.Transaction) error
	UpdateTransaction(ctx context.Context, tx domain.Transaction) error
}

// DonationWriter persists issued donation receipts (fire-and-forget,
// same contract as TransactionWriter).
type DonationWriter interface {
	AddDonation(ctx context.Context, rec domain.DonationRecord) error
}

// EvidenceUploader stores an evidence image and returns its public URL.
type EvidenceUploader interface {
	UploadEvidence(ctx context.Context, base64Data, fileName string) (string, error)
}

// MailSender delivers a donation receipt by email.
type MailSender interface {
	SendDonationMail(ctx context.Context, to, subject, htmlBody string) error
}

// Cache is a generic read-through cache used by services.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
