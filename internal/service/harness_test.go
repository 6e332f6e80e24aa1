package service_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/infra/cache"
	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/service"

	"go.uber.org/zap"
)

// stubBackend implements the fetch/write/upload/mail ports against
// in-memory state.
type stubBackend struct {
	mu sync.Mutex

	data     *domain.AppData
	fetchErr error

	fetches      int
	added        []domain.Transaction
	updated      []domain.Transaction
	donations    []domain.DonationRecord
	writeErr     error
	uploadErr    error
	uploadedURLs []string
	mailedTo     []string
	mailErr      error
}

func (b *stubBackend) FetchSnapshot(ctx context.Context) (*domain.AppData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++
	if b.fetchErr != nil {
		return nil, b.fetchErr
	}
	clone := *b.data
	return &clone, nil
}

func (b *stubBackend) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.added = append(b.added, tx)
	return nil
}

func (b *stubBackend) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.updated = append(b.updated, tx)
	return nil
}

func (b *stubBackend) AddDonation(ctx context.Context, rec domain.DonationRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.writeErr != nil {
		return b.writeErr
	}
	b.donations = append(b.donations, rec)
	return nil
}

func (b *stubBackend) UploadEvidence(ctx context.Context, base64Data, fileName string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.uploadErr != nil {
		return "", b.uploadErr
	}
	url := "https://lh3.googleusercontent.com/d/" + fileName
	b.uploadedURLs = append(b.uploadedURLs, url)
	return url, nil
}

func (b *stubBackend) SendDonationMail(ctx context.Context, to, subject, htmlBody string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mailErr != nil {
		return b.mailErr
	}
	b.mailedTo = append(b.mailedTo, to)
	return nil
}

var errBackendDown = errors.New("backend unreachable")

func testData() *domain.AppData {
	return &domain.AppData{
		OrgInfo: domain.OrgInfo{
			Name:             "정심작업장",
			InitialCarryover: 1_000_000,
		},
		Transactions: []domain.Transaction{
			{ID: "t1", Date: "2024-01-10", Type: domain.TypeIncome, Category: "후원금", Amount: 50_000, Vendor: "김철수", Approvals: domain.Approvals{PIC: true}},
			{ID: "t2", Date: "2024-02-05", Type: domain.TypeExpense, Category: "운영비", Amount: 20_000, Description: "사무용품"},
		},
		Saints: []domain.Saint{
			{ID: "s1", Name: "김철수", Email: "kim@example.com"},
			{ID: "s2", Name: "이영희"},
		},
		Donations: []domain.DonationRecord{
			{ID: "d1", TargetYear: 2024, SaintID: "s1", SaintName: "김철수", SerialNumber: "2024-001", Amount: 50_000},
		},
		ApprovalLine: []domain.ApprovalLineItem{
			{Role: "담당", Name: "박담당", ID: "pak", Password: "pw1"},
			{Role: "사무국장", Name: "최국장", ID: "choi", Password: "pw2"},
			{Role: "원장", Name: "정원장", ID: "jung", Password: "pw3"},
		},
	}
}

type testEnv struct {
	backend *stubBackend
	snap    *service.SnapshotService
	metrics *observability.Metrics
	logger  *zap.Logger
}

func newTestEnv() *testEnv {
	backend := &stubBackend{data: testData()}
	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	snap := service.NewSnapshotService(backend, cache.New[*domain.AppData](time.Minute), metrics, logger)
	return &testEnv{backend: backend, snap: snap, metrics: metrics, logger: logger}
}
