package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/handler"
	"github.com/jeongsim/accounting-api/internal/infra/cache"
	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/service"

	"go.uber.org/zap"
)

// stubBackend serves a fixed snapshot and records writes.
type stubBackend struct {
	data      *domain.AppData
	added     int
	updated   int
	donations int
}

func (b *stubBackend) FetchSnapshot(ctx context.Context) (*domain.AppData, error) {
	clone := *b.data
	return &clone, nil
}

func (b *stubBackend) AddTransaction(ctx context.Context, tx domain.Transaction) error {
	b.added++
	return nil
}

func (b *stubBackend) UpdateTransaction(ctx context.Context, tx domain.Transaction) error {
	b.updated++
	return nil
}

func (b *stubBackend) AddDonation(ctx context.Context, rec domain.DonationRecord) error {
	b.donations++
	return nil
}

func (b *stubBackend) UploadEvidence(ctx context.Context, base64Data, fileName string) (string, error) {
	return "https://lh3.googleusercontent.com/d/" + fileName, nil
}

func (b *stubBackend) SendDonationMail(ctx context.Context, to, subject, htmlBody string) error {
	return nil
}

func newTestRouter(t *testing.T) (http.Handler, *stubBackend) {
	t.Helper()

	backend := &stubBackend{
		data: &domain.AppData{
			OrgInfo: domain.OrgInfo{Name: "정심작업장", InitialCarryover: 1_000_000},
			Transactions: []domain.Transaction{
				{ID: "t1", Date: "2024-01-10", Type: domain.TypeIncome, Category: "후원금", Amount: 50_000, Vendor: "김철수", Approvals: domain.Approvals{PIC: true}},
			},
			Saints: []domain.Saint{
				{ID: "s1", Name: "김철수", Email: "kim@example.com"},
			},
			Donations: []domain.DonationRecord{
				{ID: "d1", TargetYear: 2024, SaintID: "s1", SaintName: "김철수", SerialNumber: "2024-001", Amount: 50_000},
			},
			ApprovalLine: []domain.ApprovalLineItem{
				{Role: "담당", Name: "박담당", ID: "pak", Password: "pw1"},
				{Role: "사무국장", Name: "최국장", ID: "choi", Password: "pw2"},
				{Role: "원장", Name: "정원장", ID: "jung", Password: "pw3"},
			},
		},
	}

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	snap := service.NewSnapshotService(backend, cache.New[*domain.AppData](time.Minute), metrics, logger)
	sessionSvc := service.NewSessionService(snap, "test-secret", time.Hour, logger)

	router := handler.NewRouter(handler.Services{
		Snapshot:     snap,
		Ledger:       service.NewLedgerService(snap),
		Transactions: service.NewTransactionService(snap, backend, backend, metrics, logger),
		Donations:    service.NewDonationService(snap, backend, backend, metrics, logger),
		Session:      sessionSvc,
		Uploader:     backend,
	}, metrics, logger)

	return router, backend
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router http.Handler, id, password string) string {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"id": id, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	var res struct {
		AccessToken string `json:"accessToken"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return res.AccessToken
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestOpsMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/ops", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cacheHitRate") {
		t.Errorf("expected ops counters in body, got %s", rec.Body.String())
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, path := range []string{"/v1/snapshot", "/v1/journal", "/v1/transactions", "/v1/donations"} {
		rec := doJSON(t, router, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 without token, got %d", path, rec.Code)
		}
	}

	rec := doJSON(t, router, http.MethodGet, "/v1/snapshot", "garbage", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 for malformed token, got %d", rec.Code)
	}
}

func TestLoginAndMe(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"id": "pak", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad credentials, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "아이디 또는 비밀번호가 일치하지 않습니다.") {
		t.Errorf("expected the generic failure message, got %s", rec.Body.String())
	}

	token := login(t, router, "choi", "pw2")
	me := doJSON(t, router, http.MethodGet, "/v1/auth/me", token, nil)
	if me.Code != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", me.Code)
	}
	if !strings.Contains(me.Body.String(), "최국장") {
		t.Errorf("expected roster name in response, got %s", me.Body.String())
	}
}

func TestSnapshotEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	rec := doJSON(t, router, http.MethodGet, "/v1/snapshot", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var res struct {
		Connected bool `json:"connected"`
		Data      struct {
			OrgInfo domain.OrgInfo `json:"churchInfo"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !res.Connected {
		t.Error("expected connected true")
	}
	if res.Data.OrgInfo.Name != "정심작업장" {
		t.Errorf("unexpected org name %q", res.Data.OrgInfo.Name)
	}
}

func TestCreateAndApproveTransaction(t *testing.T) {
	router, backend := newTestRouter(t)
	pakToken := login(t, router, "pak", "pw1")
	choiToken := login(t, router, "choi", "pw2")

	rec := doJSON(t, router, http.MethodPost, "/v1/transactions", pakToken, map[string]any{
		"date":     "2024-03-01",
		"type":     "지출",
		"category": "운영비",
		"amount":   15000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	var tx domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !tx.Approvals.PIC {
		t.Error("expected pic approval at creation")
	}
	if backend.added != 1 {
		t.Errorf("expected 1 backend add, got %d", backend.added)
	}

	// The preparer may not toggle secGen.
	deny := doJSON(t, router, http.MethodPost, "/v1/transactions/"+tx.ID+"/approvals/secGen", pakToken, nil)
	if deny.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for wrong role, got %d", deny.Code)
	}

	allow := doJSON(t, router, http.MethodPost, "/v1/transactions/"+tx.ID+"/approvals/secGen", choiToken, nil)
	if allow.Code != http.StatusOK {
		t.Fatalf("expected 200 for matching role, got %d (%s)", allow.Code, allow.Body.String())
	}
	if backend.updated != 1 {
		t.Errorf("expected 1 backend update, got %d", backend.updated)
	}
}

func TestJournalAndReport(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	journal := doJSON(t, router, http.MethodGet, "/v1/journal", token, nil)
	if journal.Code != http.StatusOK {
		t.Fatalf("journal: expected 200, got %d", journal.Code)
	}
	if !strings.Contains(journal.Body.String(), `"balance":1050000`) {
		t.Errorf("expected running balance in journal, got %s", journal.Body.String())
	}

	report := doJSON(t, router, http.MethodGet, "/v1/reports/2024", token, nil)
	if report.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d", report.Code)
	}
	if !strings.Contains(report.Body.String(), `"prevCarryover":1000000`) {
		t.Errorf("expected carryover in report, got %s", report.Body.String())
	}

	bad := doJSON(t, router, http.MethodGet, "/v1/reports/24", token, nil)
	if bad.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad year, got %d", bad.Code)
	}
}

func TestSummaryValidation(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	rec := doJSON(t, router, http.MethodGet, "/v1/summary?start=2024-01-01&end=2024-12-31", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	missing := doJSON(t, router, http.MethodGet, "/v1/summary?start=2024-01-01", token, nil)
	if missing.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing end, got %d", missing.Code)
	}
}

func TestDonationFlow(t *testing.T) {
	router, backend := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	serial := doJSON(t, router, http.MethodGet, "/v1/donations/next-serial?year=2024", token, nil)
	if serial.Code != http.StatusOK {
		t.Fatalf("next-serial: expected 200, got %d", serial.Code)
	}
	if !strings.Contains(serial.Body.String(), "2024-002") {
		t.Errorf("expected 2024-002, got %s", serial.Body.String())
	}

	total := doJSON(t, router, http.MethodGet, "/v1/saints/s1/donation-total?year=2024", token, nil)
	if total.Code != http.StatusOK {
		t.Fatalf("donation-total: expected 200, got %d", total.Code)
	}
	if !strings.Contains(total.Body.String(), `"total":50000`) {
		t.Errorf("expected matched total, got %s", total.Body.String())
	}

	issue := doJSON(t, router, http.MethodPost, "/v1/donations", token, map[string]any{
		"saintId":    "s1",
		"targetYear": 2024,
	})
	if issue.Code != http.StatusCreated {
		t.Fatalf("issue: expected 201, got %d (%s)", issue.Code, issue.Body.String())
	}
	if backend.donations != 1 {
		t.Errorf("expected 1 backend donation write, got %d", backend.donations)
	}

	var rec domain.DonationRecord
	if err := json.Unmarshal(issue.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	mail := doJSON(t, router, http.MethodPost, "/v1/donations/"+rec.ID+"/email", token, nil)
	if mail.Code != http.StatusOK {
		t.Fatalf("email: expected 200, got %d (%s)", mail.Code, mail.Body.String())
	}
}

func TestUploadFile(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	rec := doJSON(t, router, http.MethodPost, "/v1/files", token, map[string]string{
		"fileName":   "receipt.jpg",
		"base64Data": "aGVsbG8=",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "lh3.googleusercontent.com") {
		t.Errorf("expected normalized url, got %s", rec.Body.String())
	}

	missing := doJSON(t, router, http.MethodPost, "/v1/files", token, map[string]string{"fileName": "x.jpg"})
	if missing.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without data, got %d", missing.Code)
	}
}

func TestReconcile(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	rec := doJSON(t, router, http.MethodPost, "/v1/admin/reconcile", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"result":"reconciled"`) {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestCommentaryUnavailableWithoutGemini(t *testing.T) {
	router, _ := newTestRouter(t)
	token := login(t, router, "pak", "pw1")

	rec := doJSON(t, router, http.MethodPost, "/v1/reports/2024/commentary", token, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without Gemini, got %d", rec.Code)
	}
}
