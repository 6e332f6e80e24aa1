package service

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/ledger"
	"github.com/jeongsim/accounting-api/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var txTracer = otel.Tracer("service/transactions")

// TransactionService handles voucher entry, listing, and the
// three-tier approval flow.
type TransactionService struct {
	snap     *SnapshotService
	writer   port.TransactionWriter
	uploader port.EvidenceUploader
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(snap *SnapshotService, writer port.TransactionWriter, uploader port.EvidenceUploader, metrics *observability.Metrics, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		snap:     snap,
		writer:   writer,
		uploader: uploader,
		metrics:  metrics,
		logger:   logger,
	}
}

// EvidenceFile is one attachment submitted with a new voucher.
type EvidenceFile struct {
	FileName   string `json:"fileName"`
	Base64Data string `json:"base64Data"`
}

// CreateTransactionRequest is the payload for a new voucher entry.
type CreateTransactionRequest struct {
	Date        string                 `json:"date"`
	Type        domain.TransactionType `json:"type"`
	Category    string                 `json:"category"`
	Amount      domain.Amount          `json:"amount"`
	Description string                 `json:"description"`
	Vendor      string                 `json:"vendor"`
	Evidence    []EvidenceFile         `json:"evidence,omitempty"`
}

// List returns transactions filtered by year, type, and a free-text
// query over description and vendor, newest first. Empty filters match
// everything.
func (s *TransactionService) List(ctx context.Context, year, typ, query string) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.List")
	defer span.End()

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	query = strings.TrimSpace(query)
	out := make([]domain.Transaction, 0, len(data.Transactions))
	for _, t := range data.Transactions {
		if year != "" && !strings.HasPrefix(t.Date, year) {
			continue
		}
		if typ != "" && string(t.Type) != typ {
			continue
		}
		if query != "" &&
			!strings.Contains(t.Description, query) &&
			!strings.Contains(t.Vendor, query) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date > out[j].Date
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Get returns a single transaction by id.
func (s *TransactionService) Get(ctx context.Context, txID string) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Get")
	defer span.End()

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range data.Transactions {
		if data.Transactions[i].ID == txID {
			t := data.Transactions[i]
			return &t, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: txID}
}

// Create validates and records a new voucher. Evidence files are
// uploaded one at a time before the row is pushed; a failed upload is
// logged and skipped so the voucher still lands without that
// attachment. The backend push is fire-and-forget with a single
// attempt; the returned transaction is the locally applied one.
func (s *TransactionService) Create(ctx context.Context, user domain.User, req *CreateTransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Create")
	defer span.End()
	span.SetAttributes(attribute.String("type", string(req.Type)))
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("create_transaction", time.Since(start)) }()

	if ledger.NormalizeDate(req.Date) == "" {
		return nil, &domain.ErrValidation{Field: "date", Message: "invalid date, use YYYY-MM-DD"}
	}
	if req.Type != domain.TypeIncome && req.Type != domain.TypeExpense {
		return nil, &domain.ErrValidation{Field: "type", Message: "must be 수입 or 지출"}
	}
	if req.Amount <= 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, &domain.ErrValidation{Field: "category", Message: "required"}
	}

	tx := domain.Transaction{
		ID:          strconv.FormatInt(time.Now().UnixMilli(), 10),
		Date:        req.Date,
		Type:        req.Type,
		Category:    strings.TrimSpace(req.Category),
		Amount:      req.Amount,
		Description: strings.TrimSpace(req.Description),
		Vendor:      strings.TrimSpace(req.Vendor),
		Spender:     user.Name,
		EvidenceURL: s.uploadEvidence(ctx, req.Evidence),
		Approvals:   domain.Approvals{PIC: true},
	}

	if err := s.writer.AddTransaction(ctx, tx); err != nil {
		s.metrics.IncrWrite("addTransaction", "failed")
		s.logger.Error("transaction push not delivered",
			zap.String("tx_id", tx.ID),
			zap.Error(err),
		)
	} else {
		s.metrics.IncrWrite("addTransaction", "sent")
	}

	s.snap.Mutate(ctx, func(d *domain.AppData) {
		d.Transactions = append(d.Transactions, tx)
	})

	s.logger.Info("transaction created",
		zap.String("tx_id", tx.ID),
		zap.String("date", tx.Date),
		zap.String("type", string(tx.Type)),
		zap.Int64("amount", int64(tx.Amount)),
	)
	return &tx, nil
}

// uploadEvidence uploads attachments sequentially and returns the
// evidenceUrl cell value: empty, a single URL, or a JSON array of URLs.
func (s *TransactionService) uploadEvidence(ctx context.Context, files []EvidenceFile) string {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		if f.Base64Data == "" {
			continue
		}
		url, err := s.uploader.UploadEvidence(ctx, f.Base64Data, f.FileName)
		if err != nil {
			s.logger.Warn("evidence upload failed, skipping attachment",
				zap.String("file_name", f.FileName),
				zap.Error(err),
			)
			continue
		}
		urls = append(urls, url)
	}

	switch len(urls) {
	case 0:
		return ""
	case 1:
		return urls[0]
	default:
		encoded, err := json.Marshal(urls)
		if err != nil {
			return urls[0]
		}
		return string(encoded)
	}
}

// ToggleApproval flips one approval flag on a transaction. The pic
// flag is set at creation time and cannot be toggled; secGen and
// director each require the matching roster role.
func (s *TransactionService) ToggleApproval(ctx context.Context, user domain.User, txID string, step domain.ApprovalStep) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.ToggleApproval")
	defer span.End()
	span.SetAttributes(
		attribute.String("tx.id", txID),
		attribute.String("step", string(step)),
	)

	if step == domain.StepPIC {
		return nil, &domain.ErrValidation{Field: "step", Message: "pic is set at creation and cannot be toggled"}
	}
	required, ok := domain.RequiredRole(step)
	if !ok {
		return nil, &domain.ErrValidation{Field: "step", Message: "unknown approval step"}
	}
	if user.Role != required {
		s.metrics.IncrApprovalDenial(string(step))
		s.logger.Warn("approval toggle denied",
			zap.String("tx_id", txID),
			zap.String("step", string(step)),
			zap.String("role", string(user.Role)),
		)
		return nil, &domain.ErrForbidden{Message: string(required) + " 권한이 필요합니다."}
	}

	tx, err := s.Get(ctx, txID)
	if err != nil {
		return nil, err
	}

	switch step {
	case domain.StepSecGen:
		tx.Approvals.SecGen = !tx.Approvals.SecGen
	case domain.StepDirector:
		tx.Approvals.Director = !tx.Approvals.Director
	}

	if err := s.writer.UpdateTransaction(ctx, *tx); err != nil {
		s.metrics.IncrWrite("updateTransaction", "failed")
		s.logger.Error("approval push not delivered",
			zap.String("tx_id", txID),
			zap.Error(err),
		)
	} else {
		s.metrics.IncrWrite("updateTransaction", "sent")
	}

	s.snap.Mutate(ctx, func(d *domain.AppData) {
		for i := range d.Transactions {
			if d.Transactions[i].ID == txID {
				d.Transactions[i].Approvals = tx.Approvals
				return
			}
		}
	})

	s.logger.Info("approval toggled",
		zap.String("tx_id", txID),
		zap.String("step", string(step)),
		zap.String("by", user.Name),
	)
	return tx, nil
}
