package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/ledger"
	"github.com/jeongsim/accounting-api/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var donationTracer = otel.Tracer("service/donations")

// DonationService issues donation tax receipts and mails them out.
type DonationService struct {
	snap    *SnapshotService
	writer  port.DonationWriter
	mailer  port.MailSender
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDonationService creates a new donation service.
func NewDonationService(snap *SnapshotService, writer port.DonationWriter, mailer port.MailSender, metrics *observability.Metrics, logger *zap.Logger) *DonationService {
	return &DonationService{
		snap:    snap,
		writer:  writer,
		mailer:  mailer,
		metrics: metrics,
		logger:  logger,
	}
}

// IssueDonationRequest is the payload for issuing a receipt.
// Amount 0 means "derive from the ledger for the target year".
type IssueDonationRequest struct {
	SaintID    string        `json:"saintId"`
	TargetYear int           `json:"targetYear"`
	Amount     domain.Amount `json:"amount,omitempty"`
	IssueDate  string        `json:"issueDate,omitempty"`
}

// List returns issued receipts, optionally filtered by target year
// (0 matches all years).
func (s *DonationService) List(ctx context.Context, targetYear int) ([]domain.DonationRecord, error) {
	ctx, span := donationTracer.Start(ctx, "DonationService.List")
	defer span.End()

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if targetYear == 0 {
		return data.Donations, nil
	}
	out := make([]domain.DonationRecord, 0)
	for _, d := range data.Donations {
		if int(d.TargetYear) == targetYear {
			out = append(out, d)
		}
	}
	return out, nil
}

// NextSerial returns the next receipt serial for a target year.
func (s *DonationService) NextSerial(ctx context.Context, targetYear int) (string, error) {
	ctx, span := donationTracer.Start(ctx, "DonationService.NextSerial")
	defer span.End()
	span.SetAttributes(attribute.Int("target_year", targetYear))

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return "", err
	}
	return ledger.NextSerial(data.Donations, targetYear), nil
}

// DonationTotal reconstructs a donor's yearly total from the income
// entries whose vendor matches the donor's name.
func (s *DonationService) DonationTotal(ctx context.Context, saintID string, targetYear int) (domain.Amount, error) {
	ctx, span := donationTracer.Start(ctx, "DonationService.DonationTotal")
	defer span.End()

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	saint, ok := findSaint(data.Saints, saintID)
	if !ok {
		return 0, &domain.ErrNotFound{Resource: "saint", ID: saintID}
	}
	return ledger.DonationTotal(data.Transactions, saint.Name, targetYear), nil
}

// Issue allocates the next serial for the target year and records the
// receipt. The serial is derived from the snapshot at call time; the
// backend push is fire-and-forget with a single attempt.
func (s *DonationService) Issue(ctx context.Context, user domain.User, req *IssueDonationRequest) (*domain.DonationRecord, error) {
	ctx, span := donationTracer.Start(ctx, "DonationService.Issue")
	defer span.End()
	span.SetAttributes(attribute.Int("target_year", req.TargetYear))
	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("issue_donation", time.Since(start)) }()

	if req.SaintID == "" {
		return nil, &domain.ErrValidation{Field: "saintId", Message: "required"}
	}
	if req.TargetYear < 1900 || req.TargetYear > 9999 {
		return nil, &domain.ErrValidation{Field: "targetYear", Message: "invalid target year"}
	}
	if req.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	saint, ok := findSaint(data.Saints, req.SaintID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "saint", ID: req.SaintID}
	}

	amount := req.Amount
	if amount == 0 {
		amount = ledger.DonationTotal(data.Transactions, saint.Name, req.TargetYear)
	}
	issueDate := req.IssueDate
	if issueDate == "" {
		issueDate = time.Now().Format("2006-01-02")
	} else if ledger.NormalizeDate(issueDate) == "" {
		return nil, &domain.ErrValidation{Field: "issueDate", Message: "invalid date, use YYYY-MM-DD"}
	}

	rec := domain.DonationRecord{
		ID:           uuid.New().String(),
		IssueDate:    issueDate,
		TargetYear:   domain.Year(req.TargetYear),
		SaintName:    saint.Name,
		SaintID:      saint.ID,
		Amount:       amount,
		Issuer:       user.Name,
		SerialNumber: ledger.NextSerial(data.Donations, req.TargetYear),
	}

	if err := s.writer.AddDonation(ctx, rec); err != nil {
		s.metrics.IncrWrite("addDonation", "failed")
		s.logger.Error("donation push not delivered",
			zap.String("donation_id", rec.ID),
			zap.Error(err),
		)
	} else {
		s.metrics.IncrWrite("addDonation", "sent")
	}

	s.snap.Mutate(ctx, func(d *domain.AppData) {
		d.Donations = append(d.Donations, rec)
	})

	s.logger.Info("donation receipt issued",
		zap.String("donation_id", rec.ID),
		zap.String("serial", rec.SerialNumber),
		zap.String("saint", rec.SaintName),
		zap.Int64("amount", int64(rec.Amount)),
	)
	return &rec, nil
}

// SendReceiptMailRequest is the payload for mailing a receipt.
// To overrides the donor's roster email; HTMLBody overrides the
// default rendering.
type SendReceiptMailRequest struct {
	To       string `json:"to,omitempty"`
	HTMLBody string `json:"htmlBody,omitempty"`
}

// SendReceiptMail delivers an issued receipt by email. Unlike the
// ledger writes this waits for the backend's parsed response, so a
// returned nil really means the mail was handed off.
func (s *DonationService) SendReceiptMail(ctx context.Context, donationID string, req *SendReceiptMailRequest) error {
	ctx, span := donationTracer.Start(ctx, "DonationService.SendReceiptMail")
	defer span.End()

	data, err := s.snap.Snapshot(ctx)
	if err != nil {
		return err
	}

	var rec *domain.DonationRecord
	for i := range data.Donations {
		if data.Donations[i].ID == donationID {
			rec = &data.Donations[i]
			break
		}
	}
	if rec == nil {
		return &domain.ErrNotFound{Resource: "donation", ID: donationID}
	}

	to := strings.TrimSpace(req.To)
	if to == "" {
		if saint, ok := findSaint(data.Saints, rec.SaintID); ok {
			to = strings.TrimSpace(saint.Email)
		}
	}
	if to == "" {
		return &domain.ErrValidation{Field: "to", Message: "recipient email is not on record"}
	}

	subject := fmt.Sprintf("[%s] %d년 기부금 영수증 (%s)", data.OrgInfo.Name, rec.TargetYear, rec.SerialNumber)
	body := req.HTMLBody
	if body == "" {
		body = renderReceiptHTML(data.OrgInfo, rec)
	}

	if err := s.mailer.SendDonationMail(ctx, to, subject, body); err != nil {
		s.metrics.IncrExternalError("mail")
		s.logger.Error("receipt mail failed",
			zap.String("donation_id", donationID),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("receipt mail sent",
		zap.String("donation_id", donationID),
		zap.String("serial", rec.SerialNumber),
	)
	return nil
}

func findSaint(saints []domain.Saint, id string) (domain.Saint, bool) {
	for _, s := range saints {
		if s.ID == id {
			return s, true
		}
	}
	return domain.Saint{}, false
}

// renderReceiptHTML is the fallback body when the caller does not
// supply pre-rendered HTML.
func renderReceiptHTML(org domain.OrgInfo, rec *domain.DonationRecord) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<h2>기부금 영수증 (%s)</h2>", rec.SerialNumber)
	fmt.Fprintf(&b, "<p>기부자: %s</p>", rec.SaintName)
	fmt.Fprintf(&b, "<p>귀속연도: %d년</p>", rec.TargetYear)
	fmt.Fprintf(&b, "<p>기부금액: %d원</p>", rec.Amount)
	fmt.Fprintf(&b, "<p>발행일: %s</p>", rec.IssueDate)
	fmt.Fprintf(&b, "<p>발행기관: %s (%s)</p>", org.Name, org.RegistrationNumber)
	b.WriteString("</body></html>")
	return b.String()
}
