package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeongsim/accounting-api/internal/ledger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

var commentaryTracer = otel.Tracer("service/commentary")

// CommentaryService generates a narrative summary of an annual
// settlement with Gemini. It is optional: without an API key the
// service stays nil and its endpoint answers 503.
type CommentaryService struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewCommentaryService creates the Gemini-backed commentary service.
func NewCommentaryService(ctx context.Context, apiKey, model string, logger *zap.Logger) (*CommentaryService, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &CommentaryService{client: client, model: model, logger: logger}, nil
}

// Generate produces a Korean prose commentary for a settlement report.
func (s *CommentaryService) Generate(ctx context.Context, orgName string, settlement *ledger.Settlement) (string, error) {
	ctx, span := commentaryTracer.Start(ctx, "CommentaryService.Generate")
	defer span.End()
	span.SetAttributes(attribute.Int("target_year", settlement.TargetYear))

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: buildCommentaryPrompt(orgName, settlement)},
			},
		},
	}

	resp, err := s.client.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate commentary: %w", err)
	}

	text := cleanModelText(resp.Text())
	if text == "" {
		return "", fmt.Errorf("generate commentary: empty response")
	}

	s.logger.Info("settlement commentary generated",
		zap.Int("target_year", settlement.TargetYear),
		zap.Int("length", len(text)),
	)
	return text, nil
}

func buildCommentaryPrompt(orgName string, r *ledger.Settlement) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s의 %d년 결산 보고서 총평을 작성해 주세요.\n\n", orgName, r.TargetYear)
	fmt.Fprintf(&b, "전년도 이월금: %d원\n", r.PrevCarryover)
	fmt.Fprintf(&b, "총 수입: %d원\n", r.TotalIncome)
	fmt.Fprintf(&b, "총 지출: %d원\n", r.TotalExpense)
	fmt.Fprintf(&b, "차기 이월금: %d원\n\n", r.Balance)

	if len(r.IncomeByCategory) > 0 {
		b.WriteString("수입 내역:\n")
		for cat, amt := range r.IncomeByCategory {
			fmt.Fprintf(&b, "- %s: %d원\n", cat, amt)
		}
	}
	if len(r.ExpenseByCategory) > 0 {
		b.WriteString("지출 내역:\n")
		for cat, amt := range r.ExpenseByCategory {
			fmt.Fprintf(&b, "- %s: %d원\n", cat, amt)
		}
	}

	b.WriteString("\n형식: 존댓말의 공식 보고서 문체, 3~4문단, 마크다운 없이 순수 텍스트로만 작성해 주세요.")
	return b.String()
}

// cleanModelText strips markdown code fences the model sometimes wraps
// around plain-text answers.
func cleanModelText(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
	}
	return strings.TrimSpace(text)
}
