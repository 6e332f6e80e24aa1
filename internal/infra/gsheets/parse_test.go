package gsheets

import (
	"testing"

	"github.com/jeongsim/accounting-api/internal/domain"
)

func TestParseOrgInfo(t *testing.T) {
	rows := [][]any{
		{"name", "정심작업장"},
		{"registrationNumber", "123-45-67890"},
		{"initialCarryover", "1,000,000"},
		{"", "ignored"},
	}
	info := parseOrgInfo(rows)
	if info.Name != "정심작업장" {
		t.Errorf("unexpected name: %s", info.Name)
	}
	if info.InitialCarryover != 1000000 {
		t.Errorf("expected carryover with thousands separators parsed, got %d", info.InitialCarryover)
	}
}

func TestParseApprovalLine(t *testing.T) {
	rows := [][]any{
		{"이름", "직책", "서명", "ID", "PW"},
		{"홍길동", "담당", "", "hong", "pw1"},
		{"", "", "", "", ""},
		{"김철수", "원장", "https://example.com/sign.png", "kim", "pw2"},
	}
	line := parseApprovalLine(rows)
	if len(line) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(line))
	}
	if line[0].Role != "담당" || line[1].Name != "김철수" {
		t.Errorf("unexpected entries: %+v", line)
	}
}

func TestParseTransactions(t *testing.T) {
	rows := [][]any{
		{"ID", "날짜", "구분", "계정", "금액", "내용", "거래처", "지출자", "증빙", "결재"},
		{"1700000000000", "2024-03-01", "수입", "후원금", "50000", "3월 후원", "김성도", "", "", `{"pic":true,"secGen":true}`},
		{"", "2024-03-02", "지출", "운영비", 12000.0, "소모품", "", "관리자", "", "not-json"},
		{"skip-me", "", "지출", "운영비", "100", "", "", "", "", ""},
	}
	txs := parseTransactions(rows)
	if len(txs) != 2 {
		t.Fatalf("expected 2 transactions (dateless row skipped), got %d", len(txs))
	}

	first := txs[0]
	if first.Amount != 50000 || first.Type != domain.TypeIncome {
		t.Errorf("unexpected first tx: %+v", first)
	}
	if !first.Approvals.PIC || !first.Approvals.SecGen || first.Approvals.Director {
		t.Errorf("unexpected approvals: %+v", first.Approvals)
	}

	second := txs[1]
	if second.ID != "t_1" {
		t.Errorf("expected synthetic id t_1, got %s", second.ID)
	}
	if second.Amount != 12000 {
		t.Errorf("numeric cell should parse, got %d", second.Amount)
	}
	if second.Approvals != (domain.Approvals{}) {
		t.Errorf("malformed approvals should degrade to all-false: %+v", second.Approvals)
	}
}

func TestParseDonations(t *testing.T) {
	rows := [][]any{
		{"ID", "발행일", "귀속연도", "성명", "교인ID", "금액", "발행자", "일련번호"},
		{"d1", "2025-01-10", "2024", "김성도", "s1", "150000", "관리자", "2024-001"},
	}
	donations := parseDonations(rows)
	if len(donations) != 1 {
		t.Fatalf("expected 1 donation, got %d", len(donations))
	}
	d := donations[0]
	if d.TargetYear != 2024 || d.SerialNumber != "2024-001" || d.Amount != 150000 {
		t.Errorf("unexpected donation: %+v", d)
	}
}
