package gsheets

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeongsim/accounting-api/internal/domain"
)

// Row parsing mirrors the Apps Script getData handler: first row is a
// header, blank key cells mark dead rows, and numeric cells may arrive
// as strings.

func cell(row []any, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}

func cellInt64(row []any, idx int) int64 {
	s := cell(row, idx)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int64(f)
	}
	return 0
}

// normalizeCellDate reduces whatever the sheet holds (date value or
// free text) to a YYYY-MM-DD prefix, like the script's formatDate.
func normalizeCellDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

func parseOrgInfo(rows [][]any) domain.OrgInfo {
	var info domain.OrgInfo
	for _, r := range rows {
		key := cell(r, 0)
		value := cell(r, 1)
		switch key {
		case "name":
			info.Name = value
		case "registrationNumber":
			info.RegistrationNumber = value
		case "address":
			info.Address = value
		case "representative":
			info.Representative = value
		case "phoneNumber":
			info.PhoneNumber = value
		case "sealUrl":
			info.SealURL = value
		case "initialCarryover":
			info.InitialCarryover = domain.Amount(cellInt64(r, 1))
		}
	}
	return info
}

func parseApprovalLine(rows [][]any) []domain.ApprovalLineItem {
	line := []domain.ApprovalLineItem{}
	for i, r := range rows {
		if i == 0 {
			continue // header
		}
		name := cell(r, 0)
		role := cell(r, 1)
		if name == "" && role == "" {
			continue
		}
		line = append(line, domain.ApprovalLineItem{
			Name:     name,
			Role:     role,
			SignURL:  cell(r, 2),
			ID:       cell(r, 3),
			Password: cell(r, 4),
		})
	}
	return line
}

func parseAccountCategories(rows [][]any) domain.AccountCategories {
	cats := domain.AccountCategories{Income: []string{}, Expense: []string{}}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		if v := cell(r, 0); v != "" {
			cats.Income = append(cats.Income, v)
		}
		if v := cell(r, 1); v != "" {
			cats.Expense = append(cats.Expense, v)
		}
	}
	return cats
}

func parseTransactions(rows [][]any) []domain.Transaction {
	txs := []domain.Transaction{}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		date := cell(r, 1)
		amount := cell(r, 4)
		if date == "" || amount == "" {
			continue
		}

		approvals := domain.Approvals{}
		if raw := cell(r, 9); raw != "" {
			// Malformed approval JSON degrades to all-false.
			_ = json.Unmarshal([]byte(raw), &approvals)
		}

		id := cell(r, 0)
		if id == "" {
			id = fmt.Sprintf("t_%d", i-1)
		}

		txs = append(txs, domain.Transaction{
			ID:          id,
			Date:        normalizeCellDate(date),
			Type:        domain.TransactionType(cell(r, 2)),
			Category:    cell(r, 3),
			Amount:      domain.Amount(cellInt64(r, 4)),
			Description: cell(r, 5),
			Vendor:      cell(r, 6),
			Spender:     cell(r, 7),
			EvidenceURL: cell(r, 8),
			Approvals:   approvals,
		})
	}
	return txs
}

func parseDonations(rows [][]any) []domain.DonationRecord {
	donations := []domain.DonationRecord{}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		id := cell(r, 0)
		if id == "" {
			continue
		}
		donations = append(donations, domain.DonationRecord{
			ID:           id,
			IssueDate:    normalizeCellDate(cell(r, 1)),
			TargetYear:   domain.Year(cellInt64(r, 2)),
			SaintName:    cell(r, 3),
			SaintID:      cell(r, 4),
			Amount:       domain.Amount(cellInt64(r, 5)),
			Issuer:       cell(r, 6),
			SerialNumber: cell(r, 7),
		})
	}
	return donations
}

func parseSaints(rows [][]any) []domain.Saint {
	saints := []domain.Saint{}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		id := cell(r, 0)
		name := cell(r, 1)
		if id == "" && name == "" {
			continue
		}
		saints = append(saints, domain.Saint{
			ID:       id,
			Name:     name,
			JuminNo:  cell(r, 2),
			Position: cell(r, 3),
			Phone:    cell(r, 4),
			Address:  cell(r, 5),
			Email:    cell(r, 6),
			Note:     cell(r, 7),
		})
	}
	return saints
}

func parseMembers(rows [][]any) []domain.Member {
	members := []domain.Member{}
	for i, r := range rows {
		if i == 0 {
			continue
		}
		id := cell(r, 0)
		name := cell(r, 1)
		if id == "" && name == "" {
			continue
		}
		members = append(members, domain.Member{
			ID:       id,
			Name:     name,
			Position: cell(r, 2),
		})
	}
	return members
}
