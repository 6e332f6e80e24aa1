package domain

import "strings"

// DemoData returns the fixed offline dataset substituted when the
// backend cannot be reached or returns a malformed payload. The "(데모)"
// marker in the organization name tells clients they are looking at
// placeholder data.
func DemoData() *AppData {
	return &AppData{
		OrgInfo: OrgInfo{
			Name:               "정심작업장 (데모)",
			RegistrationNumber: "",
			Address:            "",
			Representative:     "",
		},
		Transactions:      []Transaction{},
		AccountCodes:      []AccountCode{},
		AccountCategories: AccountCategories{Income: []string{}, Expense: []string{}},
		Members:           []Member{},
		Saints:            []Saint{},
		Donations:         []DonationRecord{},
		ApprovalLine:      []ApprovalLineItem{},
	}
}

// IsDemo reports whether a snapshot is the offline fallback dataset.
func (d *AppData) IsDemo() bool {
	return strings.Contains(d.OrgInfo.Name, "(데모)")
}
