// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instruction

import (
	"strconv"
	"strings"
	"time"
)

// Reviewer is one checker, approver or operations entry. The backend uses a
// different name field per role and two spellings of the review date.
type Reviewer struct {
	CheckerName  string `json:"checkerName,omitempty"`
	ApproverName string `json:"approverName,omitempty"`
	AdminName    string `json:"adminName,omitempty"`
	ReviewDate   string `json:"reviewDate,omitempty"`
	ReviwedDate  string `json:"reviwedDate,omitempty"`
	Status       string `json:"status,omitempty"`
	Comments     string `json:"comments,omitempty"`
}

// Name returns whichever role name is set.
func (r Reviewer) Name() string {
	return firstNonEmpty(r.CheckerName, r.ApproverName, r.AdminName)
}

// Date returns whichever review date is set.
func (r Reviewer) Date() string {
	return firstNonEmpty(r.ReviewDate, r.ReviwedDate)
}

// Approval is the approval-flow section of the instruction details.
type Approval struct {
	Amount                    float64    `json:"amount"`
	CanApprove                bool       `json:"canApprove"`
	IntermediateBankSwiftCode string     `json:"intermediateBankSwiftCode"`
	IntermediateBankName      string     `json:"intermediateBankName"`
	MakerName                 string     `json:"makerName"`
	InitiatedDate             string     `json:"initiatedDate"`
	CurrencyValue             string     `json:"currencyValue"`
	Charges                   float64    `json:"charges"`
	TxnReferenceID            string     `json:"txnReferenceId"`
	Project                   string     `json:"project"`
	BeneficiaryBank           string     `json:"beneficiaryBank"`
	AccountNumber             string     `json:"accountNumber"`
	SwiftCode                 string     `json:"swiftCode"`
	Checkers                  []Reviewer `json:"checkers"`
	Approvers                 []Reviewer `json:"approvers"`
	Operationals              []Reviewer `json:"operationals"`
}

// Details is the full record shown on the review screen.
type Details struct {
	Approval               *Approval `json:"instructionApprovalDTO"`
	CurrencyValue          string    `json:"currencyValue"`
	AvailableBalance       float64   `json:"availableBalance"`
	BankName               string    `json:"bankName"`
	BankSwiftCode          string    `json:"bankSwiftCode"`
	BeneficiaryName        string    `json:"beneficiaryName"`
	AccountNumber          string    `json:"accountNumber"`
	BankRoutingNumber      string    `json:"bankRoutingNumber"`
	SortCode               string    `json:"sortCode"`
	Charges                float64   `json:"charges"`
	InstructionDescription string    `json:"instructionDescription"`
	InstructionLetterURL   string    `json:"instructionLetterUrl"`
}

// Currency returns the details currency, USD when unset.
func (d Details) Currency() string {
	if d.CurrencyValue == "" {
		return "USD"
	}
	return d.CurrencyValue
}

// CanApprove reports whether the reviewer may decide the instruction. Pending
// instructions are always decidable from the pending tab.
func CanApprove(d Details, listed Status) bool {
	if d.Approval != nil && d.Approval.CanApprove {
		return true
	}
	return listed == StatusPending
}

// Field is a labelled value on the review screen.
type Field struct {
	Label string
	Value string
}

// Section is a titled group of fields.
type Section struct {
	Title  string
	Fields []Field
}

// Sections lays out the review screen.
func Sections(d Details) []Section {
	cur := d.Currency()
	var amount, swift, interName string
	if d.Approval != nil {
		if d.Approval.Amount != 0 {
			amount = FormatCurrency(cur, d.Approval.Amount)
		}
		swift = d.Approval.IntermediateBankSwiftCode
		interName = d.Approval.IntermediateBankName
	}
	var balance string
	if d.AvailableBalance != 0 {
		balance = FormatCurrency(cur, d.AvailableBalance)
	}
	var charges string
	if d.Charges != 0 {
		charges = formatNumber(d.Charges)
	}

	return []Section{
		{Title: "Amount Details", Fields: []Field{
			{"Draw Amount", orNA(amount)},
			{"Available balance", orNA(balance)},
		}},
		{Title: "Bank Details", Fields: []Field{
			{"Bank Name", orNA(d.BankName)},
			{"Bank Swift Code", orNA(d.BankSwiftCode)},
			{"Beneficiary Name", orNA(d.BeneficiaryName)},
			{"Account Number/IBAN", orNA(d.AccountNumber)},
			{"Bank Routing Number/Sort Code", orNA(firstNonEmpty(d.BankRoutingNumber, d.SortCode))},
			{"Charges", orNA(charges)},
			{"Intermediary Bank Swift Code", orNA(swift)},
			{"Intermediary Bank Name", orNA(interName)},
		}},
		{Title: "Draw Instruction Details", Fields: []Field{
			{"Instruction Detail", orNA(d.InstructionDescription)},
			{"Instruction Letter", letterLabel(d.InstructionLetterURL)},
		}},
	}
}

func letterLabel(url string) string {
	if url == "" {
		return "No file available"
	}
	return "Instruction Letter.pdf"
}

// LetterURL resolves the instruction letter against the API base URL.
func LetterURL(d Details, baseURL string) string {
	u := d.InstructionLetterURL
	if u == "" || strings.HasPrefix(u, "http") {
		return u
	}
	return baseURL + u
}

// =============================================================================
// TIMELINE
// =============================================================================

// Step is one block of the approval flow.
type Step struct {
	Number    int
	Label     string
	Fields    []Field
	Reviewers []Reviewer
}

// Timeline returns the approval flow: the initiator, then checkers,
// approvers and the operations team when present. Step numbers are fixed
// per role so a missing role leaves a gap.
func Timeline(d Details) []Step {
	a := d.Approval
	if a == nil {
		return nil
	}

	steps := []Step{{
		Number: 1,
		Label:  "Initiator",
		Fields: []Field{
			{"Maker", a.MakerName},
			{"Initiated Date", FormatDate(a.InitiatedDate)},
			{"Amount", FormatCurrency(a.CurrencyValue, a.Amount)},
			{"Charges", formatNumber(a.Charges)},
			{"Reference Id", a.TxnReferenceID},
			{"Project", a.Project},
			{"Bank", a.BeneficiaryBank},
			{"Account Number", a.AccountNumber},
			{"SWIFT Code", a.SwiftCode},
		},
	}}
	if len(a.Checkers) > 0 {
		steps = append(steps, Step{Number: 2, Label: "Checker", Reviewers: a.Checkers})
	}
	if len(a.Approvers) > 0 {
		steps = append(steps, Step{Number: 3, Label: "Approver", Reviewers: a.Approvers})
	}
	if len(a.Operationals) > 0 {
		steps = append(steps, Step{Number: 4, Label: "Operations Team", Reviewers: a.Operationals})
	}
	return steps
}

// =============================================================================
// DATES
// =============================================================================

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
}

// ParseDate parses the date formats the backend emits.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a timeline date as dd/mm/yyyy. Blank, zero and
// unparseable dates render as N/A.
func FormatDate(s string) string {
	t, ok := ParseDate(s)
	if !ok || t.IsZero() {
		return "N/A"
	}
	return t.Format("02/01/2006")
}

// FormatListDate renders a list date as "Jan 02, 2006".
func FormatListDate(s string) string {
	t, ok := ParseDate(s)
	if !ok || t.IsZero() {
		return "N/A"
	}
	return t.Format("Jan 02, 2006")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
