// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package instruction models withdrawal instructions and the reviewer's
// decisions on them.
package instruction

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// STATUS
// =============================================================================

// Status is the review state of an instruction, as numbered by the backend.
type Status int

const (
	StatusPending  Status = 1
	StatusAccepted Status = 2
	StatusRejected Status = 3
)

// Statuses lists the tabs in display order.
var Statuses = []Status{StatusPending, StatusAccepted, StatusRejected}

// String returns the tab label.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	default:
		return "Unknown"
	}
}

// Title returns the list heading for the status.
func (s Status) Title() string {
	if !s.Valid() {
		return "Review Instruction"
	}
	return "Review Instruction - " + s.String()
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusRejected
}

// ParseStatus accepts a tab name ("pending") or its number ("1").
func ParseStatus(v string) (Status, error) {
	v = strings.ToLower(strings.TrimSpace(v))
	if n, err := strconv.Atoi(v); err == nil {
		s := Status(n)
		if s.Valid() {
			return s, nil
		}
		return 0, fmt.Errorf("unknown status id %d", n)
	}
	switch v {
	case "pending":
		return StatusPending, nil
	case "accepted", "approved":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	}
	return 0, fmt.Errorf("unknown status %q", v)
}

// =============================================================================
// LIST ITEMS
// =============================================================================

// Instruction is one row of an instruction list.
type Instruction struct {
	ID                     string  `json:"id"`
	CustomerID             string  `json:"customerId"`
	CustomerName           string  `json:"customerName"`
	AccountName            string  `json:"accountName"`
	AccountID              string  `json:"accountId"`
	Amount                 float64 `json:"amount"`
	BeneficiaryName        string  `json:"beneficiaryName"`
	TxnReferenceID         string  `json:"txnReferenceId"`
	CurrencyType           string  `json:"currencyType"`
	InstructionDescription string  `json:"instructionDescription"`
	RequestedDate          string  `json:"requestedDate"`
	CanApprove             bool    `json:"canApprove"`
	PendingAction          *string `json:"pendingAction"`
}

// Filter returns the items whose customer name, account name, reference or
// description contains query, ignoring case. A blank query returns items.
func Filter(items []Instruction, query string) []Instruction {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return items
	}
	out := make([]Instruction, 0, len(items))
	for _, it := range items {
		if containsFold(it.CustomerName, q) ||
			containsFold(it.AccountName, q) ||
			containsFold(it.TxnReferenceID, q) ||
			containsFold(it.InstructionDescription, q) {
			out = append(out, it)
		}
	}
	return out
}

func containsFold(s, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(s), lowerQuery)
}

// NewArrivals returns the items whose IDs are not in seen.
func NewArrivals(seen map[string]bool, items []Instruction) []Instruction {
	var out []Instruction
	for _, it := range items {
		if !seen[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// ArrivalMessage is the body of the new pending instructions notice.
func ArrivalMessage(n int) string {
	return fmt.Sprintf("You have %d new pending instructions to review", n)
}

// ArrivalTitle is the title of the new pending instructions notice.
const ArrivalTitle = "New Pending Instructions"

// =============================================================================
// DECISIONS
// =============================================================================

// ErrCommentsRequired is returned when a decision has no comments.
var ErrCommentsRequired = errors.New("please enter comments before submitting")

// StatusUpdate is the reviewer part of a Decision.
type StatusUpdate struct {
	StatusID   Status `json:"statusId"`
	ApproverID string `json:"approverId"`
	Comments   string `json:"comments"`
}

// Decision is the payload that approves or rejects an instruction.
type Decision struct {
	InstructionID string `json:"instructionId"`
	// The backend field is spelled this way.
	IsChargePercentage bool         `json:"isChargePercenatage"`
	Charges            float64      `json:"charges"`
	StatusUpdate       StatusUpdate `json:"statusUpdateDTO"`
}

// NewDecision builds the approve or reject payload for id. Only accepted and
// rejected are valid outcomes.
func NewDecision(id string, outcome Status, comments string) (Decision, error) {
	if strings.TrimSpace(id) == "" {
		return Decision{}, errors.New("instruction id is required")
	}
	if outcome != StatusAccepted && outcome != StatusRejected {
		return Decision{}, fmt.Errorf("cannot decide an instruction as %s", outcome)
	}
	if strings.TrimSpace(comments) == "" {
		return Decision{}, ErrCommentsRequired
	}
	return Decision{
		InstructionID: id,
		StatusUpdate: StatusUpdate{
			StatusID: outcome,
			Comments: comments,
		},
	}, nil
}

// SuccessMessage is shown after the backend accepts the decision.
func (d Decision) SuccessMessage() string {
	if d.StatusUpdate.StatusID == StatusAccepted {
		return "Instruction approved successfully"
	}
	return "Instruction rejected successfully"
}

// FailureMessage is shown when the backend rejects the decision.
func (d Decision) FailureMessage() string {
	if d.StatusUpdate.StatusID == StatusAccepted {
		return "Failed to approve instruction"
	}
	return "Failed to reject instruction"
}
