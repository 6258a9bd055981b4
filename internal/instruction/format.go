// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package instruction

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders amount with the symbol of the ISO currency code and
// English digit grouping. At least two decimals are shown; extra decimals in
// the amount are kept. Unknown codes fall back to "CODE amount".
func FormatCurrency(code string, amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "0.00"
	}
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return grouped(amount)
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + strconv.FormatFloat(amount, 'f', -1, 64)
	}

	sym := printer.Sprint(currency.NarrowSymbol(unit))
	if sym == "" {
		sym = code
	}
	if amount < 0 {
		return "-" + sym + grouped(-amount)
	}
	return sym + grouped(amount)
}

// grouped formats v with thousands separators and two or more decimals.
func grouped(v float64) string {
	return printer.Sprintf(fmt.Sprintf("%%.%df", decimals(v)), v)
}

func decimals(v float64) int {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	i := strings.IndexByte(s, '.')
	if i < 0 || len(s)-i-1 < 2 {
		return 2
	}
	return len(s) - i - 1
}

// =============================================================================
// DASHBOARD
// =============================================================================

// Account is a customer account selectable on the dashboard.
type Account struct {
	ID          string `json:"id"`
	AccountName string `json:"accountName"`
}

// MonthlyInstruction counts decisions for one month.
type MonthlyInstruction struct {
	Month                string `json:"month"`
	ApprovedApplications int    `json:"approvedApplications"`
	RejectedApplications int    `json:"rejectedApplications"`
}

// MonthlyAmount sums movements for one month.
type MonthlyAmount struct {
	Month          string  `json:"month"`
	CreditedAmount float64 `json:"creditedAmount"`
	InterestAmount float64 `json:"interestAmount"`
	DebitedAmount  float64 `json:"debitedAmount"`
}

// ChartData is the dashboard series for one account and date range.
type ChartData struct {
	MonthlyInstructions []MonthlyInstruction `json:"monthlyInstructions"`
	MonthlyAmount       []MonthlyAmount      `json:"monthlyAmount"`
}

// Summary holds the yearly totals shown under the charts.
type Summary struct {
	Approved int
	Rejected int
	Credited float64
	Interest float64
	Debited  float64
}

// Totals sums the chart series.
func Totals(c ChartData) Summary {
	var s Summary
	for _, m := range c.MonthlyInstructions {
		s.Approved += m.ApprovedApplications
		s.Rejected += m.RejectedApplications
	}
	for _, m := range c.MonthlyAmount {
		s.Credited += m.CreditedAmount
		s.Interest += m.InterestAmount
		s.Debited += m.DebitedAmount
	}
	return s
}
