// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jeranaias/traverse-tui/internal/instruction"
)

// Endpoint paths, relative to the API root.
const (
	PathExistingAccounts   = "back-office-review/existing-accounts"
	PathChartData          = "back-office-review/chart-data"
	PathInstructions       = "withdraw-instruction/status"
	PathInstructionDetails = "withdraw-instruction/withdraw-details"
	PathUpdateInstruction  = "withdraw-instruction/update-withdraw-Operation"
)

// FormatDateForAPI renders a date as YYYY/MM/DD.
func FormatDateForAPI(year, month, day int) string {
	return fmt.Sprintf("%d/%02d/%02d", year, month, day)
}

// YearDateRange returns the first and last day of year.
func YearDateRange(year int) (start, end string) {
	return FormatDateForAPI(year, 1, 1), FormatDateForAPI(year, 12, 31)
}

// ExistingAccounts lists the accounts selectable on the dashboard.
func (c *Client) ExistingAccounts(ctx context.Context) ([]instruction.Account, error) {
	r, err := Get[[]instruction.Account](ctx, c, PathExistingAccounts)
	if err != nil {
		return nil, err
	}
	return data(PathExistingAccounts, r)
}

// ChartData fetches the dashboard series of account. Empty dates default
// to the current year.
func (c *Client) ChartData(ctx context.Context, account, start, end string) (instruction.ChartData, error) {
	defStart, defEnd := YearDateRange(c.now().Year())
	if start == "" {
		start = defStart
	}
	if end == "" {
		end = defEnd
	}

	q := url.Values{}
	q.Set("startDate", start)
	q.Set("endDate", end)
	q.Set("accountNumber", account)
	endpoint := PathChartData + "?" + q.Encode()

	r, err := Get[instruction.ChartData](ctx, c, endpoint)
	if err != nil {
		return instruction.ChartData{}, err
	}
	return data(endpoint, r)
}

// Instructions lists the instructions in a status tab.
func (c *Client) Instructions(ctx context.Context, status instruction.Status) ([]instruction.Instruction, error) {
	endpoint := PathInstructions + "?statusId=" + strconv.Itoa(int(status))
	r, err := Get[[]instruction.Instruction](ctx, c, endpoint)
	if err != nil {
		return nil, err
	}
	return data(endpoint, r)
}

// InstructionDetails fetches the review record of id as listed under status.
func (c *Client) InstructionDetails(ctx context.Context, id string, status instruction.Status) (instruction.Details, error) {
	q := url.Values{}
	q.Set("instructionId", id)
	q.Set("statusId", strconv.Itoa(int(status)))
	endpoint := PathInstructionDetails + "?" + q.Encode()

	r, err := Get[instruction.Details](ctx, c, endpoint)
	if err != nil {
		return instruction.Details{}, err
	}
	return data(endpoint, r)
}

// UpdateInstruction submits an approve or reject decision. Any 2xx answer
// counts as accepted unless the envelope carries an explicit failure.
func (c *Client) UpdateInstruction(ctx context.Context, d instruction.Decision) error {
	r, err := Post[json.RawMessage](ctx, c, PathUpdateInstruction, d)
	if err != nil {
		return err
	}
	if !r.Success && (r.Message != "" || r.Error != "") {
		_, err = data(PathUpdateInstruction, r)
		return err
	}
	return nil
}
