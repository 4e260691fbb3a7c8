// Package billing implements the invoice lifecycle: line item math, the
// payment ledger, and the status recomputation that runs after every payment
// mutation.
package billing

import "github.com/shopspring/decimal"

// Status is the invoice lifecycle tag. The engine only ever computes paid,
// partially_paid or unpaid; pending, overdue and cancelled are manual
// administrator transitions.
type Status string

const (
	StatusPending       Status = "pending"
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
	StatusOverdue       Status = "overdue"
	StatusCancelled     Status = "cancelled"
)

// ValidStatus reports whether s is one of the enumerated invoice statuses.
func ValidStatus(s string) bool {
	switch Status(s) {
	case StatusPending, StatusUnpaid, StatusPartiallyPaid, StatusPaid, StatusOverdue, StatusCancelled:
		return true
	}
	return false
}

// ComputeStatus derives the automatic status from the invoice amount and the
// sum of its payment ledger.
func ComputeStatus(amount decimal.Decimal, totalPaid decimal.Decimal) Status {
	switch {
	case totalPaid.GreaterThanOrEqual(amount):
		return StatusPaid
	case totalPaid.GreaterThan(decimal.Zero):
		return StatusPartiallyPaid
	default:
		return StatusUnpaid
	}
}
