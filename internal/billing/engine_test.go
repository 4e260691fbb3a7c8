package billing

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nordwell/studio-api/internal/repository"
)

func newTestEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	e := NewEngine(db, repository.NewInvoiceRepo(db))
	e.now = func() time.Time { return time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC) }
	return e, mock
}

const (
	lockInvoiceQ  = `SELECT id, project_id, amount, status FROM invoices WHERE id=\? FOR UPDATE`
	sumPaymentsQ  = `SELECT amount FROM payments WHERE invoice_id=\?`
	setStatusQ    = `UPDATE invoices SET status=\?, payment_date=\? WHERE id=\?`
	insertPayQ    = `INSERT INTO payments`
	getPaymentQ   = `SELECT id, invoice_id, amount, payment_date, payment_method, transaction_id, created_at\s+FROM payments WHERE id=\? LIMIT 1`
	deletePayQ    = `DELETE FROM payments WHERE id=\?`
)

func lockedInvoice(amount, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "project_id", "amount", "status"}).
		AddRow(7, 3, amount, status)
}

func paymentAmounts(amounts ...string) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"amount"})
	for _, a := range amounts {
		rows.AddRow(a)
	}
	return rows
}

func TestAddPaymentPartialThenPaid(t *testing.T) {
	e, mock := newTestEngine(t)

	// First payment of 40 on a 100.00 invoice -> partially_paid.
	mock.ExpectBegin()
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "unpaid"))
	mock.ExpectExec(insertPayQ).WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectQuery(sumPaymentsQ).WithArgs(uint64(7)).WillReturnRows(paymentAmounts("40.00"))
	mock.ExpectExec(setStatusQ).WithArgs("partially_paid", nil, uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p, status, err := e.AddPayment(context.Background(), 7, PaymentInput{Amount: "40.00", PaymentMethod: "wire"})
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, status)
	assert.Equal(t, "40.00", p.Amount)
	require.NotNil(t, p.TransactionID)
	assert.NotEmpty(t, *p.TransactionID)

	// Second payment of 60 -> paid, payment_date stamped.
	mock.ExpectBegin()
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "partially_paid"))
	mock.ExpectExec(insertPayQ).WillReturnResult(sqlmock.NewResult(12, 1))
	mock.ExpectQuery(sumPaymentsQ).WithArgs(uint64(7)).WillReturnRows(paymentAmounts("40.00", "60.00"))
	mock.ExpectExec(setStatusQ).WithArgs("paid", e.now(), uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, status, err = e.AddPayment(context.Background(), 7, PaymentInput{Amount: "60.00", PaymentMethod: "wire"})
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePaymentRevertsToPartiallyPaid(t *testing.T) {
	e, mock := newTestEngine(t)

	payDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(getPaymentQ).WithArgs(uint64(12)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "invoice_id", "amount", "payment_date", "payment_method", "transaction_id", "created_at"}).
			AddRow(12, 7, "60.00", payDate, "wire", nil, payDate))
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "paid"))
	mock.ExpectExec(deletePayQ).WithArgs(uint64(12)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sumPaymentsQ).WithArgs(uint64(7)).WillReturnRows(paymentAmounts("40.00"))
	mock.ExpectExec(setStatusQ).WithArgs("partially_paid", nil, uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	invoiceID, status, err := e.DeletePayment(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), invoiceID)
	assert.Equal(t, StatusPartiallyPaid, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteLastPaymentYieldsUnpaid(t *testing.T) {
	e, mock := newTestEngine(t)

	payDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(getPaymentQ).WithArgs(uint64(11)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "invoice_id", "amount", "payment_date", "payment_method", "transaction_id", "created_at"}).
			AddRow(11, 7, "40.00", payDate, "wire", nil, payDate))
	// Overdue reverts to the computed status once the ledger changes.
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "overdue"))
	mock.ExpectExec(deletePayQ).WithArgs(uint64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(sumPaymentsQ).WithArgs(uint64(7)).WillReturnRows(paymentAmounts())
	mock.ExpectExec(setStatusQ).WithArgs("unpaid", nil, uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	_, status, err := e.DeletePayment(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeletePaymentKeepsCancelledInvoiceCancelled(t *testing.T) {
	e, mock := newTestEngine(t)

	payDate := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectBegin()
	mock.ExpectQuery(getPaymentQ).WithArgs(uint64(11)).WillReturnRows(
		sqlmock.NewRows([]string{"id", "invoice_id", "amount", "payment_date", "payment_method", "transaction_id", "created_at"}).
			AddRow(11, 7, "40.00", payDate, "wire", nil, payDate))
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "cancelled"))
	mock.ExpectExec(deletePayQ).WithArgs(uint64(11)).WillReturnResult(sqlmock.NewResult(0, 1))
	// No recomputation: the cancelled status is terminal.
	mock.ExpectCommit()

	_, status, err := e.DeletePayment(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItemComputesAmounts(t *testing.T) {
	e, mock := newTestEngine(t)

	mock.ExpectQuery(`SELECT project_id FROM invoices WHERE id=\? LIMIT 1`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO invoice_items`).
		WithArgs(uint64(7), "Design sprint", "3.00", "19.99", nil, nil, "59.97").
		WillReturnResult(sqlmock.NewResult(21, 1))

	it, err := e.AddItem(context.Background(), 7, ItemInput{
		Description: "Design sprint",
		Quantity:    "3",
		UnitPrice:   "19.99",
	})
	require.NoError(t, err)
	assert.Equal(t, "59.97", it.Amount)
	assert.Nil(t, it.TaxAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddItemWithTaxKeepsAmountSeparate(t *testing.T) {
	e, mock := newTestEngine(t)

	rate := "20"
	mock.ExpectQuery(`SELECT project_id FROM invoices WHERE id=\? LIMIT 1`).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"project_id"}).AddRow(3))
	mock.ExpectExec(`INSERT INTO invoice_items`).
		WithArgs(uint64(7), "Hosting", "1.00", "250.00", "20.00", "50.00", "250.00").
		WillReturnResult(sqlmock.NewResult(22, 1))

	it, err := e.AddItem(context.Background(), 7, ItemInput{
		Description: "Hosting",
		Quantity:    "1",
		UnitPrice:   "250.00",
		TaxRate:     &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, "250.00", it.Amount)
	require.NotNil(t, it.TaxAmount)
	assert.Equal(t, "50.00", *it.TaxAmount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInvoiceCascadesInOneTransaction(t *testing.T) {
	e, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM payments WHERE invoice_id=\?`).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM invoice_items WHERE invoice_id=\?`).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM invoices WHERE id=\?`).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, e.DeleteInvoice(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteInvoiceRollsBackOnPartialFailure(t *testing.T) {
	e, mock := newTestEngine(t)

	boom := errors.New("deadlock")
	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM payments WHERE invoice_id=\?`).WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM invoice_items WHERE invoice_id=\?`).WithArgs(uint64(7)).WillReturnError(boom)
	mock.ExpectRollback()

	err := e.DeleteInvoice(context.Background(), 7)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusRejectsUnknownValues(t *testing.T) {
	e, _ := newTestEngine(t)
	err := e.SetStatus(context.Background(), 7, "definitely_not_a_status")
	assert.ErrorIs(t, err, ErrBadStatus)
}

func TestSetStatusPaidStampsPaymentDate(t *testing.T) {
	e, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "pending"))
	mock.ExpectExec(setStatusQ).WithArgs("paid", e.now(), uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, e.SetStatus(context.Background(), 7, "paid"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetStatusCancelledClearsPaymentDate(t *testing.T) {
	e, mock := newTestEngine(t)

	mock.ExpectBegin()
	mock.ExpectQuery(lockInvoiceQ).WithArgs(uint64(7)).WillReturnRows(lockedInvoice("100.00", "paid"))
	mock.ExpectExec(setStatusQ).WithArgs("cancelled", nil, uint64(7)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, e.SetStatus(context.Background(), 7, "cancelled"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceGeneratesNumberAndDefaults(t *testing.T) {
	e, mock := newTestEngine(t)

	mock.ExpectExec(`INSERT INTO invoices`).WillReturnResult(sqlmock.NewResult(7, 1))

	inv, err := e.CreateInvoice(context.Background(), 3, InvoiceInput{
		Amount:    "1500",
		IssueDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "1500.00", inv.Amount)
	assert.Equal(t, "USD", inv.Currency)
	assert.Equal(t, string(StatusPending), inv.Status)
	assert.Regexp(t, regexp.MustCompile(`^INV-20260830-[0-9a-f]{8}$`), inv.InvoiceNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateInvoiceRejectsBadAmount(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.CreateInvoice(context.Background(), 3, InvoiceInput{Amount: "not-money"})
	assert.Error(t, err)
}
