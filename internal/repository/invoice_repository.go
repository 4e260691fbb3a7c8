package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/nordwell/studio-api/internal/model"
)

// InvoiceRepo provides persistence for invoices and their child rows (line
// items and payments). Items and payments never outlive their invoice, so
// they live here rather than in repositories of their own. The Tx variants
// exist for the billing engine, which wraps payment mutation and status
// recomputation in a single transaction.
type InvoiceRepo struct{ db *sql.DB }

func NewInvoiceRepo(db *sql.DB) *InvoiceRepo { return &InvoiceRepo{db: db} }

const invoiceColumns = `id, project_id, invoice_number, amount, currency, status, issue_date,
	due_date, payment_date, payment_reference, notes, created_at, updated_at`

func scanInvoice(scan func(dest ...any) error) (model.Invoice, error) {
	var inv model.Invoice
	err := scan(&inv.ID, &inv.ProjectID, &inv.InvoiceNumber, &inv.Amount, &inv.Currency,
		&inv.Status, &inv.IssueDate, &inv.DueDate, &inv.PaymentDate, &inv.PaymentReference,
		&inv.Notes, &inv.CreatedAt, &inv.UpdatedAt)
	return inv, err
}

// GetByID fetches an invoice with its items and payments loaded.
func (r *InvoiceRepo) GetByID(ctx context.Context, id uint64) (model.Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRowContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE id=? LIMIT 1", id).Scan)
	if err == sql.ErrNoRows {
		return inv, ErrNotFound
	}
	if err != nil {
		return inv, err
	}
	if inv.Items, err = r.listItems(ctx, id); err != nil {
		return inv, err
	}
	if inv.Payments, err = r.ListPayments(ctx, id); err != nil {
		return inv, err
	}
	return inv, nil
}

// ListByProject returns a project's invoices, newest issue date first,
// without child rows.
func (r *InvoiceRepo) ListByProject(ctx context.Context, projectID uint64) ([]model.Invoice, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+invoiceColumns+" FROM invoices WHERE project_id=? ORDER BY issue_date DESC, id DESC",
		projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	invoices := make([]model.Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows.Scan)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// Create inserts an invoice and returns its id.
func (r *InvoiceRepo) Create(ctx context.Context, inv *model.Invoice) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invoices (project_id, invoice_number, amount, currency, status, issue_date, due_date, notes)
		 VALUES (?,?,?,?,?,?,?,?)`,
		inv.ProjectID, inv.InvoiceNumber, inv.Amount, inv.Currency, inv.Status,
		inv.IssueDate, inv.DueDate, inv.Notes)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// Update rewrites the administrative columns of an invoice. Status and
// payment date are owned by the engine and not touched here.
func (r *InvoiceRepo) Update(ctx context.Context, inv *model.Invoice) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE invoices SET amount=?, currency=?, issue_date=?, due_date=?, payment_reference=?, notes=?
		 WHERE id=?`,
		inv.Amount, inv.Currency, inv.IssueDate, inv.DueDate, inv.PaymentReference, inv.Notes, inv.ID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ProjectIDOf returns the owning project of an invoice.
func (r *InvoiceRepo) ProjectIDOf(ctx context.Context, invoiceID uint64) (uint64, error) {
	var pid uint64
	err := r.db.QueryRowContext(ctx,
		"SELECT project_id FROM invoices WHERE id=? LIMIT 1", invoiceID).Scan(&pid)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return pid, err
}

func (r *InvoiceRepo) listItems(ctx context.Context, invoiceID uint64) ([]model.InvoiceItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price, tax_rate, tax_amount, amount
		 FROM invoice_items WHERE invoice_id=? ORDER BY id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := make([]model.InvoiceItem, 0)
	for rows.Next() {
		var it model.InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Description, &it.Quantity,
			&it.UnitPrice, &it.TaxRate, &it.TaxAmount, &it.Amount); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListPayments returns the payment ledger for an invoice, oldest first.
func (r *InvoiceRepo) ListPayments(ctx context.Context, invoiceID uint64) ([]model.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, amount, payment_date, payment_method, transaction_id, created_at
		 FROM payments WHERE invoice_id=? ORDER BY payment_date, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	payments := make([]model.Payment, 0)
	for rows.Next() {
		var p model.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate,
			&p.PaymentMethod, &p.TransactionID, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// InsertItem stores a line item with its server-computed amounts.
func (r *InvoiceRepo) InsertItem(ctx context.Context, it *model.InvoiceItem) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO invoice_items (invoice_id, description, quantity, unit_price, tax_rate, tax_amount, amount)
		 VALUES (?,?,?,?,?,?,?)`,
		it.InvoiceID, it.Description, it.Quantity, it.UnitPrice, it.TaxRate, it.TaxAmount, it.Amount)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DeleteItem removes a line item. Item changes never trigger status
// recomputation, so no transaction is needed.
func (r *InvoiceRepo) DeleteItem(ctx context.Context, itemID uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM invoice_items WHERE id=?", itemID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ProjectIDOfItem resolves a line item to its owning project for
// authorization.
func (r *InvoiceRepo) ProjectIDOfItem(ctx context.Context, itemID uint64) (uint64, error) {
	var pid uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT i.project_id FROM invoice_items it JOIN invoices i ON i.id = it.invoice_id WHERE it.id=?`,
		itemID).Scan(&pid)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return pid, err
}

// --- transactional helpers used by the billing engine ---

// InvoiceForUpdate is the row snapshot the engine locks while recomputing
// status.
type InvoiceForUpdate struct {
	ID        uint64
	ProjectID uint64
	Amount    string
	Status    string
}

// GetForUpdateTx locks the invoice row for the duration of the transaction
// so concurrent payment mutations serialize on it.
func (r *InvoiceRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, invoiceID uint64) (InvoiceForUpdate, error) {
	var inv InvoiceForUpdate
	err := tx.QueryRowContext(ctx,
		"SELECT id, project_id, amount, status FROM invoices WHERE id=? FOR UPDATE", invoiceID).
		Scan(&inv.ID, &inv.ProjectID, &inv.Amount, &inv.Status)
	if err == sql.ErrNoRows {
		return inv, ErrNotFound
	}
	return inv, err
}

// SumPaymentsTx returns the decimal-string amounts of all payments on the
// invoice within the transaction.
func (r *InvoiceRepo) SumPaymentsTx(ctx context.Context, tx *sql.Tx, invoiceID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx, "SELECT amount FROM payments WHERE invoice_id=?", invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	amounts := make([]string, 0)
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		amounts = append(amounts, a)
	}
	return amounts, rows.Err()
}

// InsertPaymentTx stores a payment within the transaction and returns its id.
func (r *InvoiceRepo) InsertPaymentTx(ctx context.Context, tx *sql.Tx, p *model.Payment) (uint64, error) {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payments (invoice_id, amount, payment_date, payment_method, transaction_id)
		 VALUES (?,?,?,?,?)`,
		p.InvoiceID, p.Amount, p.PaymentDate, p.PaymentMethod, p.TransactionID)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetPaymentTx resolves a payment to its invoice within the transaction.
func (r *InvoiceRepo) GetPaymentTx(ctx context.Context, tx *sql.Tx, paymentID uint64) (model.Payment, error) {
	var p model.Payment
	err := tx.QueryRowContext(ctx,
		`SELECT id, invoice_id, amount, payment_date, payment_method, transaction_id, created_at
		 FROM payments WHERE id=? LIMIT 1`, paymentID).
		Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.TransactionID, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return p, ErrNotFound
	}
	return p, err
}

// DeletePaymentTx removes a payment within the transaction.
func (r *InvoiceRepo) DeletePaymentTx(ctx context.Context, tx *sql.Tx, paymentID uint64) error {
	res, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE id=?", paymentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetStatusTx writes the recomputed (or manually set) status. paymentDate
// is stamped for paid and cleared for every other status.
func (r *InvoiceRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, invoiceID uint64, status string, paymentDate *time.Time) error {
	_, err := tx.ExecContext(ctx,
		"UPDATE invoices SET status=?, payment_date=? WHERE id=?", status, paymentDate, invoiceID)
	return err
}

// DeleteCascadeTx removes an invoice with all of its child rows inside the
// transaction: payments first, then items, then the invoice. All-or-nothing
// is guaranteed by the enclosing transaction.
func (r *InvoiceRepo) DeleteCascadeTx(ctx context.Context, tx *sql.Tx, invoiceID uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM payments WHERE invoice_id=?", invoiceID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM invoice_items WHERE invoice_id=?", invoiceID); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM invoices WHERE id=?", invoiceID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ProjectIDOfPayment resolves a payment to its owning project for
// authorization.
func (r *InvoiceRepo) ProjectIDOfPayment(ctx context.Context, paymentID uint64) (uint64, error) {
	var pid uint64
	err := r.db.QueryRowContext(ctx,
		`SELECT i.project_id FROM payments p JOIN invoices i ON i.id = p.invoice_id WHERE p.id=?`,
		paymentID).Scan(&pid)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return pid, err
}
