package billing

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/money"
	"github.com/nordwell/studio-api/internal/repository"
)

// ErrBadStatus is returned by SetStatus for a value outside the enum.
var ErrBadStatus = errors.New("invalid invoice status")

// Engine owns every mutation of the invoice/payment lifecycle. Payment
// mutations and the status recomputation they trigger run inside a single
// transaction with the invoice row locked, so two concurrent payments can
// never both read a stale total.
type Engine struct {
	db       *sql.DB
	invoices *repository.InvoiceRepo
	now      func() time.Time
}

func NewEngine(db *sql.DB, invoices *repository.InvoiceRepo) *Engine {
	return &Engine{db: db, invoices: invoices, now: time.Now}
}

// InvoiceInput carries the fields accepted when creating or updating an
// invoice. Amount is a decimal string.
type InvoiceInput struct {
	Amount    string
	Currency  string
	IssueDate time.Time
	DueDate   time.Time
	Notes     string
}

// PaymentInput carries the fields accepted when recording a payment.
type PaymentInput struct {
	Amount        string
	PaymentDate   time.Time
	PaymentMethod string
	TransactionID *string
}

// ItemInput carries the fields accepted when adding a line item. Quantity
// and UnitPrice arrive as decimal strings; the line amount is always
// computed server-side.
type ItemInput struct {
	Description string
	Quantity    string
	UnitPrice   string
	TaxRate     *string
}

// newInvoiceNumber builds a unique number like INV-20260830-1a2b3c4d.
func (e *Engine) newInvoiceNumber() string {
	id := uuid.NewString()
	return "INV-" + e.now().UTC().Format("20060102") + "-" + strings.ReplaceAll(id, "-", "")[:8]
}

// CreateInvoice validates the amount, generates an invoice number and
// inserts the invoice in status pending.
func (e *Engine) CreateInvoice(ctx context.Context, projectID uint64, in InvoiceInput) (model.Invoice, error) {
	amount, err := money.Parse(in.Amount)
	if err != nil {
		return model.Invoice{}, err
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "USD"
	}
	inv := model.Invoice{
		ProjectID:     projectID,
		InvoiceNumber: e.newInvoiceNumber(),
		Amount:        money.Format(amount),
		Currency:      currency,
		Status:        string(StatusPending),
		IssueDate:     in.IssueDate,
		DueDate:       in.DueDate,
		Notes:         in.Notes,
	}
	id, err := e.invoices.Create(ctx, &inv)
	if err != nil {
		return model.Invoice{}, err
	}
	inv.ID = id
	return inv, nil
}

// AddItem computes amount = quantity * unit_price (and the optional tax
// amount, which is tracked separately) and stores the line item. Item
// changes never alter the invoice amount or status.
func (e *Engine) AddItem(ctx context.Context, invoiceID uint64, in ItemInput) (model.InvoiceItem, error) {
	quantity, err := money.Parse(in.Quantity)
	if err != nil {
		return model.InvoiceItem{}, err
	}
	unitPrice, err := money.Parse(in.UnitPrice)
	if err != nil {
		return model.InvoiceItem{}, err
	}
	amount := money.LineAmount(quantity, unitPrice)
	it := model.InvoiceItem{
		InvoiceID:   invoiceID,
		Description: strings.TrimSpace(in.Description),
		Quantity:    money.Format(quantity),
		UnitPrice:   money.Format(unitPrice),
		Amount:      money.Format(amount),
	}
	if in.TaxRate != nil {
		rate, err := money.Parse(*in.TaxRate)
		if err != nil {
			return model.InvoiceItem{}, err
		}
		rateStr := money.Format(rate)
		taxStr := money.Format(money.TaxAmount(amount, rate))
		it.TaxRate = &rateStr
		it.TaxAmount = &taxStr
	}
	// The parent must exist; ProjectIDOf doubles as the existence check.
	if _, err := e.invoices.ProjectIDOf(ctx, invoiceID); err != nil {
		return model.InvoiceItem{}, err
	}
	id, err := e.invoices.InsertItem(ctx, &it)
	if err != nil {
		return model.InvoiceItem{}, err
	}
	it.ID = id
	return it, nil
}

// AddPayment records a payment and recomputes the invoice status in the
// same transaction. A missing transaction id is filled with a generated
// one. The resulting status is returned for event publication.
func (e *Engine) AddPayment(ctx context.Context, invoiceID uint64, in PaymentInput) (model.Payment, Status, error) {
	amount, err := money.Parse(in.Amount)
	if err != nil {
		return model.Payment{}, "", err
	}
	p := model.Payment{
		InvoiceID:     invoiceID,
		Amount:        money.Format(amount),
		PaymentDate:   in.PaymentDate,
		PaymentMethod: strings.TrimSpace(in.PaymentMethod),
		TransactionID: in.TransactionID,
	}
	if p.TransactionID == nil || strings.TrimSpace(*p.TransactionID) == "" {
		gen := uuid.NewString()
		p.TransactionID = &gen
	}
	if p.PaymentDate.IsZero() {
		p.PaymentDate = e.now().UTC()
	}

	var status Status
	err = e.inTx(ctx, func(tx *sql.Tx) error {
		inv, err := e.invoices.GetForUpdateTx(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		id, err := e.invoices.InsertPaymentTx(ctx, tx, &p)
		if err != nil {
			return err
		}
		p.ID = id
		status, err = e.recomputeTx(ctx, tx, inv)
		return err
	})
	if err != nil {
		return model.Payment{}, "", err
	}
	return p, status, nil
}

// DeletePayment removes a payment and recomputes the parent invoice status
// from the remaining ledger in the same transaction. A cancelled invoice
// keeps its status: cancellation is a terminal administrative decision and
// payment bookkeeping must not revive it. Overdue does revert to the
// computed status, since it describes payment state.
func (e *Engine) DeletePayment(ctx context.Context, paymentID uint64) (uint64, Status, error) {
	var invoiceID uint64
	var status Status
	err := e.inTx(ctx, func(tx *sql.Tx) error {
		p, err := e.invoices.GetPaymentTx(ctx, tx, paymentID)
		if err != nil {
			return err
		}
		invoiceID = p.InvoiceID
		inv, err := e.invoices.GetForUpdateTx(ctx, tx, invoiceID)
		if err != nil {
			return err
		}
		if err := e.invoices.DeletePaymentTx(ctx, tx, paymentID); err != nil {
			return err
		}
		if Status(inv.Status) == StatusCancelled {
			status = StatusCancelled
			return nil
		}
		status, err = e.recomputeTx(ctx, tx, inv)
		return err
	})
	if err != nil {
		return 0, "", err
	}
	return invoiceID, status, nil
}

// recomputeTx derives the automatic status from the current ledger and
// writes it, stamping payment_date when the invoice becomes paid and
// clearing it otherwise. The invoice row is already locked by the caller.
func (e *Engine) recomputeTx(ctx context.Context, tx *sql.Tx, inv repository.InvoiceForUpdate) (Status, error) {
	amount, err := money.Parse(inv.Amount)
	if err != nil {
		return "", err
	}
	raw, err := e.invoices.SumPaymentsTx(ctx, tx, inv.ID)
	if err != nil {
		return "", err
	}
	total := decimal.Zero
	for _, s := range raw {
		d, err := money.Parse(s)
		if err != nil {
			return "", err
		}
		total = total.Add(d)
	}
	status := ComputeStatus(amount, total)
	var paymentDate *time.Time
	if status == StatusPaid {
		t := e.now().UTC()
		paymentDate = &t
	}
	if err := e.invoices.SetStatusTx(ctx, tx, inv.ID, string(status), paymentDate); err != nil {
		return "", err
	}
	return status, nil
}

// SetStatus is the manual administrator transition. Any enumerated status
// may be set directly; payment_date is stamped for paid and cleared for
// everything else.
func (e *Engine) SetStatus(ctx context.Context, invoiceID uint64, status string) error {
	if !ValidStatus(status) {
		return ErrBadStatus
	}
	return e.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := e.invoices.GetForUpdateTx(ctx, tx, invoiceID); err != nil {
			return err
		}
		var paymentDate *time.Time
		if Status(status) == StatusPaid {
			t := e.now().UTC()
			paymentDate = &t
		}
		return e.invoices.SetStatusTx(ctx, tx, invoiceID, status, paymentDate)
	})
}

// DeleteInvoice cascades over payments and items before removing the
// invoice itself, all inside one transaction.
func (e *Engine) DeleteInvoice(ctx context.Context, invoiceID uint64) error {
	return e.inTx(ctx, func(tx *sql.Tx) error {
		return e.invoices.DeleteCascadeTx(ctx, tx, invoiceID)
	})
}

func (e *Engine) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
