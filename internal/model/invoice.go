package model

import "time"

// Invoice mirrors the `invoices` table. Amount is a DECIMAL(12,2) column
// carried as a two-decimal-place string; all arithmetic happens through the
// money package. Status is constrained to the billing.Status enum.
// PaymentDate is set only while the status is paid and cleared otherwise.
type Invoice struct {
	ID               uint64     `json:"id"`
	ProjectID        uint64     `json:"project_id"`
	InvoiceNumber    string     `json:"invoice_number"`
	Amount           string     `json:"amount"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	IssueDate        time.Time  `json:"issue_date"`
	DueDate          time.Time  `json:"due_date"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	PaymentReference *string    `json:"payment_reference,omitempty"`
	Notes            string     `json:"notes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`

	Items    []InvoiceItem `json:"items,omitempty"`
	Payments []Payment     `json:"payments,omitempty"`
}

// InvoiceItem mirrors the `invoice_items` table. Amount is always computed
// server-side as quantity * unit_price; TaxAmount is tracked separately and
// never folded into Amount. Items are deleted with their invoice.
type InvoiceItem struct {
	ID          uint64  `json:"id"`
	InvoiceID   uint64  `json:"invoice_id"`
	Description string  `json:"description"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	TaxRate     *string `json:"tax_rate,omitempty"`
	TaxAmount   *string `json:"tax_amount,omitempty"`
	Amount      string  `json:"amount"`
}

// Payment mirrors the `payments` table. Every insertion and removal triggers
// a status recomputation on the parent invoice.
type Payment struct {
	ID            uint64    `json:"id"`
	InvoiceID     uint64    `json:"invoice_id"`
	Amount        string    `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID *string   `json:"transaction_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
