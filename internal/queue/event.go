// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names double as routing keys on the default exchange.
const (
	PaymentRecordedQueue      = "payment.recorded"
	InvoiceStatusChangedQueue = "invoice.status_changed"
	MessageReceivedQueue      = "message.received"
	ApplicationSubmittedQueue = "application.submitted"
)

// PaymentRecordedEvent is published after a payment is stored and the
// invoice status recomputed. It carries enough for downstream consumers to
// log or notify without querying the primary database.
type PaymentRecordedEvent struct {
	PaymentID     uint64 `json:"payment_id"`
	InvoiceID     uint64 `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	ProjectID     uint64 `json:"project_id"`
	Amount        string `json:"amount"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	NewStatus     string `json:"new_status"`
	RecordedAt    string `json:"recorded_at"`
}

// InvoiceStatusChangedEvent is published whenever an invoice moves to a new
// status, whether by payment activity or an explicit admin override.
type InvoiceStatusChangedEvent struct {
	InvoiceID     uint64 `json:"invoice_id"`
	InvoiceNumber string `json:"invoice_number"`
	OldStatus     string `json:"old_status"`
	NewStatus     string `json:"new_status"`
	ChangedAt     string `json:"changed_at"`
}

// MessageReceivedEvent is published when the contact form stores a message.
type MessageReceivedEvent struct {
	MessageID  uint64 `json:"message_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Subject    string `json:"subject"`
	ReceivedAt string `json:"received_at"`
}

// ApplicationSubmittedEvent is published when a candidate applies to an
// open position.
type ApplicationSubmittedEvent struct {
	ApplicationID uint64 `json:"application_id"`
	CareerID      uint64 `json:"career_id"`
	CareerTitle   string `json:"career_title"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	SubmittedAt   string `json:"submitted_at"`
}
