package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nordwell/studio-api/internal/billing"
	"github.com/nordwell/studio-api/internal/middleware"
	"github.com/nordwell/studio-api/internal/model"
	"github.com/nordwell/studio-api/internal/money"
	"github.com/nordwell/studio-api/internal/queue"
	"github.com/nordwell/studio-api/internal/repository"
	queue_publisher "github.com/nordwell/studio-api/internal/service"
)

// InvoiceHandler exposes invoices to their project owners (read-only) and
// to admins (full lifecycle). Every mutation that can move an invoice's
// status goes through the billing engine; this handler never writes status
// or payment rows directly.
type InvoiceHandler struct {
	Invoices *repository.InvoiceRepo
	Projects *repository.ProjectRepo
	Engine   *billing.Engine
}

func NewInvoiceHandler(invoices *repository.InvoiceRepo, projects *repository.ProjectRepo, engine *billing.Engine) *InvoiceHandler {
	return &InvoiceHandler{Invoices: invoices, Projects: projects, Engine: engine}
}

type invoiceReq struct {
	Amount           string    `json:"amount"`
	Currency         string    `json:"currency"`
	IssueDate        time.Time `json:"issue_date"`
	DueDate          time.Time `json:"due_date"`
	PaymentReference *string   `json:"payment_reference"`
	Notes            string    `json:"notes"`
}

type itemReq struct {
	Description string  `json:"description"`
	Quantity    string  `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
	TaxRate     *string `json:"tax_rate"`
}

type paymentReq struct {
	Amount        string    `json:"amount"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `json:"payment_method"`
	TransactionID *string   `json:"transaction_id"`
}

type statusReq struct {
	Status string `json:"status"`
}

// authorizeProject enforces owner-or-admin access to a project's billing
// data. On failure the response is already written.
func (h *InvoiceHandler) authorizeProject(c echo.Context, projectID uint64) bool {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ownerID, err := h.Projects.OwnerID(ctx, projectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		} else {
			_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "load project failed"})
		}
		return false
	}
	u := middleware.UserFrom(c)
	if !u.IsAdmin && ownerID != u.ID {
		_ = c.JSON(http.StatusForbidden, echo.Map{"error": "not your project"})
		return false
	}
	return true
}

// ListByProject returns a project's invoices (owner or admin).
func (h *InvoiceHandler) ListByProject(c echo.Context) error {
	projectID := pathID(c, "id")
	if projectID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if !h.authorizeProject(c, projectID) {
		return nil
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	invoices, err := h.Invoices.ListByProject(ctx, projectID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list invoices failed"})
	}
	return c.JSON(http.StatusOK, invoices)
}

// Get returns one invoice with items and payments (owner or admin).
func (h *InvoiceHandler) Get(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	projectID, err := h.Invoices.ProjectIDOf(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}
	if !h.authorizeProject(c, projectID) {
		return nil
	}

	inv, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}
	return c.JSON(http.StatusOK, inv)
}

// Create issues a new invoice for a project (admin). The invoice number is
// generated server-side and the status starts at pending.
func (h *InvoiceHandler) Create(c echo.Context) error {
	projectID := pathID(c, "id")
	if projectID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req invoiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.IssueDate.IsZero() || req.DueDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "issue_date and due_date required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if _, err := h.Projects.OwnerID(ctx, projectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "project not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load project failed"})
	}

	inv, err := h.Engine.CreateInvoice(ctx, projectID, billing.InvoiceInput{
		Amount:    req.Amount,
		Currency:  req.Currency,
		IssueDate: req.IssueDate,
		DueDate:   req.DueDate,
		Notes:     req.Notes,
	})
	if err != nil {
		if errors.Is(err, money.ErrInvalidAmount) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create invoice failed"})
	}
	return c.JSON(http.StatusCreated, inv)
}

// Update rewrites the administrative columns of an invoice (admin). Status
// and payment date are out of reach here; they belong to the engine.
func (h *InvoiceHandler) Update(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req invoiceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	amount, err := money.Parse(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
	}
	if req.IssueDate.IsZero() || req.DueDate.IsZero() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "issue_date and due_date required"})
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	inv := model.Invoice{
		ID:               id,
		Amount:           money.Format(amount),
		Currency:         currency,
		IssueDate:        req.IssueDate,
		DueDate:          req.DueDate,
		PaymentReference: req.PaymentReference,
		Notes:            req.Notes,
	}
	if err := h.Invoices.Update(ctx, &inv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update invoice failed"})
	}
	fresh, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}
	return c.JSON(http.StatusOK, fresh)
}

// Delete removes an invoice with its items and payments (admin).
func (h *InvoiceHandler) Delete(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Engine.DeleteInvoice(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete invoice failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SetStatus applies a manual status transition (admin) and announces it.
func (h *InvoiceHandler) SetStatus(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil || req.Status == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	before, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}

	if err := h.Engine.SetStatus(ctx, id, req.Status); err != nil {
		switch {
		case errors.Is(err, billing.ErrBadStatus):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "set status failed"})
	}

	if before.Status != req.Status {
		_ = queue_publisher.PublishInvoiceStatusChanged(ctx, queue.InvoiceStatusChangedEvent{
			InvoiceID:     id,
			InvoiceNumber: before.InvoiceNumber,
			OldStatus:     before.Status,
			NewStatus:     req.Status,
			ChangedAt:     time.Now().UTC().Format(time.RFC3339),
		})
	}

	fresh, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}
	return c.JSON(http.StatusOK, fresh)
}

// AddItem stores a line item with server-computed amounts (admin).
func (h *InvoiceHandler) AddItem(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req itemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Description) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "description required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	it, err := h.Engine.AddItem(ctx, id, billing.ItemInput{
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
		TaxRate:     req.TaxRate,
	})
	if err != nil {
		switch {
		case errors.Is(err, money.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid quantity, unit price or tax rate"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add item failed"})
	}
	return c.JSON(http.StatusCreated, it)
}

// DeleteItem removes a line item (admin). Item changes never touch the
// invoice amount or status.
func (h *InvoiceHandler) DeleteItem(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Invoices.DeleteItem(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "item not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete item failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// AddPayment records a payment (admin), recomputes the status in the same
// transaction and announces both the payment and any status change.
func (h *InvoiceHandler) AddPayment(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	before, err := h.Invoices.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load invoice failed"})
	}

	p, status, err := h.Engine.AddPayment(ctx, id, billing.PaymentInput{
		Amount:        req.Amount,
		PaymentDate:   req.PaymentDate,
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		switch {
		case errors.Is(err, money.ErrInvalidAmount):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid amount"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "invoice not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record payment failed"})
	}

	now := time.Now().UTC().Format(time.RFC3339)
	txID := ""
	if p.TransactionID != nil {
		txID = *p.TransactionID
	}
	_ = queue_publisher.PublishPaymentRecorded(ctx, queue.PaymentRecordedEvent{
		PaymentID:     p.ID,
		InvoiceID:     id,
		InvoiceNumber: before.InvoiceNumber,
		ProjectID:     before.ProjectID,
		Amount:        p.Amount,
		Method:        p.PaymentMethod,
		TransactionID: txID,
		NewStatus:     string(status),
		RecordedAt:    now,
	})
	if before.Status != string(status) {
		_ = queue_publisher.PublishInvoiceStatusChanged(ctx, queue.InvoiceStatusChangedEvent{
			InvoiceID:     id,
			InvoiceNumber: before.InvoiceNumber,
			OldStatus:     before.Status,
			NewStatus:     string(status),
			ChangedAt:     now,
		})
	}

	return c.JSON(http.StatusCreated, echo.Map{"payment": p, "invoice_status": status})
}

// DeletePayment removes a payment (admin) and recomputes the parent
// invoice status from the remaining ledger.
func (h *InvoiceHandler) DeletePayment(c echo.Context) error {
	id := pathID(c, "id")
	if id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	invoiceID, status, err := h.Engine.DeletePayment(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "payment not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete payment failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"invoice_id": invoiceID, "invoice_status": status})
}
