package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/checkmatevirtue/invoicing/internal/domain/client"
	"github.com/checkmatevirtue/invoicing/internal/domain/invoice"
	"github.com/checkmatevirtue/invoicing/internal/domain/money"
	"github.com/checkmatevirtue/invoicing/internal/report"
	"github.com/checkmatevirtue/invoicing/internal/service"
	"github.com/checkmatevirtue/invoicing/internal/store"
)

const dateLayout = "2006-01-02"

// Handlers contains all HTTP request handlers.
type Handlers struct {
	invoices *service.InvoiceService
	clients  *service.ClientService
	reports  *report.Generator
	logger   *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	invoices *service.InvoiceService,
	clients *service.ClientService,
	reports *report.Generator,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		invoices: invoices,
		clients:  clients,
		reports:  reports,
		logger:   logger,
	}
}

// Response represents a standard JSON response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// invoiceView is the API shape of an invoice: the stored record plus the
// overdue flag, which is computed on read and never persisted.
type invoiceView struct {
	*invoice.Invoice
	IsOverdue bool `json:"is_overdue"`
}

func (h *Handlers) view(inv *invoice.Invoice) invoiceView {
	return invoiceView{Invoice: inv, IsOverdue: h.invoices.IsOverdue(inv)}
}

// respondError maps domain errors to HTTP status codes.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, service.ErrClientNotFound):
		status = http.StatusNotFound
	case errors.Is(err, invoice.ErrInvalidLineItem),
		errors.Is(err, invoice.ErrInvalidInvoice),
		errors.Is(err, invoice.ErrInvalidPayment),
		errors.Is(err, service.ErrInvalidClient):
		status = http.StatusBadRequest
	case errors.Is(err, invoice.ErrInvalidTransition),
		errors.Is(err, service.ErrConflictRetriesExhausted):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, Response{Success: false, Error: err.Error()})
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// HealthCheck handles GET /health.
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// CreateInvoiceRequest is the payload for POST /api/invoices.
type CreateInvoiceRequest struct {
	ClientID     string             `json:"client_id" binding:"required"`
	InspectionID string             `json:"inspection_id"`
	IndustryType string             `json:"industry_type"`
	IssueDate    string             `json:"issue_date"`
	DueDate      string             `json:"due_date"`
	Jobs         []invoice.Job      `json:"jobs"`
	Items        []invoice.LineItem `json:"items"`
	Shipping     money.Money        `json:"shipping"`
	Handling     money.Money        `json:"handling"`
	OtherCharges money.Money        `json:"other_charges"`
	Terms        string             `json:"terms"`
	Notes        string             `json:"notes"`
	Footer       string             `json:"footer"`
}

// CreateInvoice handles POST /api/invoices.
func (h *Handlers) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := invoice.CreateInput{
		ClientID:     req.ClientID,
		InspectionID: req.InspectionID,
		IndustryType: req.IndustryType,
		Jobs:         req.Jobs,
		Items:        req.Items,
		Charges: invoice.Charges{
			Shipping:     req.Shipping,
			Handling:     req.Handling,
			OtherCharges: req.OtherCharges,
		},
		Terms:  req.Terms,
		Notes:  req.Notes,
		Footer: req.Footer,
	}

	var err error
	if in.IssueDate, err = parseDate(req.IssueDate); err != nil {
		h.badRequest(c, "invalid issue_date: "+req.IssueDate)
		return
	}
	if in.DueDate, err = parseDate(req.DueDate); err != nil {
		h.badRequest(c, "invalid due_date: "+req.DueDate)
		return
	}

	inv, err := h.invoices.Create(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: h.view(inv)})
}

// ListInvoices handles GET /api/invoices. An optional status query filters
// the result; status=overdue selects sent invoices past their due date.
func (h *Handlers) ListInvoices(c *gin.Context) {
	invoices, err := h.invoices.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	filter := c.Query("status")
	views := make([]invoiceView, 0, len(invoices))
	for _, inv := range invoices {
		v := h.view(inv)
		switch filter {
		case "":
		case "overdue":
			if !v.IsOverdue {
				continue
			}
		default:
			if inv.Status.String() != filter {
				continue
			}
		}
		views = append(views, v)
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: views})
}

// GetInvoice handles GET /api/invoices/:id.
func (h *Handlers) GetInvoice(c *gin.Context) {
	inv, err := h.invoices.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(inv)})
}

// UpdateInvoiceRequest is the payload for PUT /api/invoices/:id. Absent
// fields are left untouched.
type UpdateInvoiceRequest struct {
	ClientID     *string            `json:"client_id"`
	IssueDate    *string            `json:"issue_date"`
	DueDate      *string            `json:"due_date"`
	Jobs         []invoice.Job      `json:"jobs"`
	Items        []invoice.LineItem `json:"items"`
	Shipping     *money.Money       `json:"shipping"`
	Handling     *money.Money       `json:"handling"`
	OtherCharges *money.Money       `json:"other_charges"`
	Terms        *string            `json:"terms"`
	Notes        *string            `json:"notes"`
	Footer       *string            `json:"footer"`
}

// UpdateInvoice handles PUT /api/invoices/:id.
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	in := invoice.UpdateInput{
		ClientID:     req.ClientID,
		Jobs:         req.Jobs,
		Items:        req.Items,
		Shipping:     req.Shipping,
		Handling:     req.Handling,
		OtherCharges: req.OtherCharges,
		Terms:        req.Terms,
		Notes:        req.Notes,
		Footer:       req.Footer,
	}
	if req.IssueDate != nil {
		t, err := parseDate(*req.IssueDate)
		if err != nil {
			h.badRequest(c, "invalid issue_date: "+*req.IssueDate)
			return
		}
		in.IssueDate = &t
	}
	if req.DueDate != nil {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			h.badRequest(c, "invalid due_date: "+*req.DueDate)
			return
		}
		in.DueDate = &t
	}

	inv, err := h.invoices.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(inv)})
}

// DeleteInvoice handles DELETE /api/invoices/:id.
func (h *Handlers) DeleteInvoice(c *gin.Context) {
	if err := h.invoices.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true})
}

// SendInvoice handles POST /api/invoices/:id/send.
func (h *Handlers) SendInvoice(c *gin.Context) {
	inv, err := h.invoices.Send(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(inv)})
}

// CancelInvoice handles POST /api/invoices/:id/cancel.
func (h *Handlers) CancelInvoice(c *gin.Context) {
	inv, err := h.invoices.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(inv)})
}

// RecordPaymentRequest is the payload for POST /api/invoices/:id/payments.
type RecordPaymentRequest struct {
	Amount    money.Money `json:"amount"`
	Date      string      `json:"date"`
	Method    string      `json:"method" binding:"required"`
	Reference string      `json:"reference"`
	Notes     string      `json:"notes"`
}

// RecordPayment handles POST /api/invoices/:id/payments.
func (h *Handlers) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		h.badRequest(c, "invalid date: "+req.Date)
		return
	}
	if date.IsZero() {
		date = time.Now().UTC().Truncate(24 * time.Hour)
	}

	inv, err := h.invoices.RecordPayment(c.Request.Context(), c.Param("id"), invoice.Payment{
		Amount:    req.Amount,
		Date:      date,
		Method:    invoice.PaymentMethod(req.Method),
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: h.view(inv)})
}

// VoidPayment handles POST /api/invoices/:id/payments/:paymentID/void.
func (h *Handlers) VoidPayment(c *gin.Context) {
	inv, err := h.invoices.VoidPayment(c.Request.Context(), c.Param("id"), c.Param("paymentID"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: h.view(inv)})
}

// InvoicePDF handles GET /api/invoices/:id/pdf.
func (h *Handlers) InvoicePDF(c *gin.Context) {
	ctx := c.Request.Context()
	inv, err := h.invoices.Get(ctx, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	// Best effort: the PDF renders without client details if the directory
	// entry is gone.
	cl, err := h.clients.Get(ctx, inv.ClientID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.respondError(c, err)
		return
	}

	pdf, err := h.reports.InvoicePDF(inv, cl)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+inv.Number+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// ExportInvoices handles GET /api/invoices/export.
func (h *Handlers) ExportInvoices(c *gin.Context) {
	invoices, err := h.invoices.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	book, err := h.reports.InvoiceRegister(invoices)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", book)
}

// CreateClientRequest is the payload for POST /api/clients.
type CreateClientRequest struct {
	Name    string         `json:"name" binding:"required"`
	Company string         `json:"company"`
	Address client.Address `json:"address"`
	Contact client.Contact `json:"contact"`
	TaxID   string         `json:"tax_id"`
	Notes   string         `json:"notes"`
}

// CreateClient handles POST /api/clients.
func (h *Handlers) CreateClient(c *gin.Context) {
	var req CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body: "+err.Error())
		return
	}

	created, err := h.clients.Create(c.Request.Context(), client.Client{
		Name:    req.Name,
		Company: req.Company,
		Address: req.Address,
		Contact: req.Contact,
		TaxID:   req.TaxID,
		Notes:   req.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: created})
}

// ListClients handles GET /api/clients.
func (h *Handlers) ListClients(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: clients})
}

// GetClient handles GET /api/clients/:id.
func (h *Handlers) GetClient(c *gin.Context) {
	cl, err := h.clients.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: cl})
}

// parseDate parses a calendar date, tolerating an empty string as zero.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}
