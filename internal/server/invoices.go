package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mara/billdesk/internal/app"
	"github.com/mara/billdesk/internal/billing"
	"github.com/mara/billdesk/internal/domain"
	"github.com/mara/billdesk/internal/service"
)

type invoiceHandler struct {
	app *app.App
}

func newInvoiceHandler(application *app.App) *invoiceHandler {
	return &invoiceHandler{app: application}
}

func (h *invoiceHandler) registerRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/invoices")
	{
		invoices.POST("", h.create)
		invoices.GET("", h.list)
		invoices.GET("/:uuid", h.get)
		invoices.POST("/:uuid/pay", h.markPaid)
		invoices.POST("/:uuid/cancel", h.cancel)
	}
}

type createInvoiceRequest struct {
	ClientID         int64                 `json:"clientId" binding:"required"`
	Items            []billing.RawLineItem `json:"items" binding:"required"`
	TaxValue         float64               `json:"taxValue"`
	TaxType          string                `json:"taxType"`
	DiscountValue    *float64              `json:"discountValue"`
	DiscountType     string                `json:"discountType"`
	InvoiceNumber    string                `json:"invoiceNumber"`
	PaymentAccountID *int64                `json:"paymentAccountId"`
	DueDate          *time.Time            `json:"dueDate"`
	Notes            string                `json:"notes"`
}

type invoiceResponse struct {
	UUID             string             `json:"uuid"`
	InvoiceNumber    string             `json:"invoiceNumber"`
	ClientID         int64              `json:"clientId"`
	PaymentAccountID *int64             `json:"paymentAccountId,omitempty"`
	Items            []billing.LineItem `json:"items"`
	Subtotal         float64            `json:"subtotal"`
	TaxAmount        float64            `json:"taxAmount"`
	DiscountAmount   float64            `json:"discountAmount"`
	Total            float64            `json:"total"`
	Currency         string             `json:"currency"`
	Status           string             `json:"status"`
	Notes            string             `json:"notes,omitempty"`
	DueDate          *time.Time         `json:"dueDate,omitempty"`
	PaidDate         *time.Time         `json:"paidDate,omitempty"`
	CreatedAt        time.Time          `json:"createdAt"`
}

func toInvoiceResponse(inv *domain.Invoice) invoiceResponse {
	return invoiceResponse{
		UUID:             inv.UUID,
		InvoiceNumber:    inv.InvoiceNumber,
		ClientID:         inv.ClientID,
		PaymentAccountID: inv.PaymentAccountID,
		Items:            inv.Items,
		Subtotal:         inv.Subtotal,
		TaxAmount:        inv.TaxAmount,
		DiscountAmount:   inv.DiscountAmount,
		Total:            inv.Total,
		Currency:         inv.Currency,
		Status:           string(inv.Status),
		Notes:            inv.Notes,
		DueDate:          inv.DueDate,
		PaidDate:         inv.PaidDate,
		CreatedAt:        inv.CreatedAt,
	}
}

func (h *invoiceHandler) create(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	invoice, err := h.app.InvoiceService.CreateInvoice(c.Request.Context(), currentUserID(c), service.CreateInvoiceInput{
		ClientID:         req.ClientID,
		Items:            req.Items,
		TaxValue:         req.TaxValue,
		TaxType:          billing.AdjustmentType(req.TaxType),
		DiscountValue:    req.DiscountValue,
		DiscountType:     billing.AdjustmentType(req.DiscountType),
		InvoiceNumber:    req.InvoiceNumber,
		PaymentAccountID: req.PaymentAccountID,
		DueDate:          req.DueDate,
		Notes:            req.Notes,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvoiceNumberTaken) {
			invoiceNumberCollisionsTotal.Inc()
		}
		writeError(c, err)
		return
	}

	invoicesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, toInvoiceResponse(invoice))
}

func (h *invoiceHandler) list(c *gin.Context) {
	var clientID *int64
	if raw := c.Query("clientId"); raw != "" {
		id, err := parseID(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid clientId filter"})
			return
		}
		clientID = &id
	}

	var status *domain.InvoiceStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.InvoiceStatus(raw)
		status = &s
	}

	invoices, err := h.app.InvoiceService.ListInvoices(c.Request.Context(), currentUserID(c), clientID, status)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, toInvoiceResponse(inv))
	}
	c.JSON(http.StatusOK, gin.H{"invoices": out, "totalCount": len(out)})
}

func (h *invoiceHandler) get(c *gin.Context) {
	invoice, err := h.app.InvoiceService.GetInvoice(c.Request.Context(), currentUserID(c), c.Param("uuid"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInvoiceResponse(invoice))
}

type markPaidRequest struct {
	PaidDate *time.Time `json:"paidDate"`
}

func (h *invoiceHandler) markPaid(c *gin.Context) {
	var req markPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	paidDate := time.Now()
	if req.PaidDate != nil {
		paidDate = *req.PaidDate
	}

	if err := h.app.InvoiceService.MarkPaid(c.Request.Context(), currentUserID(c), c.Param("uuid"), paidDate); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.InvoiceStatusPaid)})
}

func (h *invoiceHandler) cancel(c *gin.Context) {
	if err := h.app.InvoiceService.Cancel(c.Request.Context(), currentUserID(c), c.Param("uuid")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(domain.InvoiceStatusCancelled)})
}
