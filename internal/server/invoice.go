package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	"github.com/lucanori/invoicerr/internal/companyctx"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
)

type invoiceItemRequest struct {
	ID          string  `json:"id,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Position    int     `json:"position"`
}

type invoiceRequest struct {
	ClientID       string               `json:"client_id"`
	Currency       string               `json:"currency"`
	Notes          string               `json:"notes"`
	PaymentMethod  string               `json:"payment_method"`
	PaymentDetails string               `json:"payment_details"`
	DueAt          *time.Time           `json:"due_at,omitempty"`
	Items          []invoiceItemRequest `json:"items"`
}

func invoiceItems(items []invoiceItemRequest) []invoicedomain.ItemInput {
	inputs := make([]invoicedomain.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, invoicedomain.ItemInput{
			ID:          strings.TrimSpace(item.ID),
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Position:    item.Position,
		})
	}
	return inputs
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		ClientID:       strings.TrimSpace(req.ClientID),
		Currency:       strings.TrimSpace(req.Currency),
		Notes:          req.Notes,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		PaymentDetails: req.PaymentDetails,
		DueAt:          req.DueAt,
		Items:          invoiceItems(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateInvoice(c *gin.Context) {
	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Update(c.Request.Context(), invoicedomain.UpdateInvoiceRequest{
		ID:             strings.TrimSpace(c.Param("id")),
		ClientID:       strings.TrimSpace(req.ClientID),
		Currency:       strings.TrimSpace(req.Currency),
		Notes:          req.Notes,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		PaymentDetails: req.PaymentDetails,
		DueAt:          req.DueAt,
		Items:          invoiceItems(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteInvoice(c *gin.Context) {
	if err := s.invoiceSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) MarkInvoiceAsPaid(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkAsPaid(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) MarkInvoiceAsSent(c *gin.Context) {
	resp, err := s.invoiceSvc.MarkAsSent(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SendInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.SendByEmail(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateInvoiceFromQuote(c *gin.Context) {
	resp, err := s.invoiceSvc.CreateFromQuote(c.Request.Context(), strings.TrimSpace(c.Param("quoteId")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		Status      string `form:"status"`
		ClientID    string `form:"client_id"`
		Number      string `form:"number"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
		DueFrom     string `form:"due_from"`
		DueTo       string `form:"due_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}
	dueFrom, err := parseOptionalTime(query.DueFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("due_from", "invalid_due_from", "invalid due_from"))
		return
	}
	dueTo, err := parseOptionalTime(query.DueTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("due_to", "invalid_due_to", "invalid due_to"))
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		ClientID:    optionalString(query.ClientID),
		Number:      optionalString(query.Number),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		DueFrom:     dueFrom,
		DueTo:       dueTo,
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		status := invoicedomain.InvoiceStatus(strings.ToUpper(trimmed))
		req.Status = &status
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoicePDF(c *gin.Context) {
	if s.pdfGen == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	ctx := c.Request.Context()
	invoice, err := s.invoiceSvc.GetByID(ctx, strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	client, err := s.clientSvc.GetByID(ctx, clientdomain.GetClientRequest{ID: invoice.ClientID.String()})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	companyID, _ := companyctx.CompanyIDFromContext(ctx)
	company, err := s.companySvc.GetByID(ctx, companydomain.GetCompanyRequest{ID: companyID.String()})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.pdfGen.InvoicePDF(ctx, invoice, client, company)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "application/pdf", doc.Content)
}
