package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
)

type recurringItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Position    int     `json:"position"`
}

type recurringInvoiceRequest struct {
	ClientID        string                 `json:"client_id"`
	Frequency       string                 `json:"frequency"`
	NextInvoiceDate *time.Time             `json:"next_invoice_date,omitempty"`
	Until           *time.Time             `json:"until,omitempty"`
	Count           *int                   `json:"count,omitempty"`
	AutoSend        *bool                  `json:"auto_send,omitempty"`
	Currency        string                 `json:"currency"`
	PaymentMethod   string                 `json:"payment_method"`
	PaymentDetails  string                 `json:"payment_details"`
	Notes           string                 `json:"notes"`
	Items           []recurringItemRequest `json:"items"`
}

func recurringItems(items []recurringItemRequest) []recurringdomain.ItemInput {
	inputs := make([]recurringdomain.ItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, recurringdomain.ItemInput{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Position:    item.Position,
		})
	}
	return inputs
}

func (s *Server) CreateRecurringInvoice(c *gin.Context) {
	var req recurringInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createReq := recurringdomain.CreateRecurringInvoiceRequest{
		ClientID:       strings.TrimSpace(req.ClientID),
		Frequency:      strings.TrimSpace(req.Frequency),
		Until:          req.Until,
		Count:          req.Count,
		Currency:       strings.TrimSpace(req.Currency),
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		PaymentDetails: req.PaymentDetails,
		Notes:          req.Notes,
		Items:          recurringItems(req.Items),
	}
	if req.NextInvoiceDate != nil {
		createReq.NextInvoiceDate = *req.NextInvoiceDate
	}
	if req.AutoSend != nil {
		createReq.AutoSend = *req.AutoSend
	}

	resp, err := s.recurringSvc.Create(c.Request.Context(), createReq)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRecurringInvoice(c *gin.Context) {
	var req recurringInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recurringSvc.Update(c.Request.Context(), recurringdomain.UpdateRecurringInvoiceRequest{
		ID:              strings.TrimSpace(c.Param("id")),
		Frequency:       strings.TrimSpace(req.Frequency),
		NextInvoiceDate: req.NextInvoiceDate,
		Until:           req.Until,
		Count:           req.Count,
		AutoSend:        req.AutoSend,
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		PaymentDetails:  req.PaymentDetails,
		Notes:           req.Notes,
		Items:           recurringItems(req.Items),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRecurringInvoice(c *gin.Context) {
	if err := s.recurringSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

func (s *Server) ListRecurringInvoices(c *gin.Context) {
	var query struct {
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recurringSvc.List(c.Request.Context(), recurringdomain.ListRecurringInvoiceRequest{
		ClientID: optionalString(query.ClientID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecurringInvoiceByID(c *gin.Context) {
	resp, err := s.recurringSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// TriggerRecurringRun starts an out-of-band generation pass. Returns 409 if a
// run is already active.
func (s *Server) TriggerRecurringRun(c *gin.Context) {
	if s.scheduler == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if err := s.scheduler.RunOnce(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": gin.H{"status": "completed"}})
}
