package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	quotedomain "github.com/lucanori/invoicerr/internal/quote/domain"
)

type quoteItemRequest struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Position    int     `json:"position"`
}

type createQuoteRequest struct {
	ClientID       string             `json:"client_id"`
	Title          string             `json:"title"`
	Currency       string             `json:"currency"`
	Notes          string             `json:"notes"`
	PaymentMethod  string             `json:"payment_method"`
	PaymentDetails string             `json:"payment_details"`
	ValidUntil     *time.Time         `json:"valid_until,omitempty"`
	Items          []quoteItemRequest `json:"items"`
}

func (s *Server) CreateQuote(c *gin.Context) {
	var req createQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	items := make([]quotedomain.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, quotedomain.ItemInput{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
			Position:    item.Position,
		})
	}

	resp, err := s.quoteSvc.Create(c.Request.Context(), quotedomain.CreateQuoteRequest{
		ClientID:       strings.TrimSpace(req.ClientID),
		Title:          strings.TrimSpace(req.Title),
		Currency:       strings.TrimSpace(req.Currency),
		Notes:          req.Notes,
		PaymentMethod:  strings.TrimSpace(req.PaymentMethod),
		PaymentDetails: req.PaymentDetails,
		ValidUntil:     req.ValidUntil,
		Items:          items,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListQuotes(c *gin.Context) {
	var query struct {
		Status   string `form:"status"`
		ClientID string `form:"client_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := quotedomain.ListQuoteRequest{
		ClientID: optionalString(query.ClientID),
	}
	if trimmed := strings.TrimSpace(query.Status); trimmed != "" {
		status := quotedomain.QuoteStatus(strings.ToUpper(trimmed))
		req.Status = &status
	}

	resp, err := s.quoteSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetQuoteByID(c *gin.Context) {
	resp, err := s.quoteSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
