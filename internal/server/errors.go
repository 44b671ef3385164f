package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	quotedomain "github.com/lucanori/invoicerr/internal/quote/domain"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/lucanori/invoicerr/internal/scheduler"
	"gorm.io/gorm"
)

var ErrServiceUnavailable = errors.New("service_unavailable")

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	var vErr *ValidationErrors
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: err.Error(),
				},
			},
		}
	}

	if isNotFoundError(err) {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	}

	if isConflictError(err) {
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	}

	if errors.Is(err, invoicedomain.ErrSenderMissing) || errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidEmail),
		errors.Is(err, companydomain.ErrInvalidID),
		errors.Is(err, clientdomain.ErrInvalidCompany),
		errors.Is(err, clientdomain.ErrInvalidName),
		errors.Is(err, clientdomain.ErrInvalidEmail),
		errors.Is(err, clientdomain.ErrInvalidID),
		errors.Is(err, quotedomain.ErrInvalidCompany),
		errors.Is(err, quotedomain.ErrInvalidClient),
		errors.Is(err, quotedomain.ErrInvalidItems),
		errors.Is(err, quotedomain.ErrInvalidQuoteID),
		errors.Is(err, invoicedomain.ErrInvalidCompany),
		errors.Is(err, invoicedomain.ErrInvalidClient),
		errors.Is(err, invoicedomain.ErrInvalidInvoiceID),
		errors.Is(err, invoicedomain.ErrInvalidItems),
		errors.Is(err, recurringdomain.ErrInvalidCompany),
		errors.Is(err, recurringdomain.ErrInvalidClient),
		errors.Is(err, recurringdomain.ErrInvalidFrequency),
		errors.Is(err, recurringdomain.ErrInvalidItems),
		errors.Is(err, recurringdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, quotedomain.ErrNotFound),
		errors.Is(err, recurringdomain.ErrNotFound),
		errors.Is(err, invoicedomain.ErrInvoiceNotFound),
		errors.Is(err, invoicedomain.ErrQuoteNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, invoicedomain.ErrInvoicePaid),
		errors.Is(err, invoicedomain.ErrNumberExhausted),
		errors.Is(err, scheduler.ErrRunInProgress),
		errors.Is(err, gorm.ErrDuplicatedKey):
		return true
	default:
		return false
	}
}
