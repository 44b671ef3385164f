package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/lucanori/invoicerr/internal/companyctx"
)

const companyIDHeader = "X-Company-ID"

// CompanyContext resolves the tenant from the X-Company-ID header and stores
// it on the request context. Falls back to DEFAULT_COMPANY for single-tenant
// installs.
func (s *Server) CompanyContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(companyIDHeader))

		var companyID snowflake.ID
		if raw != "" {
			parsed, err := snowflake.ParseString(raw)
			if err != nil || parsed == 0 {
				AbortWithError(c, newValidationError("company_id", "invalid_company_id", "invalid company id header"))
				return
			}
			companyID = parsed
		} else if s.cfg.DefaultCompanyID != 0 {
			companyID = snowflake.ID(s.cfg.DefaultCompanyID)
		} else {
			AbortWithError(c, newValidationError("company_id", "missing_company_id", "missing company id header"))
			return
		}

		ctx := companyctx.WithCompanyID(c.Request.Context(), companyID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
