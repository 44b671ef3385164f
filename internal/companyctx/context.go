// Package companyctx carries the active company through request contexts.
package companyctx

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

// CompanyContextKey is the request context key for the active company ID.
type CompanyContextKey struct{}

// WithCompanyID stores the company ID in the context.
func WithCompanyID(ctx context.Context, companyID snowflake.ID) context.Context {
	return context.WithValue(ctx, CompanyContextKey{}, companyID)
}

// CompanyIDFromContext returns the company ID from context, if set.
func CompanyIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}

	value := ctx.Value(CompanyContextKey{})
	switch typed := value.(type) {
	case snowflake.ID:
		return typed, true
	case int64:
		return snowflake.ID(typed), true
	case string:
		parsed, err := snowflake.ParseString(strings.TrimSpace(typed))
		if err == nil {
			return parsed, true
		}
	}
	return 0, false
}
