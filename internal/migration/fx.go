package migration

import (
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	appconfig "github.com/lucanori/invoicerr/internal/config"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	quotedomain "github.com/lucanori/invoicerr/internal/quote/domain"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/lucanori/invoicerr/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg appconfig.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// mysql and sqlite installs rely on the model schema directly.
			if err := conn.AutoMigrate(
				&companydomain.Company{},
				&clientdomain.Client{},
				&quotedomain.Quote{},
				&quotedomain.QuoteItem{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&recurringdomain.RecurringInvoice{},
				&recurringdomain.RecurringInvoiceItem{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureDefaultCompany(conn, cfg.DefaultCompanyID)
	}),
)
