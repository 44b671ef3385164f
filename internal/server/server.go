package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/lucanori/invoicerr/internal/client"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	"github.com/lucanori/invoicerr/internal/company"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	appconfig "github.com/lucanori/invoicerr/internal/config"
	"github.com/lucanori/invoicerr/internal/invoice"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	obstracing "github.com/lucanori/invoicerr/internal/observability/tracing"
	"github.com/lucanori/invoicerr/internal/providers/email"
	"github.com/lucanori/invoicerr/internal/providers/pdf"
	"github.com/lucanori/invoicerr/internal/quote"
	quotedomain "github.com/lucanori/invoicerr/internal/quote/domain"
	"github.com/lucanori/invoicerr/internal/recurringinvoice"
	recurringdomain "github.com/lucanori/invoicerr/internal/recurringinvoice/domain"
	"github.com/lucanori/invoicerr/internal/scheduler"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	company.Module,
	client.Module,
	quote.Module,
	invoice.Module,
	recurringinvoice.Module,
	email.Module,
	pdf.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg appconfig.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          appconfig.Config
	db           *gorm.DB
	genID        *snowflake.Node
	companySvc   companydomain.Service
	clientSvc    clientdomain.Service
	quoteSvc     quotedomain.Service
	invoiceSvc   invoicedomain.Service
	recurringSvc recurringdomain.Service
	pdfGen       pdf.Generator
	scheduler    *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          appconfig.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	CompanySvc   companydomain.Service
	ClientSvc    clientdomain.Service
	QuoteSvc     quotedomain.Service
	InvoiceSvc   invoicedomain.Service
	RecurringSvc recurringdomain.Service
	PDFGen       pdf.Generator        `optional:"true"`
	Scheduler    *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		companySvc:   p.CompanySvc,
		clientSvc:    p.ClientSvc,
		quoteSvc:     p.QuoteSvc,
		invoiceSvc:   p.InvoiceSvc,
		recurringSvc: p.RecurringSvc,
		pdfGen:       p.PDFGen,
		scheduler:    p.Scheduler,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Companies --------
	api.GET("/companies", s.ListCompanies)
	api.POST("/companies", s.CreateCompany)
	api.GET("/companies/:id", s.GetCompanyByID)
	api.PATCH("/companies/:id", s.UpdateCompany)

	// Everything below is scoped to the company resolved from X-Company-ID.
	scoped := api.Group("", s.CompanyContext())

	// -------- Clients --------
	scoped.GET("/clients", s.ListClients)
	scoped.POST("/clients", s.CreateClient)
	scoped.GET("/clients/:id", s.GetClientByID)
	scoped.PATCH("/clients/:id", s.UpdateClient)
	scoped.DELETE("/clients/:id", s.DeleteClient)

	// -------- Quotes --------
	scoped.GET("/quotes", s.ListQuotes)
	scoped.POST("/quotes", s.CreateQuote)
	scoped.GET("/quotes/:id", s.GetQuoteByID)

	// -------- Invoices --------
	scoped.GET("/invoices", s.ListInvoices)
	scoped.POST("/invoices", s.CreateInvoice)
	scoped.GET("/invoices/:id", s.GetInvoiceByID)
	scoped.PATCH("/invoices/:id", s.UpdateInvoice)
	scoped.DELETE("/invoices/:id", s.DeleteInvoice)
	scoped.POST("/invoices/:id/pay", s.MarkInvoiceAsPaid)
	scoped.POST("/invoices/:id/mark-sent", s.MarkInvoiceAsSent)
	scoped.POST("/invoices/:id/send", s.SendInvoice)
	scoped.GET("/invoices/:id/pdf", s.GetInvoicePDF)
	scoped.POST("/invoices/from-quote/:quoteId", s.CreateInvoiceFromQuote)

	// -------- Recurring invoices --------
	scoped.GET("/recurring-invoices", s.ListRecurringInvoices)
	scoped.POST("/recurring-invoices", s.CreateRecurringInvoice)
	scoped.GET("/recurring-invoices/:id", s.GetRecurringInvoiceByID)
	scoped.PATCH("/recurring-invoices/:id", s.UpdateRecurringInvoice)
	scoped.DELETE("/recurring-invoices/:id", s.DeleteRecurringInvoice)
	scoped.POST("/recurring-invoices/run", s.TriggerRecurringRun)
}
