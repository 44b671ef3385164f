package pdf

import (
	"context"
	"fmt"

	"github.com/gosimple/slug"
	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	companydomain "github.com/lucanori/invoicerr/internal/company/domain"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	"go.uber.org/zap"
)

type marotoGenerator struct {
	log *zap.Logger
}

// NewGenerator returns a maroto-backed invoice PDF renderer.
func NewGenerator(log *zap.Logger) Generator {
	return &marotoGenerator{log: log.Named("pdf.invoice")}
}

func (g *marotoGenerator) InvoicePDF(ctx context.Context, invoice invoicedomain.Invoice, client clientdomain.Client, company companydomain.Company) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}

	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()
	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, company.Name, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, invoice.Number, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(8, company.Address, props.Text{Size: 9}),
		text.NewCol(4, fmt.Sprintf("Issued %s", invoice.CreatedAt.Format("2006-01-02")), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(8, company.Email, props.Text{Size: 9}),
		text.NewCol(4, fmt.Sprintf("Due %s", invoice.DueAt.Format("2006-01-02")), props.Text{Size: 9, Align: align.Right}),
	)

	m.AddRow(10, text.NewCol(12, "Billed to", props.Text{Size: 10, Style: fontstyle.Bold, Top: 4}))
	m.AddRow(5, text.NewCol(12, client.Name, props.Text{Size: 9}))
	if client.Address != "" {
		m.AddRow(5, text.NewCol(12, client.Address, props.Text{Size: 9}))
	}
	m.AddRow(5, text.NewCol(12, client.Email, props.Text{Size: 9}))

	m.AddRow(8, line.NewCol(12, props.Line{SizePercent: 100}))
	m.AddRow(8,
		text.NewCol(6, "Description", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, "Qty", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Unit", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "VAT %", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	for _, item := range invoice.Items {
		m.AddRow(6, g.itemCols(item)...)
	}

	m.AddRow(8, line.NewCol(12, props.Line{SizePercent: 100}))
	m.AddRow(6,
		text.NewCol(10, "Total excl. VAT", props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, formatAmount(invoice.TotalHT, invoice.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(6,
		text.NewCol(10, "VAT", props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, formatAmount(invoice.TotalVAT, invoice.Currency), props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(8,
		text.NewCol(10, "Total due", props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, formatAmount(invoice.TotalTTC, invoice.Currency), props.Text{Size: 11, Style: fontstyle.Bold, Align: align.Right}),
	)

	if invoice.PaymentMethod != "" {
		m.AddRow(10, text.NewCol(12, fmt.Sprintf("Payment: %s", invoice.PaymentMethod), props.Text{Size: 9, Top: 4}))
	}
	if invoice.PaymentDetails != "" {
		m.AddRow(5, text.NewCol(12, invoice.PaymentDetails, props.Text{Size: 9}))
	}
	if invoice.Notes != "" {
		m.AddRow(10, text.NewCol(12, invoice.Notes, props.Text{Size: 8, Top: 4}))
	}

	doc, err := m.Generate()
	if err != nil {
		return Document{}, fmt.Errorf("render invoice pdf: %w", err)
	}

	g.log.Debug("invoice pdf rendered",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("number", invoice.Number),
	)
	return Document{
		Filename: slug.Make(invoice.Number) + ".pdf",
		Content:  doc.GetBytes(),
	}, nil
}

func (g *marotoGenerator) itemCols(item invoicedomain.InvoiceItem) []core.Col {
	return []core.Col{
		text.NewCol(6, item.Description, props.Text{Size: 9}),
		text.NewCol(2, fmt.Sprintf("%.2f", item.Quantity), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, fmt.Sprintf("%.2f", item.UnitPrice), props.Text{Size: 9, Align: align.Right}),
		text.NewCol(2, fmt.Sprintf("%.1f", item.VATRate), props.Text{Size: 9, Align: align.Right}),
	}
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
