package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/lucanori/invoicerr/internal/client/domain"
	"github.com/lucanori/invoicerr/internal/clock"
	"github.com/lucanori/invoicerr/internal/companyctx"
	invoicedomain "github.com/lucanori/invoicerr/internal/invoice/domain"
	quotedomain "github.com/lucanori/invoicerr/internal/quote/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendInvoice(ctx context.Context, invoice invoicedomain.Invoice, recipient string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, recipient)
	return nil
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, conn.AutoMigrate(
		&clientdomain.Client{},
		&quotedomain.Quote{},
		&quotedomain.QuoteItem{},
		&invoicedomain.Invoice{},
		&invoicedomain.InvoiceItem{},
	))
	return conn
}

type testEnv struct {
	db        *gorm.DB
	svc       invoicedomain.Service
	clock     *clock.FakeClock
	node      *snowflake.Node
	sender    *fakeSender
	companyID snowflake.ID
	clientID  snowflake.ID
	ctx       context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := setupTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fakeClock := clock.NewFakeClock(time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC))
	sender := &fakeSender{}

	svc := NewService(ServiceParam{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fakeClock,
		Sender: sender,
	})

	companyID := node.Generate()
	clientID := node.Generate()
	require.NoError(t, conn.Create(&clientdomain.Client{
		ID:        clientID,
		CompanyID: companyID,
		Name:      "ACME",
		Email:     "billing@acme.test",
		Currency:  "USD",
		IsActive:  true,
		Metadata:  datatypes.JSONMap{},
	}).Error)

	return &testEnv{
		db:        conn,
		svc:       svc,
		clock:     fakeClock,
		node:      node,
		sender:    sender,
		companyID: companyID,
		clientID:  clientID,
		ctx:       companyctx.WithCompanyID(context.Background(), companyID),
	}
}

func (e *testEnv) createInvoice(t *testing.T) invoicedomain.Invoice {
	t.Helper()
	invoice, err := e.svc.Create(e.ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: e.clientID.String(),
		Items: []invoicedomain.ItemInput{
			{Description: "Consulting", Quantity: 2, UnitPrice: 100, VATRate: 20, Position: 0},
			{Description: "Hosting", Quantity: 1, UnitPrice: 50, VATRate: 5.5, Position: 1},
		},
	})
	require.NoError(t, err)
	return invoice
}

func TestCreateAssignsSequentialNumbersAndTotals(t *testing.T) {
	env := newTestEnv(t)

	first := env.createInvoice(t)
	assert.Equal(t, "INV-2025-0001", first.Number)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, first.Status)
	assert.Equal(t, "USD", first.Currency)
	assert.InDelta(t, 250.0, first.TotalHT, 1e-9)
	assert.InDelta(t, 42.75, first.TotalVAT, 1e-9)
	assert.Equal(t, first.TotalHT+first.TotalVAT, first.TotalTTC)
	assert.Equal(t, env.clock.Now().AddDate(0, 0, 14), first.DueAt)
	assert.Len(t, first.Items, 2)

	second := env.createInvoice(t)
	assert.Equal(t, "INV-2025-0002", second.Number)
}

func TestCreateNumberingRestartsEachYear(t *testing.T) {
	env := newTestEnv(t)

	env.clock.Set(time.Date(2025, time.December, 31, 23, 0, 0, 0, time.UTC))
	last := env.createInvoice(t)
	assert.Equal(t, "INV-2025-0001", last.Number)

	env.clock.Set(time.Date(2026, time.January, 2, 8, 0, 0, 0, time.UTC))
	first := env.createInvoice(t)
	assert.Equal(t, "INV-2026-0001", first.Number)
}

func TestCreateRecoversFromMalformedNumber(t *testing.T) {
	env := newTestEnv(t)

	// Sorts after any INV-prefixed number, and does not parse.
	require.NoError(t, env.db.Create(&invoicedomain.Invoice{
		ID:        env.node.Generate(),
		CompanyID: env.companyID,
		ClientID:  env.clientID,
		Number:    "ZZZ-LEGACY",
		Status:    invoicedomain.InvoiceStatusDraft,
		Currency:  "USD",
		IsActive:  true,
		DueAt:     env.clock.Now(),
		Metadata:  datatypes.JSONMap{},
		CreatedAt: env.clock.Now(),
		UpdatedAt: env.clock.Now(),
	}).Error)

	invoice := env.createInvoice(t)
	assert.Equal(t, "INV-2025-0002", invoice.Number)
}

func TestCreateRejectsUnknownClient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: env.node.Generate().String(),
		Items:    []invoicedomain.ItemInput{{Description: "x", Quantity: 1, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidClient)
}

func TestCreateRejectsInvalidItems(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(env.ctx, invoicedomain.CreateInvoiceRequest{
		ClientID: env.clientID.String(),
		Items:    []invoicedomain.ItemInput{{Description: "x", Quantity: 0, UnitPrice: 10}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidItems)
}

func TestCreateRequiresCompanyContext(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		ClientID: env.clientID.String(),
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidCompany)
}

func TestUpdateReconcilesItems(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)
	require.Len(t, invoice.Items, 2)

	kept := invoice.Items[0]
	updated, err := env.svc.Update(env.ctx, invoicedomain.UpdateInvoiceRequest{
		ID: invoice.ID.String(),
		Items: []invoicedomain.ItemInput{
			// Known ID: updated in place.
			{ID: kept.ID.String(), Description: "Consulting (rev)", Quantity: 3, UnitPrice: 100, VATRate: 20, Position: 0},
			// No ID: inserted. The second original item is dropped.
			{Description: "Support", Quantity: 1, UnitPrice: 80, VATRate: 20, Position: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	assert.Equal(t, kept.ID, updated.Items[0].ID)
	assert.Equal(t, "Consulting (rev)", updated.Items[0].Description)
	assert.Equal(t, "Support", updated.Items[1].Description)
	assert.NotEqual(t, invoice.Items[1].ID, updated.Items[1].ID)

	assert.InDelta(t, 380.0, updated.TotalHT, 1e-9)
	assert.Equal(t, updated.TotalHT+updated.TotalVAT, updated.TotalTTC)

	var itemCount int64
	require.NoError(t, env.db.Model(&invoicedomain.InvoiceItem{}).Where("invoice_id = ?", invoice.ID).Count(&itemCount).Error)
	assert.EqualValues(t, 2, itemCount)
}

func TestUpdateRejectsPaidInvoice(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)

	_, err := env.svc.MarkAsPaid(env.ctx, invoice.ID.String())
	require.NoError(t, err)

	_, err = env.svc.Update(env.ctx, invoicedomain.UpdateInvoiceRequest{
		ID:    invoice.ID.String(),
		Items: []invoicedomain.ItemInput{{Description: "x", Quantity: 1, UnitPrice: 1}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)
}

func TestMarkAsPaid(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)

	paid, err := env.svc.MarkAsPaid(env.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusPaid, paid.Status)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, env.clock.Now(), paid.PaidAt.UTC())

	_, err = env.svc.MarkAsPaid(env.ctx, invoice.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)
}

func TestDeleteIsSoftAndGetByIDStillReads(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)

	require.NoError(t, env.svc.Delete(env.ctx, invoice.ID.String()))

	listed, err := env.svc.List(env.ctx, invoicedomain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Empty(t, listed.Invoices)

	got, err := env.svc.GetByID(env.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, invoice.Number, got.Number)
}

func TestCreateFromQuote(t *testing.T) {
	env := newTestEnv(t)

	quoteID := env.node.Generate()
	require.NoError(t, env.db.Create(&quotedomain.Quote{
		ID:        quoteID,
		CompanyID: env.companyID,
		ClientID:  env.clientID,
		Title:     "Website redesign",
		Status:    quotedomain.QuoteStatusSigned,
		Currency:  "GBP",
		Notes:     "as discussed",
		TotalHT:   500,
		TotalVAT:  100,
		TotalTTC:  600,
		CreatedAt: env.clock.Now(),
		UpdatedAt: env.clock.Now(),
	}).Error)
	require.NoError(t, env.db.Create(&quotedomain.QuoteItem{
		ID:        env.node.Generate(),
		QuoteID:   quoteID,
		Quantity:  5,
		UnitPrice: 100,
		VATRate:   20,
		CreatedAt: env.clock.Now(),
	}).Error)

	invoice, err := env.svc.CreateFromQuote(env.ctx, quoteID.String())
	require.NoError(t, err)

	require.NotNil(t, invoice.QuoteID)
	assert.Equal(t, quoteID, *invoice.QuoteID)
	assert.Equal(t, "GBP", invoice.Currency)
	assert.Equal(t, "as discussed", invoice.Notes)
	assert.InDelta(t, 500.0, invoice.TotalHT, 1e-9)
	assert.InDelta(t, 600.0, invoice.TotalTTC, 1e-9)
	assert.Len(t, invoice.Items, 1)
}

func TestCreateFromQuoteUnknownQuote(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateFromQuote(env.ctx, env.node.Generate().String())
	assert.ErrorIs(t, err, invoicedomain.ErrQuoteNotFound)
}

func TestSendByEmail(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)

	sent, err := env.svc.SendByEmail(env.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusSent, sent.Status)
	assert.Equal(t, []string{"billing@acme.test"}, env.sender.sent)
}

func TestSendByEmailWithoutSender(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)

	svc := NewService(ServiceParam{
		DB:    env.db,
		Log:   zap.NewNop(),
		GenID: env.node,
		Clock: env.clock,
	})

	_, err := svc.SendByEmail(env.ctx, invoice.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrSenderMissing)
}

func TestSendByEmailDeliveryFailureLeavesDraft(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)
	env.sender.err = fmt.Errorf("smtp unreachable")

	_, err := env.svc.SendByEmail(env.ctx, invoice.ID.String())
	require.Error(t, err)

	got, err := env.svc.GetByID(env.ctx, invoice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.InvoiceStatusDraft, got.Status)
}

func TestCompanyIsolation(t *testing.T) {
	env := newTestEnv(t)
	invoice := env.createInvoice(t)

	otherCtx := companyctx.WithCompanyID(context.Background(), env.node.Generate())
	_, err := env.svc.GetByID(otherCtx, invoice.ID.String())
	assert.ErrorIs(t, err, invoicedomain.ErrInvoiceNotFound)
}
