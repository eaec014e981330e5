package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/minrafi/invoicer/internal/config"
	invoicedomain "github.com/minrafi/invoicer/internal/invoice/domain"
	"github.com/minrafi/invoicer/internal/invoice/schedule"
	"github.com/minrafi/invoicer/internal/providers/pdf"
	"github.com/minrafi/invoicer/internal/storage"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// numberingAttempts bounds the retry loop around the numbering race: two
// concurrent creates may compute the same next number, and the unique
// index on invoice_number arbitrates. The loser recomputes and retries.
const numberingAttempts = 3

const (
	defaultPage  = 1
	defaultLimit = 5
)

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Billing  *config.BillingConfigHolder
	Repo     invoicedomain.Repository
	Renderer pdf.Renderer
	Store    storage.Store
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	billing  *config.BillingConfigHolder
	repo     invoicedomain.Repository
	renderer pdf.Renderer
	store    storage.Store
}

func NewService(p ServiceParam) invoicedomain.Service {
	return &Service{
		log:      p.Log.Named("invoice.service"),
		genID:    p.GenID,
		billing:  p.Billing,
		repo:     p.Repo,
		renderer: p.Renderer,
		store:    p.Store,
	}
}

// Create issues the next invoice: number it, persist the provisional row,
// render the document, upload the artifact, attach it. The provisional row
// is the durability checkpoint; failures after it leave the row in place
// so the invoice number is never reclaimed or reissued.
func (s *Service) Create(ctx context.Context, req invoicedomain.CreateInvoiceRequest) (invoicedomain.InvoiceView, error) {
	if req.Amount.IsNegative() {
		return invoicedomain.InvoiceView{}, invoicedomain.ErrInvalidAmount
	}

	issueDate, dueDate, err := schedule.Derive(req.Month)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	// One billing snapshot per create: the holder may be swapped by a
	// config reload mid-flight, and the rendered document must agree with
	// the row that was just written.
	billing := s.billing.Current()

	invoice, err := s.insertNumbered(ctx, req, issueDate, dueDate, billing)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	data, err := s.renderer.RenderInvoice(ctx, document(invoice, billing))
	if err != nil {
		s.log.Error("render failed; invoice kept as provisional",
			zap.Int64("invoice_number", invoice.InvoiceNumber),
			zap.Error(err),
		)
		return invoicedomain.InvoiceView{}, fmt.Errorf("%w: %v", invoicedomain.ErrRenderFailed, err)
	}

	artifactID, err := s.store.Upload(ctx, data, artifactName(invoice.Month))
	if err != nil {
		s.log.Error("artifact upload failed; invoice kept as provisional",
			zap.Int64("invoice_number", invoice.InvoiceNumber),
			zap.Error(err),
		)
		return invoicedomain.InvoiceView{}, err
	}

	attached, err := s.repo.AttachArtifact(ctx, invoice.ID, artifactID)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	s.log.Info("invoice created",
		zap.Int64("invoice_number", attached.InvoiceNumber),
		zap.String("month", attached.Month),
		zap.String("artifact_id", artifactID),
	)
	return s.present(*attached), nil
}

// insertNumbered runs the numbering step under bounded retry. Each attempt
// recomputes the next number from the table; a duplicate-key rejection
// means another create won the number in between.
func (s *Service) insertNumbered(ctx context.Context, req invoicedomain.CreateInvoiceRequest, issueDate, dueDate time.Time, billing config.BillingConfig) (*invoicedomain.Invoice, error) {
	for attempt := 1; attempt <= numberingAttempts; attempt++ {
		number, err := s.repo.NextInvoiceNumber(ctx)
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		invoice := &invoicedomain.Invoice{
			ID:            s.genID.Generate(),
			InvoiceNumber: number,
			Month:         req.Month,
			IssueDate:     issueDate,
			DueDate:       dueDate,
			Amount:        req.Amount,
			Currency:      billing.Currency,
			ClientName:    billing.ClientName,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		err = s.repo.InsertProvisional(ctx, invoice)
		if err == nil {
			return invoice, nil
		}
		if !errors.Is(err, invoicedomain.ErrDuplicateInvoiceNumber) {
			return nil, err
		}

		s.log.Debug("invoice number taken, retrying",
			zap.Int64("invoice_number", number),
			zap.Int("attempt", attempt),
		)
	}
	return nil, invoicedomain.ErrNumberingConflict
}

func (s *Service) List(ctx context.Context, req invoicedomain.ListInvoiceRequest) (invoicedomain.ListInvoiceResponse, error) {
	page := req.Page
	if page < 1 {
		page = defaultPage
	}
	limit := req.Limit
	if limit < 1 {
		limit = defaultLimit
	}

	filter := invoicedomain.ListFilter{Search: req.Search, Month: req.Month}
	invoices, total, err := s.repo.FindPage(ctx, filter, page, limit)
	if err != nil {
		return invoicedomain.ListInvoiceResponse{}, err
	}

	data := make([]invoicedomain.InvoiceView, 0, len(invoices))
	for _, invoice := range invoices {
		data = append(data, s.present(invoice))
	}

	return invoicedomain.ListInvoiceResponse{
		Data:  data,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (invoicedomain.InvoiceView, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}

	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.InvoiceView{}, err
	}
	return s.present(*invoice), nil
}

// Delete removes the ledger row and attempts to remove the artifact first.
// An artifact-store failure is logged and swallowed: an orphaned blob is a
// cleanable defect, a ledger row pointing at nothing is not.
func (s *Service) Delete(ctx context.Context, id string) (invoicedomain.DeleteInvoiceResponse, error) {
	invoiceID, err := parseID(id)
	if err != nil {
		return invoicedomain.DeleteInvoiceResponse{}, err
	}

	invoice, err := s.repo.FindByID(ctx, invoiceID)
	if err != nil {
		return invoicedomain.DeleteInvoiceResponse{}, err
	}

	if !invoice.Provisional() {
		if err := s.store.Delete(ctx, *invoice.ArtifactID); err != nil {
			// TODO: queue failed deletes for a reconciliation pass that
			// purges orphaned artifacts.
			s.log.Warn("artifact delete failed, removing row anyway",
				zap.Int64("invoice_number", invoice.InvoiceNumber),
				zap.String("artifact_id", *invoice.ArtifactID),
				zap.Error(err),
			)
		}
	}

	if err := s.repo.Delete(ctx, invoiceID); err != nil {
		return invoicedomain.DeleteInvoiceResponse{}, err
	}

	s.log.Info("invoice deleted", zap.Int64("invoice_number", invoice.InvoiceNumber))
	return invoicedomain.DeleteInvoiceResponse{
		Message: fmt.Sprintf("Invoice #%d deleted; the number is retired and will not be reassigned", invoice.InvoiceNumber),
	}, nil
}

// present derives the artifact URLs on every read. Provisional rows carry
// no URLs at all.
func (s *Service) present(invoice invoicedomain.Invoice) invoicedomain.InvoiceView {
	view := invoicedomain.InvoiceView{Invoice: invoice}
	if !invoice.Provisional() {
		view.PDFPreviewURL = s.store.URLFor(*invoice.ArtifactID, storage.VariantPreview)
		view.PDFDownloadURL = s.store.URLFor(*invoice.ArtifactID, storage.VariantDownload)
	}
	return view
}

func document(invoice *invoicedomain.Invoice, billing config.BillingConfig) pdf.Document {
	return pdf.Document{
		SenderName:    billing.SenderName,
		SenderAddress: billing.SenderAddress,
		InvoiceNumber: invoice.InvoiceNumber,
		IssueDate:     invoice.IssueDate.Format("02/01/2006"),
		MonthLabel:    schedule.MonthLabel(invoice.Month),
		BillToName:    invoice.ClientName,
		BillToAddress: billing.ClientAddress,
		Amount:        invoice.Amount.StringFixed(2),
		Currency:      invoice.Currency,
		PayeeName:     billing.PayeeName,
		BankName:      billing.BankName,
		BankAccount:   billing.BankAccount,
		BankBranch:    billing.BankBranch,
		RoutingCode:   billing.RoutingCode,
		SwiftCode:     billing.SwiftCode,
		FooterNote:    billing.FooterNote,
	}
}

// artifactName builds a collision-free object name: re-rendering the same
// month must never overwrite a previous artifact.
func artifactName(month string) string {
	return fmt.Sprintf("Invoice_%s_%d", schedule.MonthName(month), time.Now().UnixMilli())
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, invoicedomain.ErrNotFound
	}
	return parsed, nil
}
