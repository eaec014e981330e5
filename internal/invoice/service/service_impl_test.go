package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/minrafi/invoicer/internal/config"
	"github.com/minrafi/invoicer/internal/invoice/domain"
	"github.com/minrafi/invoicer/internal/providers/pdf"
	"github.com/minrafi/invoicer/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) NextInvoiceNumber(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockRepository) InsertProvisional(ctx context.Context, invoice *domain.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockRepository) AttachArtifact(ctx context.Context, id snowflake.ID, artifactID string) (*domain.Invoice, error) {
	args := m.Called(ctx, id, artifactID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *mockRepository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Invoice), args.Error(1)
}

func (m *mockRepository) FindPage(ctx context.Context, filter domain.ListFilter, page, limit int) ([]domain.Invoice, int64, error) {
	args := m.Called(ctx, filter, page, limit)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) Delete(ctx context.Context, id snowflake.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockRenderer struct {
	mock.Mock
}

func (m *mockRenderer) RenderInvoice(ctx context.Context, doc pdf.Document) ([]byte, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upload(ctx context.Context, data []byte, name string) (string, error) {
	args := m.Called(ctx, data, name)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, artifactID string) error {
	args := m.Called(ctx, artifactID)
	return args.Error(0)
}

func (m *mockStore) URLFor(artifactID string, variant storage.Variant) string {
	args := m.Called(artifactID, variant)
	return args.String(0)
}

func (m *mockStore) ExtractID(rawURL string) string {
	args := m.Called(rawURL)
	return args.String(0)
}

func newTestService(t *testing.T, repo *mockRepository, renderer *mockRenderer, store *mockStore) domain.Service {
	t.Helper()
	holder := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	return newTestServiceWithBilling(t, holder, repo, renderer, store)
}

func newTestServiceWithBilling(t *testing.T, billing *config.BillingConfigHolder, repo *mockRepository, renderer *mockRenderer, store *mockStore) domain.Service {
	t.Helper()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParam{
		Log:      zap.NewNop(),
		GenID:    node,
		Billing:  billing,
		Repo:     repo,
		Renderer: renderer,
		Store:    store,
	})
}

func artifactIDPtr(id string) *string { return &id }

func TestCreate(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepository)
	renderer := new(mockRenderer)
	store := new(mockStore)
	svc := newTestService(t, repo, renderer, store)

	repo.On("NextInvoiceNumber", ctx).Return(int64(1), nil).Once()
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil).Once()
	renderer.On("RenderInvoice", ctx, mock.AnythingOfType("pdf.Document")).Return([]byte("%PDF-1.4"), nil).Once()
	store.On("Upload", ctx, []byte("%PDF-1.4"), mock.MatchedBy(func(name string) bool {
		return regexp.MustCompile(`^Invoice_March_\d+$`).MatchString(name)
	})).Return("invoices/Invoice_March_1711843200000", nil).Once()

	attached := &domain.Invoice{
		InvoiceNumber: 1,
		Month:         "2024-03",
		IssueDate:     time.Date(2024, time.March, 31, 0, 0, 0, 0, time.UTC),
		DueDate:       time.Date(2024, time.April, 7, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.NewFromInt(500),
		Currency:      "USD",
		ClientName:    "Infarsight FZ LLC",
		ArtifactID:    artifactIDPtr("invoices/Invoice_March_1711843200000"),
	}
	repo.On("AttachArtifact", ctx, mock.AnythingOfType("snowflake.ID"), "invoices/Invoice_March_1711843200000").
		Return(attached, nil).Once()
	store.On("URLFor", "invoices/Invoice_March_1711843200000", storage.VariantPreview).Return("https://example/preview.pdf").Once()
	store.On("URLFor", "invoices/Invoice_March_1711843200000", storage.VariantDownload).Return("https://example/download.pdf").Once()

	view, err := svc.Create(ctx, domain.CreateInvoiceRequest{
		Amount: decimal.NewFromInt(500),
		Month:  "2024-03",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), view.InvoiceNumber)
	assert.Equal(t, "https://example/preview.pdf", view.PDFPreviewURL)
	assert.Equal(t, "https://example/download.pdf", view.PDFDownloadURL)

	repo.AssertExpectations(t)
	renderer.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestCreateInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, new(mockRepository), new(mockRenderer), new(mockStore))

	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{
		Amount: decimal.NewFromInt(-1),
		Month:  "2024-03",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.Create(ctx, domain.CreateInvoiceRequest{
		Amount: decimal.NewFromInt(500),
		Month:  "March 2024",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidMonth)
}

func TestCreateRetriesNumberingRace(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepository)
	renderer := new(mockRenderer)
	store := new(mockStore)
	svc := newTestService(t, repo, renderer, store)

	// Two lost races, then the insert lands. Each attempt recomputes the
	// next number from the table.
	repo.On("NextInvoiceNumber", ctx).Return(int64(4), nil).Times(3)
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).
		Return(domain.ErrDuplicateInvoiceNumber).Twice()
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).
		Return(nil).Once()
	renderer.On("RenderInvoice", ctx, mock.AnythingOfType("pdf.Document")).Return([]byte("%PDF-1.4"), nil).Once()
	store.On("Upload", ctx, mock.Anything, mock.AnythingOfType("string")).Return("invoices/x", nil).Once()

	attached := &domain.Invoice{InvoiceNumber: 4, Month: "2024-03", ArtifactID: artifactIDPtr("invoices/x")}
	repo.On("AttachArtifact", ctx, mock.AnythingOfType("snowflake.ID"), "invoices/x").Return(attached, nil).Once()
	store.On("URLFor", "invoices/x", storage.VariantPreview).Return("p").Once()
	store.On("URLFor", "invoices/x", storage.VariantDownload).Return("d").Once()

	view, err := svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.NewFromInt(500), Month: "2024-03"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), view.InvoiceNumber)

	repo.AssertExpectations(t)
}

func TestCreateNumberingConflictAfterRetries(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepository)
	svc := newTestService(t, repo, new(mockRenderer), new(mockStore))

	repo.On("NextInvoiceNumber", ctx).Return(int64(4), nil).Times(3)
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).
		Return(domain.ErrDuplicateInvoiceNumber).Times(3)

	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.NewFromInt(500), Month: "2024-03"})
	assert.ErrorIs(t, err, domain.ErrNumberingConflict)

	repo.AssertExpectations(t)
}

func TestCreateRenderFailureKeepsProvisionalRow(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepository)
	renderer := new(mockRenderer)
	store := new(mockStore)
	svc := newTestService(t, repo, renderer, store)

	repo.On("NextInvoiceNumber", ctx).Return(int64(1), nil).Once()
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil).Once()
	renderer.On("RenderInvoice", ctx, mock.AnythingOfType("pdf.Document")).
		Return(nil, assert.AnError).Once()

	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.NewFromInt(500), Month: "2024-03"})
	assert.ErrorIs(t, err, domain.ErrRenderFailed)

	// The numbered row stays: no delete, no upload, no attach.
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AttachArtifact", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateUploadFailureKeepsProvisionalRow(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepository)
	renderer := new(mockRenderer)
	store := new(mockStore)
	svc := newTestService(t, repo, renderer, store)

	repo.On("NextInvoiceNumber", ctx).Return(int64(1), nil).Once()
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).Return(nil).Once()
	renderer.On("RenderInvoice", ctx, mock.AnythingOfType("pdf.Document")).Return([]byte("%PDF-1.4"), nil).Once()
	store.On("Upload", ctx, mock.Anything, mock.AnythingOfType("string")).
		Return("", storage.ErrUploadFailed).Once()

	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.NewFromInt(500), Month: "2024-03"})
	assert.ErrorIs(t, err, storage.ErrUploadFailed)

	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	repo.AssertNotCalled(t, "AttachArtifact", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateReadsBillingConfigAtUseTime(t *testing.T) {
	ctx := context.Background()

	holder := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	repo := new(mockRepository)
	renderer := new(mockRenderer)
	store := new(mockStore)
	svc := newTestServiceWithBilling(t, holder, repo, renderer, store)

	var clients []string
	repo.On("NextInvoiceNumber", ctx).Return(int64(1), nil).Twice()
	repo.On("InsertProvisional", ctx, mock.AnythingOfType("*domain.Invoice")).
		Run(func(args mock.Arguments) {
			clients = append(clients, args.Get(1).(*domain.Invoice).ClientName)
		}).
		Return(nil).Twice()
	// Fail at the render step: the billing identity is already captured on
	// the provisional row by then.
	renderer.On("RenderInvoice", ctx, mock.AnythingOfType("pdf.Document")).
		Return(nil, assert.AnError).Twice()

	_, err := svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.NewFromInt(500), Month: "2024-03"})
	assert.ErrorIs(t, err, domain.ErrRenderFailed)

	// A config reload swaps the holder; the next create must see it.
	next := config.DefaultBillingConfig()
	next.ClientName = "Acme Corp"
	holder.Store(next)

	_, err = svc.Create(ctx, domain.CreateInvoiceRequest{Amount: decimal.NewFromInt(500), Month: "2024-04"})
	assert.ErrorIs(t, err, domain.ErrRenderFailed)

	require.Len(t, clients, 2)
	assert.Equal(t, "Infarsight FZ LLC", clients[0])
	assert.Equal(t, "Acme Corp", clients[1])
}

func TestListDefaults(t *testing.T) {
	ctx := context.Background()

	repo := new(mockRepository)
	svc := newTestService(t, repo, new(mockRenderer), new(mockStore))

	repo.On("FindPage", ctx, domain.ListFilter{}, 1, 5).
		Return([]domain.Invoice{}, int64(0), nil).Once()

	resp, err := svc.List(ctx, domain.ListInvoiceRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 5, resp.Limit)
	assert.NotNil(t, resp.Data)

	repo.AssertExpectations(t)
}

func TestGetByIDInvalidID(t *testing.T) {
	svc := newTestService(t, new(mockRepository), new(mockRenderer), new(mockStore))

	_, err := svc.GetByID(context.Background(), "not-a-number")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	id := node.Generate()

	repo := new(mockRepository)
	store := new(mockStore)
	svc := newTestService(t, repo, new(mockRenderer), store)

	invoice := &domain.Invoice{ID: id, InvoiceNumber: 3, ArtifactID: artifactIDPtr("invoices/x")}
	repo.On("FindByID", ctx, id).Return(invoice, nil).Once()
	store.On("Delete", ctx, "invoices/x").Return(nil).Once()
	repo.On("Delete", ctx, id).Return(nil).Once()

	resp, err := svc.Delete(ctx, id.String())
	require.NoError(t, err)
	assert.Equal(t, "Invoice #3 deleted; the number is retired and will not be reassigned", resp.Message)

	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestDeleteSwallowsArtifactStoreFailure(t *testing.T) {
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	id := node.Generate()

	repo := new(mockRepository)
	store := new(mockStore)
	svc := newTestService(t, repo, new(mockRenderer), store)

	invoice := &domain.Invoice{ID: id, InvoiceNumber: 3, ArtifactID: artifactIDPtr("invoices/x")}
	repo.On("FindByID", ctx, id).Return(invoice, nil).Once()
	store.On("Delete", ctx, "invoices/x").Return(storage.ErrDeleteFailed).Once()
	repo.On("Delete", ctx, id).Return(nil).Once()

	_, err = svc.Delete(ctx, id.String())
	require.NoError(t, err, "a store failure must not block the row delete")

	repo.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestDeleteProvisionalSkipsArtifactStore(t *testing.T) {
	ctx := context.Background()

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	id := node.Generate()

	repo := new(mockRepository)
	store := new(mockStore)
	svc := newTestService(t, repo, new(mockRenderer), store)

	repo.On("FindByID", ctx, id).Return(&domain.Invoice{ID: id, InvoiceNumber: 5}, nil).Once()
	repo.On("Delete", ctx, id).Return(nil).Once()

	_, err = svc.Delete(ctx, id.String())
	require.NoError(t, err)

	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
