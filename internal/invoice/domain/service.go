package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type CreateInvoiceRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Month  string          `json:"month"`
}

type ListInvoiceRequest struct {
	Page   int
	Limit  int
	Search string
	Month  string
}

type ListInvoiceResponse struct {
	Data  []InvoiceView `json:"data"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type DeleteInvoiceResponse struct {
	Message string `json:"message"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (InvoiceView, error)
	List(ctx context.Context, req ListInvoiceRequest) (ListInvoiceResponse, error)
	GetByID(ctx context.Context, id string) (InvoiceView, error)
	Delete(ctx context.Context, id string) (DeleteInvoiceResponse, error)
}

var (
	ErrInvalidMonth  = errors.New("invalid_month")
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrNotFound      = errors.New("invoice_not_found")

	// ErrDuplicateInvoiceNumber is the per-attempt signal of a lost
	// numbering race; the coordinator retries it internally.
	ErrDuplicateInvoiceNumber = errors.New("duplicate_invoice_number")
	// ErrNumberingConflict surfaces only when the bounded retry is exhausted.
	ErrNumberingConflict = errors.New("invoice_numbering_conflict")

	// ErrRenderFailed leaves the numbered row in place; the invoice number
	// is never reclaimed.
	ErrRenderFailed = errors.New("invoice_render_failed")
)
