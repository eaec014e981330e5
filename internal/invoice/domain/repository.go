package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// ListFilter narrows FindPage results.
type ListFilter struct {
	// Search matches client_name by case-insensitive substring.
	Search string
	// Month matches the billing month token exactly.
	Month string
}

// Repository is the invoice ledger: row storage plus the numbering
// invariant over it. The unique index on invoice_number is the only
// concurrency primitive; racing inserts are resolved by the caller.
type Repository interface {
	// NextInvoiceNumber returns max(invoice_number)+1, computed from the
	// table at call time so it stays correct across restarts. Deleted
	// invoices still count: a retired number is never reassigned.
	NextInvoiceNumber(ctx context.Context) (int64, error)

	// InsertProvisional writes a numbered row with no artifact attached.
	// Returns ErrDuplicateInvoiceNumber when the unique index rejects the
	// number, which signals a lost numbering race.
	InsertProvisional(ctx context.Context, invoice *Invoice) error

	// AttachArtifact sets the artifact id on an existing row.
	AttachArtifact(ctx context.Context, id snowflake.ID, artifactID string) (*Invoice, error)

	FindByID(ctx context.Context, id snowflake.ID) (*Invoice, error)

	// FindPage returns one page ordered by invoice_number descending and
	// the total row count under the same filter. page is 1-indexed.
	FindPage(ctx context.Context, filter ListFilter, page, limit int) ([]Invoice, int64, error)

	Delete(ctx context.Context, id snowflake.ID) error
}
