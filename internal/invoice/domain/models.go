// Package domain contains persistence models for invoicing.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice represents one issued monthly invoice. Rows are immutable after
// the artifact is attached; the only later mutation is deletion.
type Invoice struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	InvoiceNumber int64           `gorm:"not null;uniqueIndex:ux_invoices_number" json:"invoice_number"`
	Month         string          `gorm:"type:text;not null" json:"month"`
	IssueDate     time.Time       `gorm:"type:date;not null" json:"issue_date"`
	DueDate       time.Time       `gorm:"type:date;not null" json:"due_date"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Currency      string          `gorm:"type:text;not null;default:'USD'" json:"currency"`
	ClientName    string          `gorm:"type:text;not null" json:"client_name"`
	ArtifactID    *string         `gorm:"type:text" json:"artifact_id,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Deleted rows stay in the table so their invoice number is never
	// handed out again; reads exclude them through the soft-delete scope.
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Provisional reports whether the invoice is numbered but has no artifact
// attached yet (a creation attempt failed after the durability checkpoint).
func (i Invoice) Provisional() bool {
	return i.ArtifactID == nil || *i.ArtifactID == ""
}

// InvoiceView is an Invoice plus artifact URLs derived at read time.
// URLs are never persisted; they are rebuilt from the artifact id on
// every read so the URL scheme can change without a data migration.
type InvoiceView struct {
	Invoice
	PDFPreviewURL  string `json:"pdf_preview_url,omitempty"`
	PDFDownloadURL string `json:"pdf_download_url,omitempty"`
}
