// Package pdf renders the fixed-layout invoice document.
package pdf

import "context"

// Document carries everything the renderer prints. All values are already
// formatted; the renderer adds no business logic.
type Document struct {
	SenderName    string
	SenderAddress string

	InvoiceNumber int64
	IssueDate     string // DD/MM/YYYY
	MonthLabel    string // "March 2024"

	BillToName    string
	BillToAddress []string

	Amount   string // "500.00"
	Currency string

	PayeeName   string
	BankName    string
	BankAccount string
	BankBranch  string
	RoutingCode string
	SwiftCode   string

	FooterNote string
}

type Renderer interface {
	RenderInvoice(ctx context.Context, doc Document) ([]byte, error)
}
