package pdf

import (
	"context"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// fillerRows pads the item table so a single-line invoice still fills the
// page the way the printed template does.
const fillerRows = 19

type marotoRenderer struct{}

func NewRenderer() Renderer {
	return &marotoRenderer{}
}

func (r *marotoRenderer) RenderInvoice(_ context.Context, doc Document) ([]byte, error) {
	cfg := config.NewBuilder().
		WithLeftMargin(15).
		WithRightMargin(15).
		WithTopMargin(15).
		Build()

	m := maroto.New(cfg)
	symbol := currencySymbol(doc.Currency)

	// Header: sender identity left, title and meta right.
	m.AddRow(24,
		col.New(7).Add(
			text.New(doc.SenderName, props.Text{Size: 14, Style: fontstyle.Bold}),
			text.New(doc.SenderAddress, props.Text{Size: 9, Top: 8}),
		),
		col.New(5).Add(
			text.New("Invoice", props.Text{Size: 26, Style: fontstyle.Italic, Align: align.Right}),
		),
	)
	m.AddRow(12,
		col.New(7),
		col.New(5).Add(
			text.New("Date: "+doc.IssueDate, props.Text{Size: 9, Align: align.Right}),
			text.New(fmt.Sprintf("Invoice #: %d", doc.InvoiceNumber), props.Text{Size: 9, Top: 5, Align: align.Right}),
		),
	)

	// Bill-to block.
	billTo := []core.Component{
		text.New("To:", props.Text{Size: 10, Style: fontstyle.Bold}),
		text.New(doc.BillToName, props.Text{Size: 10, Style: fontstyle.Bold, Top: 5}),
	}
	for i, addrLine := range doc.BillToAddress {
		billTo = append(billTo, text.New(addrLine, props.Text{Size: 9, Top: float64(10 + i*4)}))
	}
	m.AddRow(float64(14+len(doc.BillToAddress)*4), col.New(12).Add(billTo...))

	// Item table.
	m.AddRow(8,
		text.NewCol(2, "Sr. No.", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(6, "Description", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, "Unit Price", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
		text.NewCol(2, "Line Total", props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))
	m.AddRow(8,
		col.New(2),
		text.NewCol(6, "Professional Services for the month of "+doc.MonthLabel, props.Text{Size: 9}),
		col.New(2),
		text.NewCol(2, symbol+"  "+doc.Amount, props.Text{Size: 9, Align: align.Right}),
	)
	for i := 0; i < fillerRows; i++ {
		m.AddRow(6, col.New(12))
	}
	m.AddRow(2, line.NewCol(12))

	// Payment instructions left, totals right.
	m.AddRow(40,
		col.New(7).Add(
			text.New("Please make checks payable to", props.Text{Size: 9}),
			text.New("Wire transfer to credit of - "+doc.PayeeName, props.Text{Size: 9, Top: 5}),
			text.New("Bank Name - "+doc.BankName, props.Text{Size: 9, Top: 12}),
			text.New("Bank Account No - "+doc.BankAccount, props.Text{Size: 9, Top: 17}),
			text.New("Bank Branch Name - "+doc.BankBranch, props.Text{Size: 9, Top: 22}),
			text.New("Routing Code - "+doc.RoutingCode, props.Text{Size: 9, Top: 27}),
			text.New("SWIFT Code - "+doc.SwiftCode, props.Text{Size: 9, Top: 32}),
		),
		col.New(5).Add(
			text.New("Subtotal   "+symbol+" "+doc.Amount, props.Text{Size: 9, Align: align.Right}),
			text.New("Tax   "+symbol+" -", props.Text{Size: 9, Top: 5, Align: align.Right}),
			text.New("Total   "+symbol+" "+doc.Amount, props.Text{Size: 10, Style: fontstyle.Bold, Top: 12, Align: align.Right}),
		),
	)

	// Footer.
	m.AddRow(10,
		text.NewCol(12, doc.FooterNote, props.Text{Size: 8, Align: align.Center, Top: 4}),
	)

	generated, err := m.Generate()
	if err != nil {
		return nil, err
	}
	return generated.GetBytes(), nil
}

// currencySymbol maps the currency code to its print form. Non-USD codes
// print as-is: the builtin PDF fonts cover only latin-1 glyphs.
func currencySymbol(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == "USD" {
		return "$"
	}
	return code
}
