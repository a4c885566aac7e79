// Package render lays out invoice documents.
package render

import (
	"bytes"
	"fmt"
	"io"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	invoicedomain "github.com/smallbiznis/factorylicense/internal/invoice/domain"
	"github.com/smallbiznis/factorylicense/internal/invoice/format"
)

const dateLayout = "2006-01-02"

// Issuer is printed in the document header.
type Issuer struct {
	Name string
}

type PDFRenderer struct {
	issuer Issuer
}

func NewPDFRenderer(issuer Issuer) *PDFRenderer {
	return &PDFRenderer{issuer: issuer}
}

func (r *PDFRenderer) Render(inv invoicedomain.Invoice) (io.Reader, error) {
	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(8, r.issuer.Name, props.Text{Size: 16, Style: fontstyle.Bold}),
		text.NewCol(4, "Invoice", props.Text{Size: 20, Style: fontstyle.Bold, Align: align.Right}),
	)

	m.AddRow(24,
		col.New(6).Add(
			text.New("Invoice number: "+inv.InvoiceNumber, props.Text{Top: 0}),
			text.New("Date of issue: "+inv.IssueDate.Format(dateLayout), props.Text{Top: 4}),
			text.New("Date due: "+inv.DueDate.Format(dateLayout), props.Text{Top: 8}),
			text.New(fmt.Sprintf("Usage period: %s from %s", inv.Period, inv.PeriodStart.Format(dateLayout)), props.Text{Top: 12}),
			text.New("Status: "+string(inv.Status), props.Text{Top: 16}),
		),
		col.New(6).Add(
			text.New("Bill to", props.Text{Style: fontstyle.Bold, Align: align.Right}),
			text.New("Organization "+inv.OrganizationID, props.Text{Top: 5, Align: align.Right}),
			text.New("Factory "+inv.FactoryID, props.Text{Top: 9, Align: align.Right}),
			text.New("License "+inv.LicenseID, props.Text{Top: 13, Align: align.Right}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, format.Money(inv.Currency, inv.Total)+" due "+inv.DueDate.Format(dateLayout), props.Text{
			Size:  14,
			Style: fontstyle.Bold,
			Top:   5,
		}),
	)

	m.AddRow(10,
		text.NewCol(6, "Description", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)
	m.AddRow(2, line.NewCol(12))

	if len(inv.Items) == 0 {
		m.AddRow(10, text.NewCol(12, "No charges for this period", props.Text{Size: 9}))
	}
	for _, item := range inv.Items {
		m.AddRow(10,
			text.NewCol(6, item.Description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", item.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice.String(), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Total.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(2, line.NewCol(12))
	for _, row := range []struct {
		label string
		value string
		bold  bool
	}{
		{"Subtotal", inv.Subtotal.StringFixed(2), false},
		{"Tax (10%)", inv.Tax.StringFixed(2), false},
		{"Total " + inv.Currency, inv.Total.StringFixed(2), true},
	} {
		style := fontstyle.Normal
		if row.bold {
			style = fontstyle.Bold
		}
		m.AddRow(8,
			col.New(8),
			text.NewCol(2, row.label, props.Text{Size: 9, Style: style}),
			text.NewCol(2, row.value, props.Text{Size: 9, Style: style, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNumber, err)
	}
	return bytes.NewReader(doc.GetBytes()), nil
}
