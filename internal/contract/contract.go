// Package contract renders the rental agreement PDF for an order.
package contract

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"

	"rentstore/internal/apperrors"
	"rentstore/internal/config"
	"rentstore/internal/models"
)

const (
	dateLayout = "02.01.2006"
	lineH      = 6.0
	rowH       = 7.0
)

type column struct {
	title string
	width float64
	align string
}

// Column widths sum to the printable width of an A4 page with 10 mm margins.
var columns = []column{
	{"#", 10, "C"},
	{"Item", 60, "L"},
	{"Period", 42, "C"},
	{"Days", 14, "C"},
	{"Qty", 14, "C"},
	{"Rate", 25, "R"},
	{"Amount", 25, "R"},
}

var paymentTerms = []string{
	"The Lessee pays the total amount stated in section 2 before the equipment is handed over, unless agreed otherwise in writing.",
	"Rental days are counted from the start date; every started day is charged as a full day.",
	"Extending the rental period requires the Lessor's consent and is charged at the same daily rate.",
}

var liabilityClauses = []string{
	"The Lessee is responsible for the equipment from handover until its return and uses it only for its intended purpose.",
	"Loss of or damage to the equipment beyond normal wear is compensated by the Lessee at repair or replacement cost.",
	"The Lessor guarantees that the equipment is in working order at handover and provides operating instructions on request.",
	"Disputes are settled by negotiation and, failing that, under the law applicable at the Lessor's place of business.",
}

// Builder renders contracts. Output depends only on the order, the customer, the company
// details and the calendar day of generation.
type Builder struct {
	company config.CompanyConfig
	now     func() time.Time
}

func NewBuilder(company config.CompanyConfig) *Builder {
	return &Builder{company: company, now: time.Now}
}

// SetClock replaces the time source for the generation date.
func (b *Builder) SetClock(now func() time.Time) {
	b.now = now
}

// FileName is the download name for an order's contract.
func FileName(order *models.Order) string {
	return "contract-" + order.OrderNumber + ".pdf"
}

// Render produces the PDF bytes for order, signed between the company and customer.
func (b *Builder) Render(order *models.Order, customer *models.User) ([]byte, error) {
	if order == nil || customer == nil {
		return nil, fmt.Errorf("order and customer are required: %w", apperrors.ErrValidation)
	}

	y, m, d := b.now().UTC().Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(day)
	pdf.SetModificationDate(day)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AliasNbPages("")

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w := &writer{pdf: pdf, tr: tr}

	pdf.SetTitle("Rental agreement "+order.OrderNumber, true)
	pdf.SetAuthor(b.company.Name, true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "", 8)
		pdf.CellFormat(0, 5, "Page "+strconv.Itoa(pdf.PageNo())+" of {nb}", "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	w.header(order, day)
	w.parties(b.company, customer, order)
	w.subject(order)
	w.totals(order)
	w.clauses("3. Payment terms", paymentTerms)
	w.clauses("4. Liability", liabilityClauses)
	w.signatures(b.company, customer)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render contract for order %s: %w", order.OrderNumber, err)
	}
	return buf.Bytes(), nil
}

type writer struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (w *writer) heading(text string) {
	w.pdf.Ln(3)
	w.pdf.SetFont("Helvetica", "B", 11)
	w.pdf.CellFormat(0, lineH+1, w.tr(text), "", 1, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
}

func (w *writer) line(label, value string) {
	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.CellFormat(35, lineH, w.tr(label), "", 0, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.MultiCell(0, lineH, w.tr(value), "", "L", false)
}

func (w *writer) header(order *models.Order, day time.Time) {
	w.pdf.SetFont("Helvetica", "B", 14)
	w.pdf.CellFormat(0, 9, w.tr("EQUIPMENT RENTAL AGREEMENT No. "+order.OrderNumber), "", 1, "C", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.CellFormat(0, lineH, "Date: "+day.Format(dateLayout), "", 1, "R", false, 0, "")
	w.pdf.CellFormat(0, lineH, "Order date: "+order.CreatedAt.UTC().Format(dateLayout), "", 1, "R", false, 0, "")
}

func (w *writer) parties(company config.CompanyConfig, customer *models.User, order *models.Order) {
	w.heading("1. Parties")
	w.line("Lessor:", company.Name)
	if company.Address != "" {
		w.line("Address:", company.Address)
	}
	if company.Phone != "" {
		w.line("Phone:", company.Phone)
	}
	w.pdf.Ln(2)
	w.line("Lessee:", customer.FullName())
	w.line("Email:", customer.Email)
	phone := order.ContactPhone
	if phone == "" {
		phone = customer.Phone
	}
	if phone != "" {
		w.line("Phone:", phone)
	}
	if order.DeliveryAddress != "" {
		w.line("Delivery:", order.DeliveryAddress)
	}
}

func (w *writer) tableHeader() {
	w.pdf.SetFont("Helvetica", "B", 9)
	w.pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		w.pdf.CellFormat(c.width, rowH, c.title, "1", 0, "C", true, 0, "")
	}
	w.pdf.Ln(-1)
	w.pdf.SetFont("Helvetica", "", 9)
}

// fit shortens s with an ellipsis until it fits into width.
func (w *writer) fit(s string, width float64) string {
	s = w.tr(s)
	limit := width - 2
	if w.pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []byte(s)
	for len(r) > 0 && w.pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}

func (w *writer) subject(order *models.Order) {
	w.heading("2. Subject of the agreement")
	w.pdf.MultiCell(0, lineH, "The Lessor provides and the Lessee accepts for temporary use the following equipment:", "", "L", false)
	w.pdf.Ln(1)
	w.tableHeader()

	_, pageH := w.pdf.GetPageSize()
	_, _, _, bottom := w.pdf.GetMargins()
	for i, it := range order.Items {
		if w.pdf.GetY()+rowH > pageH-bottom {
			w.pdf.AddPage()
			w.tableHeader()
		}
		period := "-"
		if it.StartDate != nil && it.EndDate != nil {
			period = it.StartDate.UTC().Format(dateLayout) + " - " + it.EndDate.UTC().Format(dateLayout)
		}
		cells := []string{
			strconv.Itoa(i + 1),
			w.fit(it.ProductName, columns[1].width),
			period,
			strconv.Itoa(it.Days),
			strconv.Itoa(it.Quantity),
			it.UnitRate.StringFixed(2),
			it.TotalPrice.StringFixed(2),
		}
		for j, c := range columns {
			w.pdf.CellFormat(c.width, rowH, cells[j], "1", 0, c.align, false, 0, "")
		}
		w.pdf.Ln(-1)
	}
}

func (w *writer) totals(order *models.Order) {
	labelW := 0.0
	for _, c := range columns[:len(columns)-1] {
		labelW += c.width
	}
	amountW := columns[len(columns)-1].width

	row := func(label, amount string, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		w.pdf.SetFont("Helvetica", style, 9)
		w.pdf.CellFormat(labelW, rowH, w.tr(label), "1", 0, "R", false, 0, "")
		w.pdf.CellFormat(amountW, rowH, amount, "1", 1, "R", false, 0, "")
	}
	row("Subtotal", order.Subtotal.StringFixed(2), false)
	if order.DiscountAmount.IsPositive() {
		label := "Discount"
		if order.DiscountCode != "" {
			label += " (" + order.DiscountCode + ")"
		}
		row(label, "-"+order.DiscountAmount.StringFixed(2), false)
	}
	row("Total", order.Total.StringFixed(2), true)
	w.pdf.SetFont("Helvetica", "", 10)
}

func (w *writer) clauses(title string, items []string) {
	w.heading(title)
	for i, text := range items {
		w.pdf.MultiCell(0, lineH, w.tr(fmt.Sprintf("%d. %s", i+1, text)), "", "L", false)
	}
}

func (w *writer) signatures(company config.CompanyConfig, customer *models.User) {
	w.heading("5. Signatures")
	w.pdf.Ln(4)
	half := 95.0
	w.pdf.SetFont("Helvetica", "B", 10)
	w.pdf.CellFormat(half, lineH, "Lessor", "", 0, "L", false, 0, "")
	w.pdf.CellFormat(half, lineH, "Lessee", "", 1, "L", false, 0, "")
	w.pdf.SetFont("Helvetica", "", 10)
	w.pdf.CellFormat(half, lineH, w.fit(company.Name, half), "", 0, "L", false, 0, "")
	w.pdf.CellFormat(half, lineH, w.fit(customer.FullName(), half), "", 1, "L", false, 0, "")
	w.pdf.Ln(8)
	w.pdf.CellFormat(half, lineH, "_______________________", "", 0, "L", false, 0, "")
	w.pdf.CellFormat(half, lineH, "_______________________", "", 1, "L", false, 0, "")
}
