package report

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

type column struct {
	title string
	width float64
	align string
}

var orderColumns = []column{
	{"Date / Time", 34, "L"},
	{"Customer", 34, "L"},
	{"Table", 16, "C"},
	{"Items", 62, "L"},
	{"Status", 20, "C"},
	{"Total", 24, "R"},
}

// Render writes r to w as an A4 PDF.
func Render(r Report, w io.Writer) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("%s sales report", r.Restaurant), true)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(r.Restaurant), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Sales report %s to %s", r.From, r.To), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Generated "+r.GeneratedAt.Format(time.DateTime), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	money := func(v float64) string { return fmt.Sprintf("%s %.2f", r.Currency, v) }

	heading(pdf, "Summary")
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range [][2]string{
		{"Digital orders", fmt.Sprintf("%d", r.Summary.DigitalOrders)},
		{"Manual orders", fmt.Sprintf("%d", r.Summary.ManualOrders)},
		{"Total orders", fmt.Sprintf("%d", r.Summary.TotalOrders)},
		{"Digital revenue", money(r.Summary.DigitalRevenue)},
		{"Manual revenue", money(r.Summary.ManualRevenue)},
		{"Total revenue", money(r.Summary.TotalRevenue)},
		{"Average order value", money(r.Summary.AverageOrder)},
	} {
		pdf.CellFormat(60, 7, line[0], "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 7, line[1], "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)

	heading(pdf, fmt.Sprintf("Digital orders (%d)", len(r.Digital)))
	table(pdf, tr, r.Digital, money)
	pdf.Ln(6)

	heading(pdf, fmt.Sprintf("Manual orders (%d)", len(r.Manual)))
	table(pdf, tr, r.Manual, money)

	return pdf.Output(w)
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, text, "", 1, "L", false, 0, "")
}

func table(pdf *fpdf.Fpdf, tr func(string) string, rows []Row, money func(float64) string) {
	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(46, 125, 50)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range orderColumns {
			pdf.CellFormat(c.width, 7, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFont("Helvetica", "", 8)
	}

	if len(rows) == 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.CellFormat(0, 7, "No orders in this period.", "", 1, "L", false, 0, "")
		return
	}

	header()
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	for _, row := range rows {
		if pdf.GetY()+7 > pageHeight-bottom-10 {
			pdf.AddPage()
			header()
		}
		cells := []string{
			row.CreatedAt.Format("2006-01-02 15:04"),
			fit(pdf, tr(row.Customer), orderColumns[1].width),
			row.Table,
			fit(pdf, tr(row.Items), orderColumns[3].width),
			row.Status,
			money(row.Total),
		}
		for i, c := range orderColumns {
			pdf.CellFormat(c.width, 7, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
}

// fit shortens s with an ellipsis until it fits in width.
func fit(pdf *fpdf.Fpdf, s string, width float64) string {
	limit := width - 2
	if pdf.GetStringWidth(s) <= limit {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > limit {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
