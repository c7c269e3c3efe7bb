package reports

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/davrd/invoicery/internal/models"
)

// csvHeader is the fixed export column set, in order.
var csvHeader = []string{
	"Invoice Number",
	"Company",
	"Issue Date",
	"Due Date",
	"Status",
	"Total Amount",
	"Tax ID",
	"Payment Terms",
}

func isoDate(t time.Time) string {
	return t.Format("2006-01-02")
}

// CSVRows maps invoices to export rows, one per invoice, without the header.
// Dates are ISO formatted, amounts rendered with two decimal places, a missing
// joined company renders as UnknownName and a missing due date as empty.
func CSVRows(invoices []models.Invoice) [][]string {
	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		company := UnknownName
		if inv.Company != nil && inv.Company.Name != "" {
			company = inv.Company.Name
		}
		due := ""
		if inv.DueDate != nil {
			due = isoDate(*inv.DueDate)
		}
		rows = append(rows, []string{
			inv.InvoiceNumber,
			company,
			isoDate(inv.IssuedDate),
			due,
			string(inv.Status),
			inv.TotalAmount.StringFixed(2),
			inv.TaxID,
			inv.PaymentTerms,
		})
	}
	return rows
}

// WriteCSV writes the header and one row per invoice to w. encoding/csv
// applies RFC 4180 quoting, so embedded commas, quotes and newlines in field
// values survive a round trip.
func WriteCSV(w io.Writer, invoices []models.Invoice) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range CSVRows(invoices) {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
