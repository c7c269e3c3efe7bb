// Package reports computes derived metrics from invoice and line-item rows.
// Every function is pure: rows in, view-state out, no I/O and no clock reads.
// Callers pass the wall-clock time explicitly so results are reproducible.
package reports

import (
	"sort"
	"time"

	"github.com/davrd/invoicery/internal/models"
	"github.com/shopspring/decimal"
)

// UnknownName is rendered when a joined company or product row is absent.
const UnknownName = "(unknown)"

// DefaultTopN is the ranking cutoff used by the dashboard and reports views.
const DefaultTopN = 5

// monthLabel formats a time as the bucket label used by the monthly series,
// e.g. "Jan 2025".
func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// monthStart truncates t to the first instant of its calendar month. Stepping
// the series from here keeps AddDate from normalizing day-of-month overflow
// (Mar 31 minus one month is Mar 3, not February).
func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StatusCounts maps a stored status label to an invoice count.
type StatusCounts map[models.InvoiceStatus]int

// StatusBreakdown counts invoices per stored status. All five known statuses
// are present in the result even when absent from the input, so chart legends
// never lose a segment. Counts always sum to len(invoices).
func StatusBreakdown(invoices []models.Invoice) StatusCounts {
	counts := make(StatusCounts, len(models.AllStatuses))
	for _, s := range models.AllStatuses {
		counts[s] = 0
	}
	for _, inv := range invoices {
		counts[inv.Status]++
	}
	return counts
}

// Revenue holds the paid-invoice revenue totals for the dashboard cards.
type Revenue struct {
	Total   decimal.Decimal `json:"total"`
	Monthly decimal.Decimal `json:"monthly"`
}

// RevenueTotals sums total amounts over paid invoices. Monthly restricts the
// sum to invoices issued in now's calendar month and year; it is recomputed on
// every call, never stored. Unpaid and cancelled invoices never contribute.
func RevenueTotals(invoices []models.Invoice, now time.Time) Revenue {
	rev := Revenue{Total: decimal.Zero, Monthly: decimal.Zero}
	for _, inv := range invoices {
		if inv.Status != models.InvoiceStatusPaid {
			continue
		}
		rev.Total = rev.Total.Add(inv.TotalAmount)
		if inv.IssuedDate.Month() == now.Month() && inv.IssuedDate.Year() == now.Year() {
			rev.Monthly = rev.Monthly.Add(inv.TotalAmount)
		}
	}
	return rev
}

// OverdueAmount sums total amounts over invoices that are overdue by the
// derived rule: stored status "overdue", or a due date strictly before now
// regardless of stored status. The computed set is a superset of the labeled
// set; an invoice without a due date and without the label never counts.
func OverdueAmount(invoices []models.Invoice, now time.Time) decimal.Decimal {
	sum := decimal.Zero
	for _, inv := range invoices {
		if inv.OverdueNow(now) {
			sum = sum.Add(inv.TotalAmount)
		}
	}
	return sum
}

// MonthBucket is one labeled point on the monthly revenue series.
type MonthBucket struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

// MonthlySeries buckets paid-invoice revenue by issue month over the trailing
// `months` calendar months ending at now's month. Buckets are pre-seeded with
// zeros before scanning, so empty months are reported rather than dropped, and
// the result always has exactly `months` entries. Rows outside the window and
// rows that are not paid are ignored.
func MonthlySeries(invoices []models.Invoice, months int, now time.Time) []MonthBucket {
	if months <= 0 {
		return nil
	}
	series := make([]MonthBucket, 0, months)
	index := make(map[string]int, months)
	start := monthStart(now)
	for i := months - 1; i >= 0; i-- {
		label := monthLabel(start.AddDate(0, -i, 0))
		index[label] = len(series)
		series = append(series, MonthBucket{Label: label, Value: decimal.Zero})
	}
	for _, inv := range invoices {
		if inv.Status != models.InvoiceStatusPaid {
			continue
		}
		if pos, ok := index[monthLabel(inv.IssuedDate)]; ok {
			series[pos].Value = series[pos].Value.Add(inv.TotalAmount)
		}
	}
	return series
}

// CompanyRank is one entry of the top-companies ranking.
type CompanyRank struct {
	CompanyID    uint            `json:"company_id"`
	Name         string          `json:"name"`
	Total        decimal.Decimal `json:"total"`
	InvoiceCount int             `json:"invoice_count"`
}

// TopCompanies groups invoices by company, accumulating total amount and
// invoice count, and returns at most `limit` entries sorted descending by
// total. Ties break on ascending company name so rankings are deterministic.
// Callers are expected to pass paid invoices only; the function aggregates
// whatever it is given. A missing joined company renders as UnknownName.
func TopCompanies(invoices []models.Invoice, limit int) []CompanyRank {
	totals := make(map[uint]*CompanyRank)
	order := make([]uint, 0)
	for _, inv := range invoices {
		rank, ok := totals[inv.CompanyID]
		if !ok {
			name := UnknownName
			if inv.Company != nil && inv.Company.Name != "" {
				name = inv.Company.Name
			}
			rank = &CompanyRank{CompanyID: inv.CompanyID, Name: name, Total: decimal.Zero}
			totals[inv.CompanyID] = rank
			order = append(order, inv.CompanyID)
		}
		rank.Total = rank.Total.Add(inv.TotalAmount)
		rank.InvoiceCount++
	}
	ranked := make([]CompanyRank, 0, len(order))
	for _, id := range order {
		ranked = append(ranked, *totals[id])
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		cmp := ranked[a].Total.Cmp(ranked[b].Total)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[a].Name < ranked[b].Name
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// ProductRank is one entry of the top-products ranking.
type ProductRank struct {
	Name       string          `json:"name"`
	TotalSales decimal.Decimal `json:"total_sales"`
	Quantity   int             `json:"quantity"`
}

// productKey identifies the thing actually sold. Items are grouped by stable
// identity — the sub-product reference when present, otherwise the parent
// product — never by display name, so two products sharing a name stay
// separate entries. The display name prefers the sub-product name over the
// parent product name.
type productKey struct {
	subProductID uint
	productID    uint
}

// TopProducts groups line items by resolved product identity, accumulating
// total sales amount and total quantity, and returns at most `limit` entries
// sorted descending by total sales with ties broken on ascending name.
func TopProducts(items []models.InvoiceItem, limit int) []ProductRank {
	type entry struct {
		rank ProductRank
	}
	totals := make(map[productKey]*entry)
	order := make([]productKey, 0)
	for _, item := range items {
		key := productKey{}
		if item.SubProductID != nil {
			key.subProductID = *item.SubProductID
		}
		if item.ProductID != nil {
			key.productID = *item.ProductID
		}
		e, ok := totals[key]
		if !ok {
			name := UnknownName
			switch {
			case item.SubProduct != nil && item.SubProduct.Name != "":
				name = item.SubProduct.Name
			case item.Product != nil && item.Product.Name != "":
				name = item.Product.Name
			}
			e = &entry{rank: ProductRank{Name: name, TotalSales: decimal.Zero}}
			totals[key] = e
			order = append(order, key)
		}
		e.rank.TotalSales = e.rank.TotalSales.Add(item.TotalPrice)
		e.rank.Quantity += item.Quantity
	}
	ranked := make([]ProductRank, 0, len(order))
	for _, key := range order {
		ranked = append(ranked, totals[key].rank)
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		cmp := ranked[a].TotalSales.Cmp(ranked[b].TotalSales)
		if cmp != 0 {
			return cmp > 0
		}
		return ranked[a].Name < ranked[b].Name
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// DuePartition splits open invoices into the reminder buckets.
type DuePartition struct {
	Upcoming []models.Invoice `json:"upcoming"`
	Overdue  []models.Invoice `json:"overdue"`
}

// PartitionByDue partitions invoices by date comparison only: "upcoming" means
// the due date is strictly after now and within the next seven days, "overdue"
// means strictly before now. The stored status label is not consulted, and
// invoices with no due date (or due exactly now) land in neither bucket.
// Callers pass invoices with status in {sent, overdue}.
func PartitionByDue(invoices []models.Invoice, now time.Time) DuePartition {
	part := DuePartition{
		Upcoming: make([]models.Invoice, 0),
		Overdue:  make([]models.Invoice, 0),
	}
	for _, inv := range invoices {
		if inv.DueDate == nil {
			continue
		}
		switch {
		case inv.DueSoon(now):
			part.Upcoming = append(part.Upcoming, inv)
		case inv.DueDate.Before(now):
			part.Overdue = append(part.Overdue, inv)
		}
	}
	return part
}
