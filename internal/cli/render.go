package cli

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"styleshop/internal/domain"
)

const dateLayout = "2006-01-02 15:04"

func newTable(w io.Writer, header table.Row) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)
	return t
}

// RenderHits prints search results in rank order. Scores are shown only
// for style search.
func RenderHits(w io.Writer, hits []domain.SearchHit, withScore bool) {
	header := table.Row{"Rank", "ID", "Name", "Category", "Sex", "Price", "Stock"}
	if withScore {
		header = append(header, "Score")
	}
	t := newTable(w, header)
	for _, h := range hits {
		p := h.Product
		row := table.Row{h.Rank, p.ID, p.Name, p.Category, p.Sex, p.Price.StringFixed(2), p.StockQuantity}
		if withScore {
			row = append(row, h.Score)
		}
		t.AppendRow(row)
	}
	t.Render()
}

func RenderProduct(w io.Writer, p domain.Product, a domain.Availability) {
	t := newTable(w, table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"ID", p.ID},
		{"Name", p.Name},
		{"Category", p.Category},
		{"Sex", p.Sex},
		{"Price", p.Price.StringFixed(2)},
		{"Stock", p.StockQuantity},
		{"Availability", a.Status},
		{"Image", p.ImageLink},
	})
	t.Render()
}

func RenderListings(w io.Writer, ps []domain.Product) {
	t := newTable(w, table.Row{"ID", "Name", "Category", "Sex", "Price", "Stock", "Added"})
	for _, p := range ps {
		t.AppendRow(table.Row{p.ID, p.Name, p.Category, p.Sex, p.Price.StringFixed(2), p.StockQuantity, p.DateAdded.Format(dateLayout)})
	}
	t.Render()
}

func RenderReceipt(w io.Writer, rc domain.Receipt) {
	t := newTable(w, table.Row{"Order", "Product", "Qty", "Unit", "Total", "At"})
	t.AppendRow(table.Row{rc.BuyLogID, rc.ProductID, rc.Quantity, rc.UnitPrice.StringFixed(2), rc.Total.StringFixed(2), rc.PurchasedAt.Format(dateLayout)})
	t.Render()
}

func RenderUser(w io.Writer, u *domain.User) {
	t := newTable(w, table.Row{"Field", "Value"})
	dob := "-"
	if u.DateOfBirth != nil {
		dob = u.DateOfBirth.Format("2006-01-02")
	}
	t.AppendRows([]table.Row{
		{"Username", u.Username},
		{"Email", u.Email},
		{"Sex", u.Sex},
		{"Date of birth", dob},
		{"Balance", u.Balance.StringFixed(2)},
	})
	t.Render()
}

func RenderSeller(w io.Writer, s *domain.Seller) {
	t := newTable(w, table.Row{"Field", "Value"})
	t.AppendRows([]table.Row{
		{"Seller", s.Name},
		{"Contact", s.ContactEmail},
		{"Balance", s.Balance.StringFixed(2)},
	})
	t.Render()
}

func RenderPurchases(w io.Writer, rows []domain.PurchaseRow) {
	t := newTable(w, table.Row{"Product", "Price", "Qty", "Date"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.GoodsName, r.Price.StringFixed(2), r.Quantity, r.PurchaseDate.Format(dateLayout)})
	}
	t.Render()
}

func RenderSearches(w io.Writer, rows []domain.SearchHistoryRow) {
	t := newTable(w, table.Row{"Query", "Date"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Query, r.SearchDate.Format(dateLayout)})
	}
	t.Render()
}

func RenderSales(w io.Writer, rows []domain.SaleRow) {
	t := newTable(w, table.Row{"Buyer", "Product ID", "Product", "Price", "Qty", "Stock left", "Date"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Username, r.ProductID, r.GoodsName, r.Price.StringFixed(2), r.Quantity, r.StockQuantity, r.PurchaseDate.Format(dateLayout)})
	}
	t.Render()
}
