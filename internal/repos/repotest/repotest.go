// Package repotest opens throwaway catalog stores and inserts fixtures.
package repotest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"styleshop/internal/domain"
	"styleshop/internal/repos"
)

// DSN returns a file-backed SQLite DSN with the pragmas the store expects.
func DSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate&_time_format=sqlite"
}

// Open creates a migrated SQLite store in t.TempDir().
func Open(t *testing.T) *repos.DB {
	t.Helper()
	db, err := repos.OpenDB(context.Background(), "sqlite", DSN(filepath.Join(t.TempDir(), "styleshop.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Seller(t *testing.T, db repos.Querier, name string) int64 {
	t.Helper()
	id, err := repos.NewSellerRepo(db).Create(context.Background(), name, "x", name+"@sellers.test")
	require.NoError(t, err)
	return id
}

func User(t *testing.T, db repos.Querier, username string, balance int64) int64 {
	t.Helper()
	id, err := repos.NewUserRepo(db).Create(context.Background(), repos.NewUser{
		Username: username,
		Hash:     "x",
		Sex:      domain.SexOther,
		Email:    username + "@users.test",
		Balance:  decimal.NewFromInt(balance),
	})
	require.NoError(t, err)
	if balance == 0 {
		// zero leaves the column default; force it
		_, err = db.ExecContext(context.Background(), db.Rebind(`UPDATE users SET balance = 0 WHERE user_id = ?`), id)
		require.NoError(t, err)
	}
	return id
}

// Product inserts a listing with the given price and stock. A non-zero
// Cost overrides Price for fractional amounts.
type Product struct {
	Name     string
	Category string
	Sex      domain.ProductSex
	Price    int64
	Cost     decimal.Decimal
	Stock    int
}

func (p Product) Insert(t *testing.T, db repos.Querier, sellerID int64) int64 {
	t.Helper()
	sex := p.Sex
	if sex == "" {
		sex = domain.ProductUnisex
	}
	category := p.Category
	if category == "" {
		category = "tops"
	}
	price := p.Cost
	if price.IsZero() {
		price = decimal.NewFromInt(p.Price)
	}
	id, err := repos.NewProductRepo(db).Create(context.Background(), domain.NewProduct{
		Name:          p.Name,
		ImageLink:     "https://img.test/" + p.Name + ".jpg",
		Sex:           sex,
		Category:      category,
		Price:         price,
		SellerID:      sellerID,
		StockQuantity: p.Stock,
	})
	require.NoError(t, err)
	return id
}

// Balance reads a user's balance.
func Balance(t *testing.T, db repos.Querier, userID int64) decimal.Decimal {
	t.Helper()
	u, err := repos.NewUserRepo(db).ByID(context.Background(), userID)
	require.NoError(t, err)
	return u.Balance
}

func SellerBalance(t *testing.T, db repos.Querier, sellerID int64) decimal.Decimal {
	t.Helper()
	s, err := repos.NewSellerRepo(db).ByID(context.Background(), sellerID)
	require.NoError(t, err)
	return s.Balance
}

func Stock(t *testing.T, db repos.Querier, productID int64) int {
	t.Helper()
	n, err := repos.NewProductRepo(db).Stock(context.Background(), productID)
	require.NoError(t, err)
	return n
}

// Count returns the row count of table.
func Count(t *testing.T, db repos.Querier, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.GetContext(context.Background(), &n, `SELECT COUNT(*) FROM `+table))
	return n
}
