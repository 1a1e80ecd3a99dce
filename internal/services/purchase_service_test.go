package services_test

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/repos/repotest"
	"styleshop/internal/services"
)

type shop struct {
	db      *repos.DB
	svc     *services.PurchaseService
	user    int64
	seller  int64
	product int64
}

// newShop seeds a buyer with balance, and a product at price with stock.
func newShop(t *testing.T, balance, price int64, stock int) shop {
	t.Helper()
	db := repotest.Open(t)
	sid := repotest.Seller(t, db, "acme")
	return shop{
		db:      db,
		svc:     services.NewPurchaseService(db, applog.Discard()),
		user:    repotest.User(t, db, "buyer", balance),
		seller:  sid,
		product: repotest.Product{Name: "Wool Coat", Price: price, Stock: stock}.Insert(t, db, sid),
	}
}

func dec(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func TestPurchase_CommitsAllFourWrites(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, 100, 30, 5)

	rc, err := s.svc.Purchase(ctx, s.user, s.product, 3)
	require.NoError(t, err)

	assert.True(t, rc.Total.Equal(dec(90)), "total %s", rc.Total)
	assert.True(t, rc.UnitPrice.Equal(dec(30)))
	assert.Equal(t, s.seller, rc.SellerID)
	assert.NotZero(t, rc.BuyLogID)
	assert.True(t, repotest.Balance(t, s.db, s.user).Equal(dec(10)))
	assert.True(t, repotest.SellerBalance(t, s.db, s.seller).Equal(dec(90)))
	assert.Equal(t, 2, repotest.Stock(t, s.db, s.product))
	assert.Equal(t, 1, repotest.Count(t, s.db, "buylog"))

	// balance 10 no longer covers price 30
	_, err = s.svc.Purchase(ctx, s.user, s.product, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	assert.True(t, repotest.Balance(t, s.db, s.user).Equal(dec(10)))
	assert.True(t, repotest.SellerBalance(t, s.db, s.seller).Equal(dec(90)))
	assert.Equal(t, 2, repotest.Stock(t, s.db, s.product))
	assert.Equal(t, 1, repotest.Count(t, s.db, "buylog"))
}

func TestPurchase_FractionalPricesKeepExactBalances(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, 10000, 1, 1)
	coat := repotest.Product{Name: "Cashmere Coat", Cost: decimal.RequireFromString("9999.70"), Stock: 1}.Insert(t, s.db, s.seller)
	pin := repotest.Product{Name: "Lapel Pin", Cost: decimal.RequireFromString("0.30"), Stock: 1}.Insert(t, s.db, s.seller)

	_, err := s.svc.Purchase(ctx, s.user, coat, 1)
	require.NoError(t, err)
	left := repotest.Balance(t, s.db, s.user)
	assert.True(t, left.Equal(decimal.RequireFromString("0.30")), "balance %s", left)

	// the remaining 0.30 covers a 0.30 item exactly
	rc, err := s.svc.Purchase(ctx, s.user, pin, 1)
	require.NoError(t, err)
	assert.True(t, rc.Total.Equal(decimal.RequireFromString("0.30")))
	left = repotest.Balance(t, s.db, s.user)
	assert.True(t, left.IsZero(), "balance %s", left)

	earned := repotest.SellerBalance(t, s.db, s.seller)
	assert.True(t, earned.Equal(dec(10000)), "seller balance %s", earned)
	assert.Equal(t, 2, repotest.Count(t, s.db, "buylog"))
}

func TestPurchase_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		balance int64
		price   int64
		stock   int
		qty     int
		want    error
	}{
		{name: "stock checked before funds", balance: 0, price: 30, stock: 1, qty: 2, want: domain.ErrInsufficientStock},
		{name: "insufficient stock", balance: 1000, price: 30, stock: 2, qty: 3, want: domain.ErrInsufficientStock},
		{name: "insufficient funds", balance: 59, price: 30, stock: 5, qty: 2, want: domain.ErrInsufficientFunds},
		{name: "zero quantity", balance: 100, price: 30, stock: 5, qty: 0, want: domain.ErrValidation},
		{name: "negative quantity", balance: 100, price: 30, stock: 5, qty: -1, want: domain.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newShop(t, tt.balance, tt.price, tt.stock)

			_, err := s.svc.Purchase(context.Background(), s.user, s.product, tt.qty)

			assert.ErrorIs(t, err, tt.want)
			assert.True(t, repotest.Balance(t, s.db, s.user).Equal(dec(tt.balance)))
			assert.True(t, repotest.SellerBalance(t, s.db, s.seller).IsZero())
			assert.Equal(t, tt.stock, repotest.Stock(t, s.db, s.product))
			assert.Equal(t, 0, repotest.Count(t, s.db, "buylog"))
		})
	}
}

func TestPurchase_UnknownUserOrProduct(t *testing.T) {
	s := newShop(t, 100, 30, 5)

	_, err := s.svc.Purchase(context.Background(), s.user+50, s.product, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.svc.Purchase(context.Background(), s.user, s.product+50, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 0, repotest.Count(t, s.db, "buylog"))
}

func TestPurchase_RollsBackWhenAWriteFails(t *testing.T) {
	triggers := map[string]string{
		"seller credit":   `CREATE TRIGGER fail_write BEFORE UPDATE ON sellers BEGIN SELECT RAISE(ABORT, 'injected'); END`,
		"stock decrement": `CREATE TRIGGER fail_write BEFORE UPDATE ON products BEGIN SELECT RAISE(ABORT, 'injected'); END`,
		"buylog insert":   `CREATE TRIGGER fail_write BEFORE INSERT ON buylog BEGIN SELECT RAISE(ABORT, 'injected'); END`,
	}

	for name, ddl := range triggers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newShop(t, 100, 30, 5)
			_, err := s.db.ExecContext(ctx, ddl)
			require.NoError(t, err)

			_, err = s.svc.Purchase(ctx, s.user, s.product, 3)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "injected")
			assert.True(t, repotest.Balance(t, s.db, s.user).Equal(dec(100)))
			assert.True(t, repotest.SellerBalance(t, s.db, s.seller).IsZero())
			assert.Equal(t, 5, repotest.Stock(t, s.db, s.product))
			assert.Equal(t, 0, repotest.Count(t, s.db, "buylog"))
		})
	}
}

func TestPurchase_StoreErrorsRollBack(t *testing.T) {
	stateRow := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"stock_quantity", "price", "seller_id", "balance"}).
			AddRow(int64(5), "30", int64(9), "100")
	}

	tests := []struct {
		name   string
		expect func(m sqlmock.Sqlmock)
	}{
		{
			name: "credit fails",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(regexp.QuoteMeta("SELECT p.stock_quantity, p.price")).
					WithArgs(int64(7), int64(3)).WillReturnRows(stateRow())
				m.ExpectExec(regexp.QuoteMeta("UPDATE users SET balance = ROUND(balance -")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(regexp.QuoteMeta("UPDATE sellers SET balance = ROUND(balance +")).
					WillReturnError(errors.New("connection reset"))
				m.ExpectRollback()
			},
		},
		{
			name: "commit fails",
			expect: func(m sqlmock.Sqlmock) {
				m.ExpectBegin()
				m.ExpectQuery(regexp.QuoteMeta("SELECT p.stock_quantity, p.price")).
					WithArgs(int64(7), int64(3)).WillReturnRows(stateRow())
				m.ExpectExec(regexp.QuoteMeta("UPDATE users SET balance = ROUND(balance -")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(regexp.QuoteMeta("UPDATE sellers SET balance = ROUND(balance +")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectExec(regexp.QuoteMeta("UPDATE products")).
					WillReturnResult(sqlmock.NewResult(0, 1))
				m.ExpectQuery(regexp.QuoteMeta("INSERT INTO buylog")).
					WillReturnRows(sqlmock.NewRows([]string{"buylog_id"}).AddRow(int64(1)))
				m.ExpectCommit().WillReturnError(errors.New("connection reset"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockDB, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer mockDB.Close()
			tt.expect(mock)

			db := repos.Wrap(sqlx.NewDb(mockDB, "sqlite"))
			_, err = services.NewPurchaseService(db, applog.Discard()).Purchase(context.Background(), 7, 3, 2)

			require.Error(t, err)
			assert.Contains(t, err.Error(), "connection reset")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPurchase_StockMatchesLedger(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, 10_000, 7, 20)

	for _, qty := range []int{3, 5, 30, 1, 11, 2} {
		_, _ = s.svc.Purchase(ctx, s.user, s.product, qty)
	}

	sold, err := repos.NewBuyLogRepo(s.db).SoldQuantity(ctx, s.product)
	require.NoError(t, err)
	stock := repotest.Stock(t, s.db, s.product)
	assert.GreaterOrEqual(t, stock, 0)
	assert.Equal(t, 20-stock, sold)
	assert.Equal(t, 20, sold, "3+5+1+11 succeed, 30 and the final 2 do not")
}

func TestPurchase_ConcurrentBuyersNeverOversell(t *testing.T) {
	ctx := context.Background()
	s := newShop(t, 10_000, 10, 5)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.svc.Purchase(ctx, s.user, s.product, 1)
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	assert.Equal(t, 0, repotest.Stock(t, s.db, s.product))
	assert.Equal(t, 5, repotest.Count(t, s.db, "buylog"))
	assert.True(t, repotest.Balance(t, s.db, s.user).Equal(dec(9_950)))
}
