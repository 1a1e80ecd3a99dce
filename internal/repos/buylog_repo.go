package repos

import (
	"context"
	"fmt"
	"time"

	"styleshop/internal/domain"
)

type BuyLogRepo struct{ db Querier }

func NewBuyLogRepo(db Querier) *BuyLogRepo { return &BuyLogRepo{db: db} }

// Insert appends a purchase to the ledger.
func (r *BuyLogRepo) Insert(ctx context.Context, userID, productID int64, quantity int, at time.Time) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`
		INSERT INTO buylog(user_id, product_id, quantity, purchase_date)
		VALUES (?, ?, ?, ?)
		RETURNING buylog_id`), userID, productID, quantity, at)
	if err != nil {
		return 0, fmt.Errorf("insert buylog: %w", err)
	}
	return id, nil
}

// PurchaseHistory lists a user's purchases, newest first.
func (r *BuyLogRepo) PurchaseHistory(ctx context.Context, userID int64) ([]domain.PurchaseRow, error) {
	var out []domain.PurchaseRow
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT goods_name, price, quantity, purchase_date
		FROM purchase_history
		WHERE user_id = ?
		ORDER BY purchase_date DESC, buylog_id DESC`), userID)
	return out, err
}

// SalesHistory lists purchases of products owned by sellerID, newest first.
func (r *BuyLogRepo) SalesHistory(ctx context.Context, sellerID int64) ([]domain.SaleRow, error) {
	var out []domain.SaleRow
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT user_id, username, product_id, goods_name, price, stock_quantity, quantity, purchase_date
		FROM sales_history
		WHERE seller_id = ?
		ORDER BY purchase_date DESC, buylog_id DESC`), sellerID)
	return out, err
}

// SoldQuantity sums committed purchase quantities for a product.
func (r *BuyLogRepo) SoldQuantity(ctx context.Context, productID int64) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, r.db.Rebind(`
		SELECT COALESCE(SUM(quantity), 0) FROM buylog WHERE product_id = ?`), productID)
	return n, err
}
