package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"styleshop/internal/domain"
)

// PurchaseState is the joined product/buyer row a purchase is checked against.
type PurchaseState struct {
	Stock    int             `db:"stock_quantity"`
	Price    decimal.Decimal `db:"price"`
	SellerID int64           `db:"seller_id"`
	Balance  decimal.Decimal `db:"balance"`
}

// PurchaseState reads stock, price, owner and buyer balance in one query.
// On postgres the product and user rows stay locked until the transaction
// ends. A missing user or product yields ErrNotFound.
func (r *ProductRepo) PurchaseState(ctx context.Context, userID, productID int64) (PurchaseState, error) {
	var st PurchaseState
	err := r.db.GetContext(ctx, &st, r.db.Rebind(`
		SELECT p.stock_quantity, p.price, p.seller_id, u.balance
		FROM products p
		JOIN users u ON u.user_id = ?
		WHERE p.product_id = ?`+r.dialect.LockSuffix()), userID, productID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PurchaseState{}, fmt.Errorf("user %d or product %d: %w", userID, productID, domain.ErrNotFound)
		}
		return PurchaseState{}, fmt.Errorf("read purchase state: %w", err)
	}
	return st, nil
}

// Stock returns the current quantity on hand.
func (r *ProductRepo) Stock(ctx context.Context, productID int64) (int, error) {
	var qty int
	err := r.db.GetContext(ctx, &qty, r.db.Rebind(`
		SELECT stock_quantity FROM products WHERE product_id = ?`), productID)
	if err != nil {
		return 0, notFound(err)
	}
	return qty, nil
}

// DecrementStock subtracts by units only if enough stock exists.
func (r *ProductRepo) DecrementStock(ctx context.Context, productID int64, by int) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products
		SET stock_quantity = stock_quantity - ?
		WHERE product_id = ? AND stock_quantity >= ?`), by, productID, by)
	if err != nil {
		return fmt.Errorf("decrement stock of %d: %w", productID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d: %w", productID, domain.ErrInsufficientStock)
	}
	return nil
}
