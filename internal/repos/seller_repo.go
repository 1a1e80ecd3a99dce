package repos

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"styleshop/internal/domain"
)

const sellerCols = `seller_id, seller_name, password, contact_email, balance`

type SellerRepo struct{ db Querier }

func NewSellerRepo(db Querier) *SellerRepo { return &SellerRepo{db: db} }

func (r *SellerRepo) Create(ctx context.Context, name, hash, email string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`
		INSERT INTO sellers(seller_name, password, contact_email)
		VALUES (?, ?, ?)
		RETURNING seller_id`), name, hash, email)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("seller email %q: %w", email, domain.ErrConflict)
		}
		return 0, fmt.Errorf("insert seller: %w", err)
	}
	return id, nil
}

func (r *SellerRepo) ByID(ctx context.Context, id int64) (*domain.Seller, error) {
	var s domain.Seller
	err := r.db.GetContext(ctx, &s, r.db.Rebind(`SELECT `+sellerCols+` FROM sellers WHERE seller_id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// ByName lists sellers sharing a display name. Names are not unique.
func (r *SellerRepo) ByName(ctx context.Context, name string) ([]domain.Seller, error) {
	var out []domain.Seller
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+sellerCols+` FROM sellers WHERE seller_name = ? ORDER BY seller_id`), name)
	return out, err
}

func (r *SellerRepo) Credit(ctx context.Context, sellerID int64, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE sellers SET balance = ROUND(balance + ?, 2) WHERE seller_id = ?`), amount, sellerID)
	if err != nil {
		return fmt.Errorf("credit seller %d: %w", sellerID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("seller %d: %w", sellerID, domain.ErrNotFound)
	}
	return nil
}

func (r *SellerRepo) IDs(ctx context.Context) ([]int64, error) {
	var out []int64
	err := r.db.SelectContext(ctx, &out, `SELECT seller_id FROM sellers ORDER BY seller_id`)
	return out, err
}
