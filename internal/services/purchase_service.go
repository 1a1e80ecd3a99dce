package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
)

// PurchaseService moves money and stock for a single-product purchase.
type PurchaseService struct {
	db     *repos.DB
	logger *slog.Logger
	now    func() time.Time
}

func NewPurchaseService(db *repos.DB, logger *slog.Logger) *PurchaseService {
	return &PurchaseService{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Purchase buys quantity units of productID for userID. The check and the
// four writes (debit buyer, credit seller, decrement stock, append buylog)
// share one transaction; on any failure none of them is visible.
func (s *PurchaseService) Purchase(ctx context.Context, userID, productID int64, quantity int) (domain.Receipt, error) {
	if quantity < 1 {
		return domain.Receipt{}, domain.Invalid("quantity", "must be at least 1")
	}

	var rc domain.Receipt
	err := s.db.InTx(ctx, func(tx *sqlx.Tx) error {
		products := repos.NewProductRepo(tx)
		users := repos.NewUserRepo(tx)
		sellers := repos.NewSellerRepo(tx)
		buys := repos.NewBuyLogRepo(tx)

		st, err := products.PurchaseState(ctx, userID, productID)
		if err != nil {
			return err
		}
		if st.Stock < quantity {
			return domain.ErrInsufficientStock
		}
		total := st.Price.Mul(decimal.NewFromInt(int64(quantity)))
		if st.Balance.LessThan(total) {
			return domain.ErrInsufficientFunds
		}

		// guarded writes re-check stock and balance at write time
		if err := users.Debit(ctx, userID, total); err != nil {
			return err
		}
		if err := sellers.Credit(ctx, st.SellerID, total); err != nil {
			return err
		}
		if err := products.DecrementStock(ctx, productID, quantity); err != nil {
			return err
		}
		at := s.now()
		id, err := buys.Insert(ctx, userID, productID, quantity, at)
		if err != nil {
			return err
		}

		rc = domain.Receipt{
			BuyLogID:    id,
			UserID:      userID,
			ProductID:   productID,
			SellerID:    st.SellerID,
			Quantity:    quantity,
			UnitPrice:   st.Price,
			Total:       total,
			PurchasedAt: at,
		}
		return nil
	})

	attrs := []any{
		slog.Int64("user_id", userID),
		slog.Int64("product_id", productID),
		slog.Int("quantity", quantity),
	}
	switch {
	case err == nil:
		applog.Audit(ctx, s.logger, "purchase.commit",
			append(attrs, slog.Int64("buylog_id", rc.BuyLogID), slog.String("total", rc.Total.StringFixed(2)))...)
		return rc, nil
	case isBusinessError(err):
		s.logger.WarnContext(ctx, "purchase rejected", append(attrs, slog.String("reason", err.Error()))...)
	default:
		applog.Error(ctx, s.logger, "purchase.rollback", err, attrs...)
	}
	return domain.Receipt{}, err
}

func isBusinessError(err error) bool {
	return errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrInsufficientFunds) ||
		errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrConflict)
}
