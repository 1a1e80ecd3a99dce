package services

import (
	"context"
	"log/slog"

	"github.com/shopspring/decimal"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
)

// MaxCharge caps a single balance top-up.
var MaxCharge = decimal.NewFromInt(2_000_000)

type AccountService struct {
	Users    *repos.UserRepo
	Buys     *repos.BuyLogRepo
	Searches *repos.SearchLogRepo
	Logger   *slog.Logger
}

func NewAccountService(db repos.Querier, logger *slog.Logger) *AccountService {
	return &AccountService{
		Users:    repos.NewUserRepo(db),
		Buys:     repos.NewBuyLogRepo(db),
		Searches: repos.NewSearchLogRepo(db),
		Logger:   logger,
	}
}

func (s *AccountService) User(ctx context.Context, userID int64) (*domain.User, error) {
	return s.Users.ByID(ctx, userID)
}

// Charge tops up a user's balance by amount (0 < amount <= MaxCharge).
func (s *AccountService) Charge(ctx context.Context, userID int64, amount decimal.Decimal) error {
	if !amount.IsPositive() || amount.GreaterThan(MaxCharge) {
		return domain.Invalid("amount", "must be greater than 0 and at most %s", MaxCharge)
	}
	if !amount.Equal(amount.Round(2)) {
		return domain.Invalid("amount", "must have at most 2 decimal places")
	}
	if err := s.Users.Credit(ctx, userID, amount); err != nil {
		return err
	}
	applog.Audit(ctx, s.Logger, "account.charge",
		slog.Int64("user_id", userID), slog.String("amount", amount.StringFixed(2)))
	return nil
}

func (s *AccountService) PurchaseHistory(ctx context.Context, userID int64) ([]domain.PurchaseRow, error) {
	return s.Buys.PurchaseHistory(ctx, userID)
}

func (s *AccountService) SearchHistory(ctx context.Context, userID int64) ([]domain.SearchHistoryRow, error) {
	return s.Searches.History(ctx, userID)
}
