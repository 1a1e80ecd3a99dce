package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"styleshop/internal/domain"
)

const userCols = `user_id, username, password, sex, email, date_of_birth, balance`

type UserRepo struct{ db Querier }

func NewUserRepo(db Querier) *UserRepo { return &UserRepo{db: db} }

// NewUser is the insert shape for sign-up and seeding. A zero Balance
// leaves the column default in place.
type NewUser struct {
	Username    string
	Hash        string
	Sex         domain.Sex
	Email       string
	DateOfBirth *time.Time
	Balance     decimal.Decimal
}

func (r *UserRepo) Create(ctx context.Context, u NewUser) (int64, error) {
	var (
		id  int64
		err error
	)
	if u.Balance.IsZero() {
		err = r.db.GetContext(ctx, &id, r.db.Rebind(`
			INSERT INTO users(username, password, sex, email, date_of_birth)
			VALUES (?, ?, ?, ?, ?)
			RETURNING user_id`), u.Username, u.Hash, u.Sex, u.Email, u.DateOfBirth)
	} else {
		err = r.db.GetContext(ctx, &id, r.db.Rebind(`
			INSERT INTO users(username, password, sex, email, date_of_birth, balance)
			VALUES (?, ?, ?, ?, ?, ?)
			RETURNING user_id`), u.Username, u.Hash, u.Sex, u.Email, u.DateOfBirth, u.Balance)
	}
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("username or email already registered: %w", domain.ErrConflict)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *UserRepo) ByID(ctx context.Context, id int64) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`SELECT `+userCols+` FROM users WHERE user_id = ?`), id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (r *UserRepo) ByUsername(ctx context.Context, username string) (*domain.User, error) {
	var u domain.User
	err := r.db.GetContext(ctx, &u, r.db.Rebind(`SELECT `+userCols+` FROM users WHERE username = ?`), username)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

// Credit adds amount to the user's balance.
func (r *UserRepo) Credit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET balance = ROUND(balance + ?, 2) WHERE user_id = ?`), amount, userID)
	if err != nil {
		return fmt.Errorf("credit user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", userID, domain.ErrNotFound)
	}
	return nil
}

// Debit subtracts amount only while the balance covers it.
//
// Money arithmetic is rounded to cents in SQL: SQLite keeps fractional
// NUMERIC values as REAL, and unrounded sums drift below the exact amount.
func (r *UserRepo) Debit(ctx context.Context, userID int64, amount decimal.Decimal) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE users SET balance = ROUND(balance - ?, 2)
		WHERE user_id = ? AND balance >= ?`), amount, userID, amount)
	if err != nil {
		return fmt.Errorf("debit user %d: %w", userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", userID, domain.ErrInsufficientFunds)
	}
	return nil
}

func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
