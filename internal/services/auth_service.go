package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/validate"
)

// ErrBadCreds is reported for unknown names and wrong passwords alike.
var ErrBadCreds = fmt.Errorf("invalid name or password: %w", domain.ErrNotFound)

type SignUpInput struct {
	Username    string     `validate:"required,min=3,max=50"`
	Email       string     `validate:"required,email,max=100"`
	Password    string     `validate:"required,password"`
	Sex         domain.Sex `validate:"required,oneof=Male Female Other"`
	DateOfBirth *time.Time
}

type AuthService struct {
	Users   *repos.UserRepo
	Sellers *repos.SellerRepo
	Logger  *slog.Logger
	Cost    int
}

func NewAuthService(db repos.Querier, logger *slog.Logger) *AuthService {
	return &AuthService{
		Users:   repos.NewUserRepo(db),
		Sellers: repos.NewSellerRepo(db),
		Logger:  logger,
		Cost:    bcrypt.DefaultCost,
	}
}

// SignUp registers a user and returns the new id.
func (s *AuthService) SignUp(ctx context.Context, in SignUpInput) (int64, error) {
	if err := validate.Struct(in); err != nil {
		return 0, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.Cost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}
	id, err := s.Users.Create(ctx, repos.NewUser{
		Username:    in.Username,
		Hash:        string(h),
		Sex:         in.Sex,
		Email:       in.Email,
		DateOfBirth: in.DateOfBirth,
	})
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			applog.Security(ctx, s.Logger, "signup.conflict", slog.String("username", in.Username))
		}
		return 0, err
	}
	applog.Audit(ctx, s.Logger, "signup", slog.Int64("user_id", id))
	return id, nil
}

func (s *AuthService) SignIn(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Users.ByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			applog.Security(ctx, s.Logger, "signin.failed", slog.String("username", username))
			return nil, ErrBadCreds
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		applog.Security(ctx, s.Logger, "signin.failed", slog.String("username", username))
		return nil, ErrBadCreds
	}
	applog.Audit(ctx, s.Logger, "signin", slog.Int64("user_id", u.ID))
	return u, nil
}

// SellerSignIn checks the password against every seller with that name.
func (s *AuthService) SellerSignIn(ctx context.Context, name, password string) (*domain.Seller, error) {
	candidates, err := s.Sellers.ByName(ctx, name)
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].Hash), []byte(password)) == nil {
			applog.Audit(ctx, s.Logger, "seller.signin", slog.Int64("seller_id", candidates[i].ID))
			return &candidates[i], nil
		}
	}
	applog.Security(ctx, s.Logger, "seller.signin.failed", slog.String("seller_name", name))
	return nil, ErrBadCreds
}
