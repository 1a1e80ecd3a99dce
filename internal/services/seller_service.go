package services

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/validate"
)

// SellerService manages a seller's own listings. Every product operation
// is scoped to the calling seller.
type SellerService struct {
	Sellers  *repos.SellerRepo
	Products *repos.ProductRepo
	Buys     *repos.BuyLogRepo
	Logger   *slog.Logger
}

func NewSellerService(db repos.Querier, logger *slog.Logger) *SellerService {
	return &SellerService{
		Sellers:  repos.NewSellerRepo(db),
		Products: repos.NewProductRepo(db),
		Buys:     repos.NewBuyLogRepo(db),
		Logger:   logger,
	}
}

func (s *SellerService) Info(ctx context.Context, sellerID int64) (*domain.Seller, error) {
	return s.Sellers.ByID(ctx, sellerID)
}

func (s *SellerService) Product(ctx context.Context, productID, sellerID int64) (domain.Product, error) {
	return s.Products.GetOwned(ctx, productID, sellerID)
}

// Listings returns the seller's products in id order.
func (s *SellerService) Listings(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	return s.Products.ListBySeller(ctx, sellerID)
}

func (s *SellerService) Register(ctx context.Context, p domain.NewProduct) (int64, error) {
	if err := validate.Struct(p); err != nil {
		return 0, err
	}
	if p.Price.IsNegative() {
		return 0, domain.Invalid("price", "must not be negative")
	}
	id, err := s.Products.Create(ctx, p)
	if err != nil {
		return 0, err
	}
	applog.Audit(ctx, s.Logger, "product.register",
		slog.Int64("seller_id", p.SellerID), slog.Int64("product_id", id))
	return id, nil
}

// Update parses raw for field and writes it.
func (s *SellerService) Update(ctx context.Context, productID, sellerID int64, field domain.ProductField, raw string) error {
	val, err := parseField(field, raw)
	if err != nil {
		return err
	}
	if err := s.Products.Update(ctx, productID, sellerID, field, val); err != nil {
		return err
	}
	applog.Audit(ctx, s.Logger, "product.update",
		slog.Int64("seller_id", sellerID), slog.Int64("product_id", productID), slog.String("field", field.String()))
	return nil
}

func parseField(field domain.ProductField, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch field {
	case domain.FieldName, domain.FieldImageLink, domain.FieldCategory:
		if raw == "" {
			return nil, domain.Invalid(field.String(), "is required")
		}
		if len(raw) > 255 {
			return nil, domain.Invalid(field.String(), "must be at most 255 characters")
		}
		return raw, nil
	case domain.FieldSex:
		sex := domain.ProductSex(raw)
		if !sex.Valid() {
			return nil, domain.Invalid("sex", "must be one of Male, Female, Unisex")
		}
		return sex, nil
	case domain.FieldPrice:
		return validate.Money("price", raw)
	case domain.FieldStock:
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, domain.Invalid("stock", "must be a whole number >= 0")
		}
		return n, nil
	}
	return nil, domain.Invalid("field", "%s cannot be updated", field)
}

func (s *SellerService) Delete(ctx context.Context, productID, sellerID int64) error {
	if err := s.Products.Delete(ctx, productID, sellerID); err != nil {
		return err
	}
	applog.Audit(ctx, s.Logger, "product.delete",
		slog.Int64("seller_id", sellerID), slog.Int64("product_id", productID))
	return nil
}

func (s *SellerService) SalesHistory(ctx context.Context, sellerID int64) ([]domain.SaleRow, error) {
	return s.Buys.SalesHistory(ctx, sellerID)
}
