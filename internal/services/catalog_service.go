package services

import (
	"context"
	"errors"

	"styleshop/internal/domain"
	"styleshop/internal/repos"
)

const lowStockThreshold = 5

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(db repos.Querier) *CatalogService {
	return &CatalogService{Cats: repos.NewCategoryRepo(db), Prods: repos.NewProductRepo(db)}
}

func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) Product(ctx context.Context, id int64) (domain.Product, error) {
	return s.Prods.Get(ctx, id)
}

// Availability converts stock into IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// A missing product counts as out of stock.
func (s *CatalogService) Availability(ctx context.Context, productID int64) (domain.Availability, error) {
	qty, err := s.Prods.Stock(ctx, productID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Availability{Status: "OUT_OF_STOCK"}, nil
		}
		return domain.Availability{}, err
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= lowStockThreshold:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}
