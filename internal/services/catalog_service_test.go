package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styleshop/internal/domain"
	"styleshop/internal/repos/repotest"
	"styleshop/internal/services"
)

func TestCatalog_Availability(t *testing.T) {
	ctx := context.Background()
	db := repotest.Open(t)
	sid := repotest.Seller(t, db, "acme")
	svc := services.NewCatalogService(db)

	tests := []struct {
		stock int
		want  string
	}{
		{stock: 0, want: "OUT_OF_STOCK"},
		{stock: 1, want: "LOW_STOCK"},
		{stock: 4, want: "LOW_STOCK"},
		{stock: 5, want: "IN_STOCK"},
		{stock: 20, want: "IN_STOCK"},
	}
	for _, tt := range tests {
		id := repotest.Product{Name: tt.want, Stock: tt.stock}.Insert(t, db, sid)
		got, err := svc.Availability(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.Availability{Status: tt.want, Qty: tt.stock}, got)
	}

	got, err := svc.Availability(ctx, 9999)
	require.NoError(t, err)
	assert.Equal(t, "OUT_OF_STOCK", got.Status)
}

func TestCatalog_CategoriesAndProduct(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	svc := services.NewCatalogService(c.db)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"knit", "denim", "cap"}, cats)

	p, err := svc.Product(ctx, c.ids["Blue Denim"])
	require.NoError(t, err)
	assert.Equal(t, domain.ProductFemale, p.Sex)

	_, err = svc.Product(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
