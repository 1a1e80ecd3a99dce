package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"styleshop/internal/domain"
	"styleshop/internal/embedding"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/repos/repotest"
	"styleshop/internal/services"
)

type catalog struct {
	db   *repos.DB
	user int64
	ids  map[string]int64
}

func newCatalog(t *testing.T) catalog {
	t.Helper()
	db := repotest.Open(t)
	sid := repotest.Seller(t, db, "acme")
	c := catalog{db: db, user: repotest.User(t, db, "shopper", 0), ids: map[string]int64{}}
	for _, p := range []repotest.Product{
		{Name: "Red Knit", Category: "knit", Sex: domain.ProductMale, Price: 40, Stock: 3},
		{Name: "Blue Denim", Category: "denim", Sex: domain.ProductFemale, Price: 60, Stock: 3},
		{Name: "red cap", Category: "cap", Sex: domain.ProductUnisex, Price: 15, Stock: 3},
		{Name: "Navy Knit", Category: "knit", Sex: domain.ProductUnisex, Price: 45, Stock: 3},
	} {
		c.ids[p.Name] = p.Insert(t, db, sid)
	}
	return c
}

func names(hits []domain.SearchHit) []string {
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.Product.Name
	}
	return out
}

func ranks(hits []domain.SearchHit) []int {
	out := make([]int, len(hits))
	for i, h := range hits {
		out[i] = h.Rank
	}
	return out
}

func TestSearch_NameRecordsOneRowPerHit(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	svc := services.NewSearchService(c.db, nil, nil, applog.Discard())

	hits, err := svc.Search(ctx, domain.SearchRequest{Mode: domain.ModeName, Query: "Knit", TopK: 10, UserID: c.user})
	require.NoError(t, err)

	assert.Equal(t, []string{"Red Knit", "Navy Knit"}, names(hits))
	assert.Equal(t, []int{1, 2}, ranks(hits))
	assert.Zero(t, hits[0].Score)
	assert.Equal(t, 2, repotest.Count(t, c.db, "searchlog"))
	assert.Equal(t, 2, repotest.Count(t, c.db, "searchresult"))

	results, err := repos.NewSearchLogRepo(c.db).Results(ctx, c.user)
	require.NoError(t, err)
	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, "Search name: Knit", r.Query)
		assert.Equal(t, i+1, r.Rank)
		assert.Equal(t, hits[i].Product.ID, r.ProductID)
	}
}

func TestSearch_NameIsCaseSensitive(t *testing.T) {
	c := newCatalog(t)
	svc := services.NewSearchService(c.db, nil, nil, applog.Discard())

	hits, err := svc.Search(context.Background(), domain.SearchRequest{Mode: domain.ModeName, Query: "red", TopK: 10, UserID: c.user})
	require.NoError(t, err)
	assert.Equal(t, []string{"red cap"}, names(hits))
}

func TestSearch_TopKTruncates(t *testing.T) {
	c := newCatalog(t)
	svc := services.NewSearchService(c.db, nil, nil, applog.Discard())

	hits, err := svc.Search(context.Background(), domain.SearchRequest{Mode: domain.ModeCategory, Query: "knit", TopK: 1, UserID: c.user})
	require.NoError(t, err)

	assert.Equal(t, []string{"Red Knit"}, names(hits))
	assert.Equal(t, 1, repotest.Count(t, c.db, "searchlog"))
	assert.Equal(t, 1, repotest.Count(t, c.db, "searchresult"))
}

func TestSearch_SexFilter(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	svc := services.NewSearchService(c.db, nil, nil, applog.Discard())

	hits, err := svc.Search(ctx, domain.SearchRequest{Mode: domain.ModeSex, Query: "Unisex", TopK: 10, UserID: c.user})
	require.NoError(t, err)
	assert.Equal(t, []string{"red cap", "Navy Knit"}, names(hits))

	history, err := services.NewAccountService(c.db, applog.Discard()).SearchHistory(ctx, c.user)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "Filter Sex: Unisex", history[0].Query)
}

func TestSearch_NoMatchWritesNothing(t *testing.T) {
	tests := []domain.SearchRequest{
		{Mode: domain.ModeCategory, Query: "jackets", TopK: 10},
		{Mode: domain.ModeName, Query: "KNIT", TopK: 10},
	}
	for _, req := range tests {
		t.Run(req.Mode.String(), func(t *testing.T) {
			c := newCatalog(t)
			req.UserID = c.user
			svc := services.NewSearchService(c.db, nil, nil, applog.Discard())

			hits, err := svc.Search(context.Background(), req)

			assert.ErrorIs(t, err, domain.ErrNotFound)
			assert.Empty(t, hits)
			assert.Equal(t, 0, repotest.Count(t, c.db, "searchlog"))
			assert.Equal(t, 0, repotest.Count(t, c.db, "searchresult"))
		})
	}
}

func TestSearch_RejectsBadRequests(t *testing.T) {
	c := newCatalog(t)
	svc := services.NewSearchService(c.db, nil, nil, applog.Discard())

	tests := map[string]domain.SearchRequest{
		"top_k zero":    {Mode: domain.ModeName, Query: "Knit", TopK: 0},
		"top_k too big": {Mode: domain.ModeName, Query: "Knit", TopK: services.DefaultMaxTopK + 1},
		"unknown mode":  {Mode: domain.SearchMode(42), Query: "Knit", TopK: 3},
		"blank query":   {Mode: domain.ModeName, Query: "   ", TopK: 3},
		"unknown sex":   {Mode: domain.ModeSex, Query: "Kids", TopK: 3},
		"lowercase sex": {Mode: domain.ModeSex, Query: "male", TopK: 3},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			req.UserID = c.user
			_, err := svc.Search(context.Background(), req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
	assert.Equal(t, 0, repotest.Count(t, c.db, "searchlog"))
}

func TestSearch_StyleSingleItemScoresOne(t *testing.T) {
	c := newCatalog(t)
	vec := []float32{0.3, 0.4, 0.5}
	idx, err := embedding.New([]embedding.Entry{{Name: "Red Knit", Category: "knit", Vector: vec}})
	require.NoError(t, err)
	enc := embedding.Prompted{
		Encoder:  embedding.StaticEncoder{"a photo of red sweater": vec},
		Template: "a photo of %s",
	}
	svc := services.NewSearchService(c.db, idx, enc, applog.Discard())

	hits, err := svc.Search(context.Background(), domain.SearchRequest{Mode: domain.ModeStyle, Query: "red sweater", TopK: 1, UserID: c.user})
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, c.ids["Red Knit"], hits[0].Product.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	assert.Equal(t, 1, repotest.Count(t, c.db, "searchresult"))
}

func TestSearch_StyleSkipsEntriesMissingFromCatalog(t *testing.T) {
	ctx := context.Background()
	c := newCatalog(t)
	idx, err := embedding.New([]embedding.Entry{
		{Name: "Ghost Jacket", Vector: []float32{1, 0, 0}},
		{Name: "Navy Knit", Vector: []float32{0.9, 0.1, 0}},
		{Name: "Navy Knit", Vector: []float32{0.85, 0.15, 0}},
		{Name: "Blue Denim", Vector: []float32{0.5, 0.5, 0}},
		{Name: "red cap", Vector: []float32{0, 0, 1}},
	})
	require.NoError(t, err)
	enc := embedding.StaticEncoder{"navy": {1, 0, 0}}
	svc := services.NewSearchService(c.db, idx, enc, applog.Discard())

	hits, err := svc.Search(ctx, domain.SearchRequest{Mode: domain.ModeStyle, Query: "navy", TopK: 2, UserID: c.user})
	require.NoError(t, err)

	assert.Equal(t, []string{"Navy Knit", "Blue Denim"}, names(hits))
	assert.Equal(t, []int{1, 2}, ranks(hits))
	assert.Greater(t, hits[0].Score, hits[1].Score)

	results, err := repos.NewSearchLogRepo(c.db).Results(ctx, c.user)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Search Style: navy", results[0].Query)
}

func TestSearch_StyleReturnsWhatItCanResolve(t *testing.T) {
	c := newCatalog(t)
	idx, err := embedding.New([]embedding.Entry{
		{Name: "Ghost Jacket", Vector: []float32{1, 0}},
		{Name: "red cap", Vector: []float32{0, 1}},
	})
	require.NoError(t, err)
	svc := services.NewSearchService(c.db, idx, embedding.StaticEncoder{"cap": {0, 1}}, applog.Discard())

	hits, err := svc.Search(context.Background(), domain.SearchRequest{Mode: domain.ModeStyle, Query: "cap", TopK: 5, UserID: c.user})
	require.NoError(t, err)
	assert.Equal(t, []string{"red cap"}, names(hits))
	assert.Equal(t, 1, repotest.Count(t, c.db, "searchlog"))
}

func TestSearch_StyleUnavailable(t *testing.T) {
	c := newCatalog(t)
	req := domain.SearchRequest{Mode: domain.ModeStyle, Query: "navy", TopK: 3, UserID: c.user}

	_, err := services.NewSearchService(c.db, nil, nil, applog.Discard()).Search(context.Background(), req)
	assert.ErrorIs(t, err, services.ErrNoIndex)

	idx, err := embedding.New([]embedding.Entry{{Name: "Navy Knit", Vector: []float32{1, 0}}})
	require.NoError(t, err)
	_, err = services.NewSearchService(c.db, idx, nil, applog.Discard()).Search(context.Background(), req)
	assert.ErrorIs(t, err, embedding.ErrNoEncoder)
	assert.Equal(t, 0, repotest.Count(t, c.db, "searchlog"))
}
