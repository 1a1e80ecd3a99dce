package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"styleshop/internal/domain"
	"styleshop/internal/embedding"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/validate"
)

const DefaultMaxTopK = 10

// ErrNoIndex is returned by style search when no embedding index is loaded.
var ErrNoIndex = errors.New("style search: no embedding index loaded")

type SearchService struct {
	db      repos.Querier
	index   *embedding.Index
	encoder embedding.Encoder
	logger  *slog.Logger

	MaxTopK int
}

// NewSearchService wires the catalog store, the read-only embedding index
// and the query encoder. index may be nil when style search is unavailable.
func NewSearchService(db repos.Querier, index *embedding.Index, enc embedding.Encoder, logger *slog.Logger) *SearchService {
	if enc == nil {
		enc = embedding.Disabled()
	}
	return &SearchService{db: db, index: index, encoder: enc, logger: logger, MaxTopK: DefaultMaxTopK}
}

// Search runs req and records one searchlog/searchresult pair per returned
// product, in rank order. Name, category and sex searches fail with
// ErrNotFound when nothing matches; style search never does.
func (s *SearchService) Search(ctx context.Context, req domain.SearchRequest) ([]domain.SearchHit, error) {
	if !req.Mode.Valid() {
		return nil, domain.Invalid("mode", "unknown search mode %d", int(req.Mode))
	}
	if req.TopK < 1 || req.TopK > s.MaxTopK {
		return nil, domain.Invalid("top_k", "must be between 1 and %d", s.MaxTopK)
	}
	q, err := validate.Query(req.Query)
	if err != nil {
		return nil, err
	}

	var hits []domain.SearchHit
	if req.Mode == domain.ModeStyle {
		hits, err = s.style(ctx, q, req.TopK)
	} else {
		hits, err = s.exact(ctx, req.Mode, q, req.TopK)
	}
	if err != nil {
		return nil, err
	}

	if err := s.record(ctx, req.UserID, req.Mode.LogQuery(q), hits); err != nil {
		return nil, err
	}
	applog.Info(ctx, s.logger, "search",
		slog.String("mode", req.Mode.String()),
		slog.Int64("user_id", req.UserID),
		slog.Int("results", len(hits)))
	return hits, nil
}

func (s *SearchService) exact(ctx context.Context, mode domain.SearchMode, q string, topK int) ([]domain.SearchHit, error) {
	products := repos.NewProductRepo(s.db)

	var (
		found []domain.Product
		err   error
	)
	switch mode {
	case domain.ModeName:
		found, err = products.NameContains(ctx, q)
	case domain.ModeCategory:
		found, err = products.ByCategory(ctx, q)
	case domain.ModeSex:
		sex := domain.ProductSex(q)
		if !sex.Valid() {
			return nil, domain.Invalid("sex", "must be one of Male, Female, Unisex")
		}
		found, err = products.BySex(ctx, sex)
	}
	if err != nil {
		return nil, fmt.Errorf("%s search: %w", mode, err)
	}
	if len(found) == 0 {
		return nil, fmt.Errorf("%s %q: %w", mode.Label(), q, domain.ErrNotFound)
	}
	if len(found) > topK {
		found = found[:topK]
	}

	hits := make([]domain.SearchHit, len(found))
	for i, p := range found {
		hits[i] = domain.SearchHit{Product: p, Rank: i + 1}
	}
	return hits, nil
}

// style ranks the whole index against the encoded query, then resolves
// names to catalog products in batches until topK are found. Index entries
// with no catalog product are skipped.
func (s *SearchService) style(ctx context.Context, q string, topK int) ([]domain.SearchHit, error) {
	if s.index == nil {
		return nil, ErrNoIndex
	}
	vec, err := s.encoder.Encode(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	ranked, err := s.index.Rank(vec)
	if err != nil {
		return nil, err
	}

	products := repos.NewProductRepo(s.db)
	batch := max(2*topK, 16)
	hits := make([]domain.SearchHit, 0, topK)
	seen := make(map[int64]bool, topK)
	stale := 0

	for start := 0; start < len(ranked) && len(hits) < topK; start += batch {
		window := ranked[start:min(start+batch, len(ranked))]
		names := make([]string, 0, len(window))
		for _, sc := range window {
			names = append(names, sc.Entry.Name)
		}
		byName, err := products.ByNames(ctx, names)
		if err != nil {
			return nil, fmt.Errorf("resolve style matches: %w", err)
		}
		for _, sc := range window {
			if len(hits) == topK {
				break
			}
			p, ok := byName[sc.Entry.Name]
			if !ok {
				stale++
				continue
			}
			if seen[p.ID] {
				continue
			}
			seen[p.ID] = true
			hits = append(hits, domain.SearchHit{Product: p, Rank: len(hits) + 1, Score: sc.Score})
		}
	}
	if stale > 0 {
		s.logger.WarnContext(ctx, "style index entries missing from catalog", slog.Int("skipped", stale))
	}
	return hits, nil
}

// record writes the audit trail. It is not transactional: rows written
// before a failure stay.
func (s *SearchService) record(ctx context.Context, userID int64, query string, hits []domain.SearchHit) error {
	logs := repos.NewSearchLogRepo(s.db)
	for _, h := range hits {
		if _, err := logs.Record(ctx, userID, query, h.Product.ID, h.Rank); err != nil {
			applog.Error(ctx, s.logger, "search.audit", err,
				slog.Int64("user_id", userID), slog.Int("rank", h.Rank))
			return fmt.Errorf("record search rank %d: %w", h.Rank, err)
		}
	}
	return nil
}
