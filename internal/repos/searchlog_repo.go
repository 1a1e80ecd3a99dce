package repos

import (
	"context"
	"fmt"
	"time"

	"styleshop/internal/domain"
)

type SearchLogRepo struct{ db Querier }

func NewSearchLogRepo(db Querier) *SearchLogRepo { return &SearchLogRepo{db: db} }

// Record appends one searchlog row and its ranked searchresult row.
func (r *SearchLogRepo) Record(ctx context.Context, userID int64, query string, productID int64, rank int) (int64, error) {
	var logID int64
	err := r.db.GetContext(ctx, &logID, r.db.Rebind(`
		INSERT INTO searchlog(user_id, search_query, search_date)
		VALUES (?, ?, ?)
		RETURNING searchlog_id`), userID, query, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("insert searchlog: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO searchresult(searchlog_id, product_id, rank)
		VALUES (?, ?, ?)`), logID, productID, rank); err != nil {
		return logID, fmt.Errorf("insert searchresult: %w", err)
	}
	return logID, nil
}

// History lists a user's logged queries, newest first.
func (r *SearchLogRepo) History(ctx context.Context, userID int64) ([]domain.SearchHistoryRow, error) {
	var out []domain.SearchHistoryRow
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT search_query, search_date
		FROM user_search_history
		WHERE user_id = ?
		ORDER BY search_date DESC, searchlog_id DESC`), userID)
	return out, err
}

// RankedResult is a searchresult row joined with its log entry.
type RankedResult struct {
	SearchLogID int64  `db:"searchlog_id"`
	Query       string `db:"search_query"`
	ProductID   int64  `db:"product_id"`
	Rank        int    `db:"rank"`
}

// Results lists a user's search results in insertion order.
func (r *SearchLogRepo) Results(ctx context.Context, userID int64) ([]RankedResult, error) {
	var out []RankedResult
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT l.searchlog_id, l.search_query, sr.product_id, sr.rank
		FROM searchresult sr
		JOIN searchlog l ON l.searchlog_id = sr.searchlog_id
		WHERE l.user_id = ?
		ORDER BY sr.result_id`), userID)
	return out, err
}
