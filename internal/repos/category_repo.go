package repos

import "context"

type CategoryRepo struct{ db Querier }

func NewCategoryRepo(db Querier) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns distinct catalog categories in first-listed order.
func (r *CategoryRepo) List(ctx context.Context) ([]string, error) {
	var out []string
	err := r.db.SelectContext(ctx, &out, `
		SELECT category
		FROM products
		GROUP BY category
		ORDER BY MIN(product_id)`)
	return out, err
}
