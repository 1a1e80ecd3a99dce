package repos

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"styleshop/internal/domain"
)

const productCols = `product_id, goods_name, image_link, sex, category, price, seller_id, stock_quantity, date_added`

// productColumns is the only source of column names for seller updates.
var productColumns = map[domain.ProductField]string{
	domain.FieldName:      "goods_name",
	domain.FieldImageLink: "image_link",
	domain.FieldSex:       "sex",
	domain.FieldCategory:  "category",
	domain.FieldPrice:     "price",
	domain.FieldStock:     "stock_quantity",
}

type ProductRepo struct {
	db      Querier
	dialect Dialect
}

func NewProductRepo(db Querier) *ProductRepo {
	return &ProductRepo{db: db, dialect: dialectOf(db)}
}

func (r *ProductRepo) Create(ctx context.Context, p domain.NewProduct) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, r.db.Rebind(`
		INSERT INTO products(goods_name, image_link, sex, category, price, seller_id, stock_quantity, date_added)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING product_id`),
		p.Name, p.ImageLink, p.Sex, p.Category, p.Price, p.SellerID, p.StockQuantity, time.Now().UTC())
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, fmt.Errorf("seller %d: %w", p.SellerID, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

func (r *ProductRepo) Get(ctx context.Context, id int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`SELECT `+productCols+` FROM products WHERE product_id = ?`), id)
	if err != nil {
		return domain.Product{}, notFound(err)
	}
	return p, nil
}

// GetOwned returns the product only when sellerID owns it.
func (r *ProductRepo) GetOwned(ctx context.Context, id, sellerID int64) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, r.db.Rebind(`
		SELECT `+productCols+` FROM products WHERE product_id = ? AND seller_id = ?`), id, sellerID)
	if err != nil {
		return domain.Product{}, notFound(err)
	}
	return p, nil
}

func (r *ProductRepo) ListBySeller(ctx context.Context, sellerID int64) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+productCols+` FROM products WHERE seller_id = ? ORDER BY product_id`), sellerID)
	return out, err
}

// NameContains matches a case-sensitive substring of goods_name.
func (r *ProductRepo) NameContains(ctx context.Context, sub string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+productCols+` FROM products
		WHERE `+r.dialect.Contains("goods_name")+`
		ORDER BY product_id`), sub)
	return out, err
}

func (r *ProductRepo) ByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+productCols+` FROM products WHERE category = ? ORDER BY product_id`), category)
	return out, err
}

func (r *ProductRepo) BySex(ctx context.Context, sex domain.ProductSex) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, r.db.Rebind(`
		SELECT `+productCols+` FROM products WHERE sex = ? ORDER BY product_id`), sex)
	return out, err
}

// ByNames resolves exact names to products. When several products share a
// name the lowest product_id wins.
func (r *ProductRepo) ByNames(ctx context.Context, names []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(names))
	if len(names) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`
		SELECT `+productCols+` FROM products
		WHERE goods_name IN (?)
		ORDER BY product_id`, names)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		if _, seen := out[p.Name]; !seen {
			out[p.Name] = p
		}
	}
	return out, nil
}

// Update sets one allow-listed column on a product owned by sellerID.
func (r *ProductRepo) Update(ctx context.Context, id, sellerID int64, field domain.ProductField, value any) error {
	col, ok := productColumns[field]
	if !ok {
		return domain.Invalid("field", "%s cannot be updated", field)
	}
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		UPDATE products SET `+col+` = ? WHERE product_id = ? AND seller_id = ?`), value, id, sellerID)
	if err != nil {
		return fmt.Errorf("update product %d %s: %w", id, field, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d for seller %d: %w", id, sellerID, domain.ErrNotFound)
	}
	return nil
}

// Delete removes a product owned by sellerID. Products referenced by the
// buy or search logs are kept and reported as a conflict.
func (r *ProductRepo) Delete(ctx context.Context, id, sellerID int64) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`
		DELETE FROM products WHERE product_id = ? AND seller_id = ?`), id, sellerID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("product %d has purchase or search history: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %d for seller %d: %w", id, sellerID, domain.ErrNotFound)
	}
	return nil
}

func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}
