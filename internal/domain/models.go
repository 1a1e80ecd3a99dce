package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sex is the account sex category of a user.
type Sex string

const (
	SexMale   Sex = "Male"
	SexFemale Sex = "Female"
	SexOther  Sex = "Other"
)

// Valid reports whether s is one of the user sex categories.
func (s Sex) Valid() bool {
	switch s {
	case SexMale, SexFemale, SexOther:
		return true
	}
	return false
}

// ProductSex is the target audience of a product.
type ProductSex string

const (
	ProductMale   ProductSex = "Male"
	ProductFemale ProductSex = "Female"
	ProductUnisex ProductSex = "Unisex"
)

func (s ProductSex) Valid() bool {
	switch s {
	case ProductMale, ProductFemale, ProductUnisex:
		return true
	}
	return false
}

// ProductSexes lists the product sex categories in menu order.
func ProductSexes() []ProductSex {
	return []ProductSex{ProductMale, ProductFemale, ProductUnisex}
}

type User struct {
	ID          int64           `db:"user_id"`
	Username    string          `db:"username"`
	Hash        string          `db:"password"`
	Sex         Sex             `db:"sex"`
	Email       string          `db:"email"`
	DateOfBirth *time.Time      `db:"date_of_birth"`
	Balance     decimal.Decimal `db:"balance"`
}

type Seller struct {
	ID           int64           `db:"seller_id"`
	Name         string          `db:"seller_name"`
	Hash         string          `db:"password"`
	ContactEmail string          `db:"contact_email"`
	Balance      decimal.Decimal `db:"balance"`
}

type Product struct {
	ID            int64           `db:"product_id"`
	Name          string          `db:"goods_name"`
	ImageLink     string          `db:"image_link"`
	Sex           ProductSex      `db:"sex"`
	Category      string          `db:"category"`
	Price         decimal.Decimal `db:"price"`
	SellerID      int64           `db:"seller_id"`
	StockQuantity int             `db:"stock_quantity"`
	DateAdded     time.Time       `db:"date_added"`
}

// Availability is a coarse stock label for a product.
type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty,omitempty"`
}

// PurchaseRow is one line of a user's purchase history.
type PurchaseRow struct {
	GoodsName    string          `db:"goods_name"`
	Price        decimal.Decimal `db:"price"`
	Quantity     int             `db:"quantity"`
	PurchaseDate time.Time       `db:"purchase_date"`
}

// SearchHistoryRow is one logged query of a user.
type SearchHistoryRow struct {
	Query      string    `db:"search_query"`
	SearchDate time.Time `db:"search_date"`
}

// SaleRow is one line of a seller's sales history.
type SaleRow struct {
	UserID        int64           `db:"user_id"`
	Username      string          `db:"username"`
	ProductID     int64           `db:"product_id"`
	GoodsName     string          `db:"goods_name"`
	Price         decimal.Decimal `db:"price"`
	StockQuantity int             `db:"stock_quantity"`
	Quantity      int             `db:"quantity"`
	PurchaseDate  time.Time       `db:"purchase_date"`
}

// Receipt describes a committed purchase.
type Receipt struct {
	BuyLogID    int64
	UserID      int64
	ProductID   int64
	SellerID    int64
	Quantity    int
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	PurchasedAt time.Time
}

// ProductField enumerates the product attributes a seller may change.
type ProductField int

const (
	FieldName ProductField = iota + 1
	FieldImageLink
	FieldSex
	FieldCategory
	FieldPrice
	FieldStock
)

var productFieldLabels = map[ProductField]string{
	FieldName:      "name",
	FieldImageLink: "image",
	FieldSex:       "sex",
	FieldCategory:  "category",
	FieldPrice:     "price",
	FieldStock:     "stock",
}

// ProductFields lists the updatable fields in menu order.
func ProductFields() []ProductField {
	return []ProductField{FieldName, FieldImageLink, FieldSex, FieldCategory, FieldPrice, FieldStock}
}

func (f ProductField) Valid() bool {
	_, ok := productFieldLabels[f]
	return ok
}

func (f ProductField) String() string {
	if l, ok := productFieldLabels[f]; ok {
		return l
	}
	return "unknown"
}

// ParseProductField maps a field label back to its ProductField.
func ParseProductField(s string) (ProductField, error) {
	for f, l := range productFieldLabels {
		if l == s {
			return f, nil
		}
	}
	return 0, Invalid("field", "must be one of name, image, sex, category, price, stock")
}

// NewProduct is the seller-supplied shape of a listing.
type NewProduct struct {
	Name          string          `validate:"required,max=255"`
	ImageLink     string          `validate:"required,max=255"`
	Sex           ProductSex      `validate:"required,oneof=Male Female Unisex"`
	Category      string          `validate:"required,max=100"`
	Price         decimal.Decimal `validate:"-"`
	SellerID      int64           `validate:"required,gt=0"`
	StockQuantity int             `validate:"gte=0"`
}
