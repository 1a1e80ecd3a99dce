package repos

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"styleshop/internal/domain"
)

// itemSexCodes maps the item file's sex codes to product sex categories.
var itemSexCodes = map[string]domain.ProductSex{
	"M":  domain.ProductMale,
	"W":  domain.ProductFemale,
	"MW": domain.ProductUnisex,
}

type seedSeller struct{ Name, Password, Email string }

type seedUser struct {
	Username, Password string
	Sex                domain.Sex
	Email, Birth       string
}

var defaultSellers = []seedSeller{
	{"Nike", "NikeKey123", "contact@nike.com"},
	{"Adidas", "AdidasSecure456", "contact@adidas.com"},
	{"Zara", "ZaraPass789", "contact@zara.com"},
	{"H&M", "HMPass321", "contact@hm.com"},
	{"Uniqlo", "UniqloKey654", "contact@uniqlo.com"},
	{"Gap", "GapAccess987", "contact@gap.com"},
	{"Levis", "LevisLock147", "contact@levis.com"},
	{"Gucci", "GucciSecure258", "contact@gucci.com"},
	{"Prada", "PradaSafe369", "contact@prada.com"},
	{"Chanel", "ChanelKey741", "contact@chanel.com"},
}

var defaultUsers = []seedUser{
	{"admin", "admin123", domain.SexMale, "admin@example.com", "1990-01-01"},
	{"johndoe1", "password123", domain.SexMale, "john1@example.com", "1990-01-01"},
	{"janedoe2", "password456", domain.SexFemale, "jane2@example.com", "1992-02-02"},
	{"jacksmith3", "password789", domain.SexMale, "jack3@example.com", "1988-03-03"},
	{"emilyjones4", "password012", domain.SexFemale, "emily4@example.com", "1995-04-04"},
	{"michaeljohnson5", "password345", domain.SexMale, "michael5@example.com", "1985-05-05"},
	{"sarahbrown6", "password678", domain.SexFemale, "sarah6@example.com", "1991-06-06"},
	{"davidwilliams7", "password901", domain.SexMale, "david7@example.com", "1993-07-07"},
	{"amandamiller8", "password234", domain.SexFemale, "amanda8@example.com", "1989-08-08"},
	{"robertmoore9", "password567", domain.SexMale, "robert9@example.com", "1994-09-09"},
	{"lisataylor10", "password890", domain.SexFemale, "lisa10@example.com", "1987-10-10"},
}

// Seeder loads demo sellers, users and catalog items. Each step only runs
// against an empty table, so reruns are no-ops.
type Seeder struct {
	DB   *DB
	Rand *rand.Rand
	Cost int // bcrypt cost
}

type SeedReport struct {
	Sellers  int
	Users    int
	Products int
	Skipped  int
}

func NewSeeder(db *DB, seed int64) *Seeder {
	return &Seeder{DB: db, Rand: rand.New(rand.NewSource(seed)), Cost: bcrypt.DefaultCost}
}

// Run seeds accounts and, when items is non-nil, the product catalog.
func (s *Seeder) Run(ctx context.Context, items io.Reader) (SeedReport, error) {
	var rep SeedReport
	var err error
	if rep.Sellers, err = s.sellers(ctx); err != nil {
		return rep, err
	}
	if rep.Users, err = s.users(ctx); err != nil {
		return rep, err
	}
	if items != nil {
		if rep.Products, rep.Skipped, err = s.products(ctx, items); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

func (s *Seeder) hash(raw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(raw), s.Cost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(h), nil
}

func (s *Seeder) sellers(ctx context.Context) (int, error) {
	ids, err := NewSellerRepo(s.DB).IDs(ctx)
	if err != nil || len(ids) > 0 {
		return 0, err
	}
	err = s.DB.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewSellerRepo(tx)
		for _, x := range defaultSellers {
			h, err := s.hash(x.Password)
			if err != nil {
				return err
			}
			if _, err := repo.Create(ctx, x.Name, h, x.Email); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed sellers: %w", err)
	}
	return len(defaultSellers), nil
}

func (s *Seeder) users(ctx context.Context) (int, error) {
	n, err := NewUserRepo(s.DB).Count(ctx)
	if err != nil || n > 0 {
		return 0, err
	}
	err = s.DB.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewUserRepo(tx)
		for _, x := range defaultUsers {
			h, err := s.hash(x.Password)
			if err != nil {
				return err
			}
			dob, err := time.Parse(time.DateOnly, x.Birth)
			if err != nil {
				return err
			}
			if _, err := repo.Create(ctx, NewUser{
				Username: x.Username, Hash: h, Sex: x.Sex, Email: x.Email, DateOfBirth: &dob,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed users: %w", err)
	}
	return len(defaultUsers), nil
}

// products reads goods_name,image_link,sex,category[,...] rows. Rows with a
// blank field or an unknown sex code are skipped.
func (s *Seeder) products(ctx context.Context, items io.Reader) (int, int, error) {
	n, err := NewProductRepo(s.DB).Count(ctx)
	if err != nil || n > 0 {
		return 0, 0, err
	}
	sellerIDs, err := NewSellerRepo(s.DB).IDs(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(sellerIDs) == 0 {
		return 0, 0, errors.New("seed products: no sellers")
	}

	r := csv.NewReader(items)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read item header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, need := range []string{"goods_name", "image_link", "sex", "category"} {
		if _, ok := col[need]; !ok {
			return 0, 0, domain.Invalid("items", "missing column %q", need)
		}
	}

	var inserted, skipped int
	err = s.DB.InTx(ctx, func(tx *sqlx.Tx) error {
		repo := NewProductRepo(tx)
		for {
			rec, err := r.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read items: %w", err)
			}
			field := func(name string) string {
				if i := col[name]; i < len(rec) {
					return strings.TrimSpace(rec[i])
				}
				return ""
			}
			sex, ok := itemSexCodes[field("sex")]
			if !ok || field("goods_name") == "" || field("image_link") == "" || field("category") == "" {
				skipped++
				continue
			}
			price := decimal.NewFromFloat(10 + s.Rand.Float64()*990).Round(2)
			if _, err := repo.Create(ctx, domain.NewProduct{
				Name:          field("goods_name"),
				ImageLink:     field("image_link"),
				Sex:           sex,
				Category:      field("category"),
				Price:         price,
				SellerID:      sellerIDs[s.Rand.Intn(len(sellerIDs))],
				StockQuantity: 1 + s.Rand.Intn(100),
			}); err != nil {
				return err
			}
			inserted++
		}
	})
	if err != nil {
		return 0, 0, fmt.Errorf("seed products: %w", err)
	}
	return inserted, skipped, nil
}
