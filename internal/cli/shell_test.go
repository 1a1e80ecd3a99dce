package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/repos"
	"styleshop/internal/repos/repotest"
	"styleshop/internal/services"
)

// script feeds canned lines and then reports end of input.
type script struct{ lines []string }

func (s *script) ReadLine(string) (string, error) {
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	l := s.lines[0]
	s.lines = s.lines[1:]
	return l, nil
}

func (s *script) ReadPassword(p string) (string, error) { return s.ReadLine(p) }

type fixture struct {
	db      *repos.DB
	svc     Services
	product int64
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	db := repotest.Open(t)
	logger := applog.Discard()

	auth := services.NewAuthService(db, logger)
	auth.Cost = bcrypt.MinCost
	_, err := auth.SignUp(ctx, services.SignUpInput{
		Username: "minji",
		Email:    "minji@example.com",
		Password: "Passw0rd!",
		Sex:      domain.SexFemale,
	})
	require.NoError(t, err)

	h, err := bcrypt.GenerateFromPassword([]byte("secret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	sid, err := repos.NewSellerRepo(db).Create(ctx, "acme", string(h), "acme@sellers.test")
	require.NoError(t, err)

	return fixture{
		db: db,
		svc: Services{
			Auth:     auth,
			Account:  services.NewAccountService(db, logger),
			Seller:   services.NewSellerService(db, logger),
			Catalog:  services.NewCatalogService(db),
			Purchase: services.NewPurchaseService(db, logger),
			Search:   services.NewSearchService(db, nil, nil, logger),
		},
		product: repotest.Product{Name: "Wool Coat", Category: "coat", Price: 30, Stock: 5}.Insert(t, db, sid),
	}
}

func (f fixture) run(t *testing.T, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	sh := New(f.svc, &script{lines: lines}, &out, applog.Discard())
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

func TestShell_SearchAndBuy(t *testing.T) {
	f := newFixture(t)

	out := f.run(t,
		"1", "minji", "Passw0rd!", // sign in
		"1", "1", "Coat", "", // search by name, default top k
		"1",      // view rank 1
		"1", "2", // buy two
		"4", // exit
	)

	assert.Contains(t, out, "Wool Coat")
	assert.Contains(t, out, "Purchase complete.")
	assert.Contains(t, out, "Bye.")
	assert.Equal(t, 3, repotest.Stock(t, f.db, f.product))
	assert.Equal(t, 1, repotest.Count(t, f.db, "buylog"))
	assert.Equal(t, 1, repotest.Count(t, f.db, "searchlog"))
}

func TestShell_FailedPurchaseReturnsToSearch(t *testing.T) {
	f := newFixture(t)

	out := f.run(t,
		"1", "minji", "Passw0rd!",
		"1", "2", "1", "3", // search by category "coat", top 3
		"1",
		"1", "9", // more than in stock
	)

	assert.Contains(t, out, "Not enough stock for this purchase.")
	assert.Equal(t, 2, strings.Count(out, "Search by"))
	assert.Equal(t, 5, repotest.Stock(t, f.db, f.product))
	assert.Equal(t, 0, repotest.Count(t, f.db, "buylog"))
}

func TestShell_BadCredentialsStayHome(t *testing.T) {
	f := newFixture(t)

	out := f.run(t, "1", "minji", "wrong", "4")

	assert.Contains(t, out, "Invalid name or password.")
	assert.Contains(t, out, "Bye.")
}

func TestShell_SellerRegistersProduct(t *testing.T) {
	f := newFixture(t)

	out := f.run(t,
		"3", "acme", "secret-pass",
		"2", "Denim Jacket", "https://img.test/denim.jpg", "3", "outer", "89.90", "7",
		"4", // sign out
		"4", // exit
	)

	assert.Contains(t, out, "Registered product")
	assert.Contains(t, out, "Signed out.")
	ps, err := repos.NewProductRepo(f.db).ByCategory(context.Background(), "outer")
	require.NoError(t, err)
	require.Len(t, ps, 1)
	assert.Equal(t, domain.ProductUnisex, ps[0].Sex)
	assert.Equal(t, 7, ps[0].StockQuantity)
}

func TestGuards(t *testing.T) {
	f := newFixture(t)
	var out bytes.Buffer
	sh := New(f.svc, &script{}, &out, applog.Discard())
	called := false
	inner := func(context.Context, *Shell) (State, error) {
		called = true
		return StateHome, nil
	}

	next, err := RequireUser(inner)(context.Background(), sh)
	require.NoError(t, err)
	assert.Equal(t, StateSignIn, next)

	next, err = RequireSeller(inner)(context.Background(), sh)
	require.NoError(t, err)
	assert.Equal(t, StateSellerSignIn, next)
	assert.False(t, called)

	sh.session = Session{UserID: 1, Username: "minji"}
	_, err = RequireSeller(inner)(context.Background(), sh)
	require.NoError(t, err)
	assert.False(t, called, "a user session is not a seller session")

	_, err = RequireUser(inner)(context.Background(), sh)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestEveryStateHasAHandler(t *testing.T) {
	sh := New(Services{}, &script{}, io.Discard, applog.Discard())
	for s := StateHome; s < StateExit; s++ {
		assert.Contains(t, sh.handlers, s, s.String())
	}
	assert.Equal(t, "exit", StateExit.String())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.Invalid("quantity", "must be at least 1"), "Invalid input: quantity must be at least 1"},
		{fmt.Errorf("wrap: %w", domain.ErrInsufficientFunds), "Insufficient balance. Charge your account first."},
		{services.ErrBadCreds, "Invalid name or password."},
		{services.ErrNoIndex, "Style search is unavailable."},
		{io.ErrUnexpectedEOF, "Something went wrong. See the log for details."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.err))
	}
}
