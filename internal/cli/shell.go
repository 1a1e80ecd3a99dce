// Package cli is the interactive shell: a finite-state machine whose
// states are screens and whose handlers return the next screen.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/chzyer/readline"

	"styleshop/internal/domain"
	"styleshop/internal/embedding"
	applog "styleshop/internal/log"
	"styleshop/internal/services"
	"styleshop/internal/validate"
)

type State int

const (
	StateHome State = iota
	StateSignIn
	StateSignUp
	StateSellerSignIn
	StateSearch
	StateProduct
	StateMyPage
	StatePurchaseHistory
	StateSearchHistory
	StateCharge
	StateSellerHome
	StateMyProduct
	StateRegisterProduct
	StateUpdateProduct
	StateDeleteProduct
	StateSalesHistory
	StateExit
)

var stateNames = [...]string{
	"home", "sign_in", "sign_up", "seller_sign_in", "search", "product",
	"my_page", "purchase_history", "search_history", "charge",
	"seller_home", "my_product", "register_product", "update_product",
	"delete_product", "sales_history", "exit",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// parents is where the machine goes when a screen fails.
var parents = map[State]State{
	StateSignIn:          StateHome,
	StateSignUp:          StateHome,
	StateSellerSignIn:    StateHome,
	StateSearch:          StateHome,
	StateProduct:         StateSearch,
	StateMyPage:          StateHome,
	StatePurchaseHistory: StateMyPage,
	StateSearchHistory:   StateMyPage,
	StateCharge:          StateMyPage,
	StateSellerHome:      StateHome,
	StateMyProduct:       StateSellerHome,
	StateRegisterProduct: StateSellerHome,
	StateUpdateProduct:   StateMyProduct,
	StateDeleteProduct:   StateMyProduct,
	StateSalesHistory:    StateSellerHome,
}

// Handler renders one screen and picks the next one.
type Handler func(ctx context.Context, sh *Shell) (State, error)

// Prompter reads one line of input. io.EOF ends the session.
type Prompter interface {
	ReadLine(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
}

// Services are the operations the shell drives.
type Services struct {
	Auth     *services.AuthService
	Account  *services.AccountService
	Seller   *services.SellerService
	Catalog  *services.CatalogService
	Purchase *services.PurchaseService
	Search   *services.SearchService
}

// Session is who is signed in. At most one of UserID and SellerID is set.
type Session struct {
	UserID   int64
	Username string
	SellerID int64
	Seller   string
}

type Shell struct {
	svc      Services
	in       Prompter
	out      io.Writer
	logger   *slog.Logger
	handlers map[State]Handler

	session Session
	// product selected on the search or listing screen
	productID int64
	maxTopK   int
}

func New(svc Services, in Prompter, out io.Writer, logger *slog.Logger) *Shell {
	sh := &Shell{svc: svc, in: in, out: out, logger: logger, maxTopK: services.DefaultMaxTopK}
	if svc.Search != nil {
		sh.maxTopK = svc.Search.MaxTopK
	}
	sh.handlers = map[State]Handler{
		StateHome:            home,
		StateSignIn:          signIn,
		StateSignUp:          signUp,
		StateSellerSignIn:    sellerSignIn,
		StateSearch:          RequireUser(search),
		StateProduct:         RequireUser(product),
		StateMyPage:          RequireUser(myPage),
		StatePurchaseHistory: RequireUser(purchaseHistory),
		StateSearchHistory:   RequireUser(searchHistory),
		StateCharge:          RequireUser(charge),
		StateSellerHome:      RequireSeller(sellerHome),
		StateMyProduct:       RequireSeller(myProduct),
		StateRegisterProduct: RequireSeller(registerProduct),
		StateUpdateProduct:   RequireSeller(updateProduct),
		StateDeleteProduct:   RequireSeller(deleteProduct),
		StateSalesHistory:    RequireSeller(salesHistory),
	}
	return sh
}

// Run drives the machine from StateHome until StateExit or end of input.
func (sh *Shell) Run(ctx context.Context) error {
	state := StateHome
	for state != StateExit {
		if err := ctx.Err(); err != nil {
			return err
		}
		h, ok := sh.handlers[state]
		if !ok {
			return fmt.Errorf("no handler for state %s", state)
		}
		next, err := h(ctx, sh)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			sh.report(ctx, state, err)
			next = parents[state]
		}
		sh.logger.DebugContext(ctx, "transition", slog.String("from", state.String()), slog.String("to", next.String()))
		state = next
	}
	sh.println("Bye.")
	return nil
}

// RequireUser sends anonymous sessions to the sign-in screen.
func RequireUser(next Handler) Handler {
	return func(ctx context.Context, sh *Shell) (State, error) {
		if sh.session.UserID == 0 {
			applog.Security(ctx, sh.logger, "access.denied.user", slog.Int64("seller_id", sh.session.SellerID))
			sh.println("Please sign in first.")
			return StateSignIn, nil
		}
		return next(ctx, sh)
	}
}

// RequireSeller sends non-seller sessions to the seller sign-in screen.
func RequireSeller(next Handler) Handler {
	return func(ctx context.Context, sh *Shell) (State, error) {
		if sh.session.SellerID == 0 {
			applog.Security(ctx, sh.logger, "access.denied.seller", slog.Int64("user_id", sh.session.UserID))
			sh.println("Please sign in as a seller first.")
			return StateSellerSignIn, nil
		}
		return next(ctx, sh)
	}
}

// Describe turns a service error into a line for the user.
func Describe(err error) string {
	msg, _ := describe(err)
	return msg
}

// describe reports false for errors the user cannot act on.
func describe(err error) (string, bool) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return "Invalid input: " + strings.TrimPrefix(verr.Error(), domain.ErrValidation.Error()+": "), true
	case errors.Is(err, services.ErrBadCreds):
		return "Invalid name or password.", true
	case errors.Is(err, domain.ErrInsufficientStock):
		return "Not enough stock for this purchase.", true
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "Insufficient balance. Charge your account first.", true
	case errors.Is(err, services.ErrNoIndex), errors.Is(err, embedding.ErrNoEncoder):
		return "Style search is unavailable.", true
	case errors.Is(err, domain.ErrNotFound):
		return "Not found: " + err.Error(), true
	case errors.Is(err, domain.ErrConflict):
		return "Conflict: " + err.Error(), true
	}
	return "Something went wrong. See the log for details.", false
}

func (sh *Shell) report(ctx context.Context, state State, err error) {
	msg, expected := describe(err)
	sh.println(msg)
	if !expected {
		applog.Error(ctx, sh.logger, "cli."+state.String(), err)
	}
}

func (sh *Shell) println(a ...any) { fmt.Fprintln(sh.out, a...) }

func (sh *Shell) printf(format string, a ...any) { fmt.Fprintf(sh.out, format, a...) }

func (sh *Shell) ask(label string) (string, error) {
	line, err := sh.in.ReadLine(label + ": ")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (sh *Shell) askSecret(label string) (string, error) {
	return sh.in.ReadPassword(label + ": ")
}

// choose prints a numbered menu and returns the 0-based pick.
func (sh *Shell) choose(title string, options ...string) (int, error) {
	sh.println()
	sh.println(title)
	for i, o := range options {
		sh.printf("  %d. %s\n", i+1, o)
	}
	raw, err := sh.ask("Select")
	if err != nil {
		return 0, err
	}
	n, err := validate.PositiveInt("choice", raw)
	if err != nil {
		return 0, err
	}
	if n > len(options) {
		return 0, domain.Invalid("choice", "must be between 1 and %d", len(options))
	}
	return n - 1, nil
}

// Readline is a Prompter over a terminal with line editing and history.
type Readline struct {
	rl *readline.Instance
}

func NewReadline(historyFile string) (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       historyFile,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize readline: %w", err)
	}
	return &Readline{rl: rl}, nil
}

func (r *Readline) ReadLine(prompt string) (string, error) {
	r.rl.SetPrompt(prompt)
	line, err := r.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return line, err
}

func (r *Readline) ReadPassword(prompt string) (string, error) {
	b, err := r.rl.ReadPassword(prompt)
	if errors.Is(err, readline.ErrInterrupt) {
		return "", io.EOF
	}
	return string(b), err
}

func (r *Readline) Close() error { return r.rl.Close() }
