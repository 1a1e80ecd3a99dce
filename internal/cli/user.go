package cli

import (
	"context"
	"fmt"
	"log/slog"

	"styleshop/internal/domain"
	applog "styleshop/internal/log"
	"styleshop/internal/services"
	"styleshop/internal/validate"
)

var homeTargets = []State{StateSignIn, StateSignUp, StateSellerSignIn, StateExit}

func home(ctx context.Context, sh *Shell) (State, error) {
	if sh.session.SellerID != 0 {
		return StateSellerHome, nil
	}
	if sh.session.UserID != 0 {
		i, err := sh.choose("Welcome, "+sh.session.Username, "Search", "My page", "Sign out", "Exit")
		if err != nil {
			return StateHome, err
		}
		switch i {
		case 0:
			return StateSearch, nil
		case 1:
			return StateMyPage, nil
		case 2:
			sh.signOut(ctx)
			return StateHome, nil
		}
		return StateExit, nil
	}

	i, err := sh.choose("styleshop", "Sign in", "Sign up", "Seller sign in", "Exit")
	if err != nil {
		return StateHome, err
	}
	return homeTargets[i], nil
}

func (sh *Shell) signOut(ctx context.Context) {
	applog.Audit(ctx, sh.logger, "signout",
		slog.Int64("user_id", sh.session.UserID), slog.Int64("seller_id", sh.session.SellerID))
	sh.session = Session{}
	sh.productID = 0
	sh.println("Signed out.")
}

func signIn(ctx context.Context, sh *Shell) (State, error) {
	name, err := sh.ask("Username")
	if err != nil {
		return StateHome, err
	}
	pw, err := sh.askSecret("Password")
	if err != nil {
		return StateHome, err
	}
	u, err := sh.svc.Auth.SignIn(ctx, name, pw)
	if err != nil {
		return StateHome, err
	}
	sh.session = Session{UserID: u.ID, Username: u.Username}
	return StateHome, nil
}

func signUp(ctx context.Context, sh *Shell) (State, error) {
	var in services.SignUpInput
	var err error
	if in.Username, err = sh.ask("Username"); err != nil {
		return StateHome, err
	}
	if in.Email, err = sh.ask("Email"); err != nil {
		return StateHome, err
	}
	if in.Password, err = sh.askSecret("Password (8-20 chars, upper, lower, digit, symbol)"); err != nil {
		return StateHome, err
	}
	sexes := []domain.Sex{domain.SexMale, domain.SexFemale, domain.SexOther}
	i, err := sh.choose("Sex", "Male", "Female", "Other")
	if err != nil {
		return StateHome, err
	}
	in.Sex = sexes[i]
	raw, err := sh.ask("Date of birth (YYYY-MM-DD, blank to skip)")
	if err != nil {
		return StateHome, err
	}
	if in.DateOfBirth, err = validate.Date("date_of_birth", raw); err != nil {
		return StateHome, err
	}

	if _, err := sh.svc.Auth.SignUp(ctx, in); err != nil {
		return StateHome, err
	}
	sh.println("Account created. Please sign in.")
	return StateSignIn, nil
}

var searchModes = []domain.SearchMode{domain.ModeName, domain.ModeCategory, domain.ModeSex, domain.ModeStyle}

func search(ctx context.Context, sh *Shell) (State, error) {
	i, err := sh.choose("Search by", "Name", "Category", "Sex", "Style")
	if err != nil {
		return StateHome, err
	}
	mode := searchModes[i]

	var q string
	switch mode {
	case domain.ModeCategory:
		cats, err := sh.svc.Catalog.Categories(ctx)
		if err != nil {
			return StateHome, err
		}
		if len(cats) == 0 {
			return StateHome, fmt.Errorf("categories: %w", domain.ErrNotFound)
		}
		j, err := sh.choose("Category", cats...)
		if err != nil {
			return StateHome, err
		}
		q = cats[j]
	case domain.ModeSex:
		sexes := domain.ProductSexes()
		labels := make([]string, len(sexes))
		for k, s := range sexes {
			labels[k] = string(s)
		}
		j, err := sh.choose("Sex", labels...)
		if err != nil {
			return StateHome, err
		}
		q = labels[j]
	case domain.ModeStyle:
		if q, err = sh.ask("Describe the style"); err != nil {
			return StateHome, err
		}
	default:
		if q, err = sh.ask("Product name contains"); err != nil {
			return StateHome, err
		}
	}

	raw, err := sh.ask(fmt.Sprintf("How many results (1-%d, blank for %d)", sh.maxTopK, sh.maxTopK))
	if err != nil {
		return StateHome, err
	}
	topK := sh.maxTopK
	if raw != "" {
		if topK, err = validate.PositiveInt("top_k", raw); err != nil {
			return StateHome, err
		}
	}

	hits, err := sh.svc.Search.Search(ctx, domain.SearchRequest{
		Mode:   mode,
		Query:  q,
		TopK:   topK,
		UserID: sh.session.UserID,
	})
	if err != nil {
		return StateHome, err
	}
	if len(hits) == 0 {
		sh.println("No matching products.")
		return StateHome, nil
	}
	RenderHits(sh.out, hits, mode == domain.ModeStyle)

	raw, err = sh.ask("Rank to view (blank to go back)")
	if err != nil || raw == "" {
		return StateHome, err
	}
	n, err := validate.PositiveInt("rank", raw)
	if err != nil {
		return StateHome, err
	}
	if n > len(hits) {
		return StateHome, domain.Invalid("rank", "must be between 1 and %d", len(hits))
	}
	sh.productID = hits[n-1].Product.ID
	return StateProduct, nil
}

func product(ctx context.Context, sh *Shell) (State, error) {
	p, err := sh.svc.Catalog.Product(ctx, sh.productID)
	if err != nil {
		return StateSearch, err
	}
	avail, err := sh.svc.Catalog.Availability(ctx, p.ID)
	if err != nil {
		return StateSearch, err
	}
	RenderProduct(sh.out, p, avail)

	i, err := sh.choose(p.Name, "Buy", "Back to search", "Home")
	if err != nil {
		return StateProduct, err
	}
	switch i {
	case 1:
		return StateSearch, nil
	case 2:
		return StateHome, nil
	}

	raw, err := sh.ask("Quantity")
	if err != nil {
		return StateProduct, err
	}
	qty, err := validate.PositiveInt("quantity", raw)
	if err != nil {
		return StateProduct, err
	}
	rc, err := sh.svc.Purchase.Purchase(ctx, sh.session.UserID, p.ID, qty)
	if err != nil {
		return StateProduct, err
	}
	sh.println("Purchase complete.")
	RenderReceipt(sh.out, rc)
	return StateHome, nil
}

var myPageTargets = []State{StatePurchaseHistory, StateSearchHistory, StateCharge, StateHome}

func myPage(ctx context.Context, sh *Shell) (State, error) {
	u, err := sh.svc.Account.User(ctx, sh.session.UserID)
	if err != nil {
		return StateHome, err
	}
	RenderUser(sh.out, u)
	i, err := sh.choose("My page", "Purchase history", "Search history", "Charge balance", "Back")
	if err != nil {
		return StateHome, err
	}
	return myPageTargets[i], nil
}

func purchaseHistory(ctx context.Context, sh *Shell) (State, error) {
	rows, err := sh.svc.Account.PurchaseHistory(ctx, sh.session.UserID)
	if err != nil {
		return StateMyPage, err
	}
	if len(rows) == 0 {
		sh.println("No purchases yet.")
		return StateMyPage, nil
	}
	RenderPurchases(sh.out, rows)
	return StateMyPage, nil
}

func searchHistory(ctx context.Context, sh *Shell) (State, error) {
	rows, err := sh.svc.Account.SearchHistory(ctx, sh.session.UserID)
	if err != nil {
		return StateMyPage, err
	}
	if len(rows) == 0 {
		sh.println("No searches yet.")
		return StateMyPage, nil
	}
	RenderSearches(sh.out, rows)
	return StateMyPage, nil
}

func charge(ctx context.Context, sh *Shell) (State, error) {
	raw, err := sh.ask("Amount to charge")
	if err != nil {
		return StateMyPage, err
	}
	amount, err := validate.Money("amount", raw)
	if err != nil {
		return StateMyPage, err
	}
	if err := sh.svc.Account.Charge(ctx, sh.session.UserID, amount); err != nil {
		return StateMyPage, err
	}
	sh.printf("Charged %s.\n", amount.StringFixed(2))
	return StateMyPage, nil
}
