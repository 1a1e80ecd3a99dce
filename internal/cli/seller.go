package cli

import (
	"context"
	"strconv"
	"strings"

	"styleshop/internal/domain"
	"styleshop/internal/validate"
)

func sellerSignIn(ctx context.Context, sh *Shell) (State, error) {
	name, err := sh.ask("Seller name")
	if err != nil {
		return StateHome, err
	}
	pw, err := sh.askSecret("Password")
	if err != nil {
		return StateHome, err
	}
	s, err := sh.svc.Auth.SellerSignIn(ctx, name, pw)
	if err != nil {
		return StateHome, err
	}
	sh.session = Session{SellerID: s.ID, Seller: s.Name}
	return StateSellerHome, nil
}

func sellerHome(ctx context.Context, sh *Shell) (State, error) {
	info, err := sh.svc.Seller.Info(ctx, sh.session.SellerID)
	if err != nil {
		return StateHome, err
	}
	RenderSeller(sh.out, info)
	listings, err := sh.svc.Seller.Listings(ctx, sh.session.SellerID)
	if err != nil {
		return StateHome, err
	}
	if len(listings) > 0 {
		RenderListings(sh.out, listings)
	}

	i, err := sh.choose("Seller home", "View product", "Register product", "Sales history", "Sign out")
	if err != nil {
		return StateSellerHome, err
	}
	switch i {
	case 0:
		raw, err := sh.ask("Product ID")
		if err != nil {
			return StateSellerHome, err
		}
		id, err := validate.ID("product_id", raw)
		if err != nil {
			return StateSellerHome, err
		}
		sh.productID = id
		return StateMyProduct, nil
	case 1:
		return StateRegisterProduct, nil
	case 2:
		return StateSalesHistory, nil
	}
	sh.signOut(ctx)
	return StateHome, nil
}

var myProductTargets = []State{StateUpdateProduct, StateDeleteProduct, StateSellerHome}

func myProduct(ctx context.Context, sh *Shell) (State, error) {
	p, err := sh.svc.Seller.Product(ctx, sh.productID, sh.session.SellerID)
	if err != nil {
		return StateSellerHome, err
	}
	avail, err := sh.svc.Catalog.Availability(ctx, p.ID)
	if err != nil {
		return StateSellerHome, err
	}
	RenderProduct(sh.out, p, avail)
	i, err := sh.choose(p.Name, "Update", "Delete", "Back")
	if err != nil {
		return StateSellerHome, err
	}
	return myProductTargets[i], nil
}

func registerProduct(ctx context.Context, sh *Shell) (State, error) {
	p := domain.NewProduct{SellerID: sh.session.SellerID}
	var err error
	if p.Name, err = sh.ask("Name"); err != nil {
		return StateSellerHome, err
	}
	if p.ImageLink, err = sh.ask("Image link"); err != nil {
		return StateSellerHome, err
	}
	sexes := domain.ProductSexes()
	i, err := sh.choose("Sex", "Male", "Female", "Unisex")
	if err != nil {
		return StateSellerHome, err
	}
	p.Sex = sexes[i]
	if p.Category, err = sh.ask("Category"); err != nil {
		return StateSellerHome, err
	}
	raw, err := sh.ask("Price")
	if err != nil {
		return StateSellerHome, err
	}
	if p.Price, err = validate.Money("price", raw); err != nil {
		return StateSellerHome, err
	}
	raw, err = sh.ask("Stock quantity")
	if err != nil {
		return StateSellerHome, err
	}
	if p.StockQuantity, err = strconv.Atoi(raw); err != nil {
		return StateSellerHome, domain.Invalid("stock", "must be a whole number")
	}

	id, err := sh.svc.Seller.Register(ctx, p)
	if err != nil {
		return StateSellerHome, err
	}
	sh.printf("Registered product %d.\n", id)
	return StateSellerHome, nil
}

func updateProduct(ctx context.Context, sh *Shell) (State, error) {
	fields := domain.ProductFields()
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = f.String()
	}
	i, err := sh.choose("Field to update", labels...)
	if err != nil {
		return StateMyProduct, err
	}
	raw, err := sh.ask("New " + labels[i])
	if err != nil {
		return StateMyProduct, err
	}
	if err := sh.svc.Seller.Update(ctx, sh.productID, sh.session.SellerID, fields[i], raw); err != nil {
		return StateMyProduct, err
	}
	sh.println("Updated.")
	return StateMyProduct, nil
}

func deleteProduct(ctx context.Context, sh *Shell) (State, error) {
	raw, err := sh.ask("Type yes to delete this product")
	if err != nil {
		return StateMyProduct, err
	}
	if !strings.EqualFold(raw, "yes") {
		return StateMyProduct, nil
	}
	if err := sh.svc.Seller.Delete(ctx, sh.productID, sh.session.SellerID); err != nil {
		return StateMyProduct, err
	}
	sh.productID = 0
	sh.println("Deleted.")
	return StateSellerHome, nil
}

func salesHistory(ctx context.Context, sh *Shell) (State, error) {
	rows, err := sh.svc.Seller.SalesHistory(ctx, sh.session.SellerID)
	if err != nil {
		return StateSellerHome, err
	}
	if len(rows) == 0 {
		sh.println("No sales yet.")
		return StateSellerHome, nil
	}
	RenderSales(sh.out, rows)
	return StateSellerHome, nil
}
