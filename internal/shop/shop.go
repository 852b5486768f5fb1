// Package shop implements the virtual storefront: catalog management and the
// purchase transaction over the shared document.
package shop

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	errx "github.com/shopbot-core/server/internal/core/error"
	"github.com/shopbot-core/server/internal/economy"
	"github.com/shopbot-core/server/internal/model"
	"github.com/shopbot-core/server/internal/store"
	logx "github.com/shopbot-core/server/pkg/logger"
)

// VirtualShop owns the product catalog and the purchase ledger.
//
// Every mutation goes through store.Update, which holds the document's write
// lock across the whole read-modify-write. The lock belongs to the store, so
// the shop, the economy ledger and the rate cache all share it and cannot
// erase each other's writes (the source system had exactly that lost-update
// race between concurrent purchases).
type VirtualShop struct {
	store store.Store
	log   zerolog.Logger
}

func New(s store.Store) *VirtualShop {
	return &VirtualShop{store: s, log: logx.Component("shop")}
}

// AddProductInput carries the admin-supplied fields for a new product.
// Optional fields may stay zero: a product without RoleID grants no role,
// one without DurationDays is permanent.
type AddProductInput struct {
	Name         string
	Price        int64
	Description  string
	Category     model.Category
	ImageURL     string
	RoleID       string
	DurationDays int
}

// ProductEdit is a partial update. Nil fields are left untouched; only the
// whitelisted fields below can change at all.
type ProductEdit struct {
	Name         *string
	Price        *int64
	Description  *string
	Category     *model.Category
	ImageURL     *string
	RoleID       *string
	DurationDays *int
	Enabled      *bool
}

// Receipt is the successful outcome of Buy: the new purchase id plus a
// snapshot of the product as it was sold.
type Receipt struct {
	PurchaseID string
	Product    model.Product
}

// Stats summarises the storefront for admin display.
type Stats struct {
	TotalProducts   int
	EnabledProducts int
	ActivePurchases int
	TotalRevenue    int64
}

// Catalog returns every product keyed by id. Legacy-shaped storage repaired
// while loading is persisted back once.
func (s *VirtualShop) Catalog(ctx context.Context) (map[string]model.Product, error) {
	var products map[string]model.Product
	var repaired bool

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		state := doc.Shop()
		repaired = state.Migrated

		products = make(map[string]model.Product, len(state.Products))
		for id, p := range state.Products {
			products[id] = *p
		}
		return repaired, nil
	})
	if err != nil {
		return nil, err
	}
	if repaired {
		s.log.Warn().Msg("repaired legacy shop data shape")
	}
	return products, nil
}

// AddProduct stores a new product and returns its generated id.
func (s *VirtualShop) AddProduct(ctx context.Context, in AddProductInput) (string, error) {
	product := &model.Product{
		ID:           uuid.NewString(),
		Name:         in.Name,
		Price:        in.Price,
		Description:  in.Description,
		Category:     model.NormalizeCategory(in.Category),
		ImageURL:     in.ImageURL,
		RoleID:       in.RoleID,
		DurationDays: in.DurationDays,
		CreatedAt:    time.Now().UTC(),
		Enabled:      true,
	}

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		doc.Shop().Products[product.ID] = product
		return true, nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info().Str("product_id", product.ID).Str("name", product.Name).
		Int64("price", product.Price).Msg("product added")
	return product.ID, nil
}

// EditProduct applies the non-nil fields of edit to an existing product.
// It reports false, without error, when the product does not exist.
func (s *VirtualShop) EditProduct(ctx context.Context, productID string, edit ProductEdit) (bool, error) {
	found := false

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		product, ok := doc.Shop().Products[productID]
		if !ok {
			return false, nil
		}
		found = true

		if edit.Name != nil {
			product.Name = *edit.Name
		}
		if edit.Price != nil {
			product.Price = *edit.Price
		}
		if edit.Description != nil {
			product.Description = *edit.Description
		}
		if edit.Category != nil {
			product.Category = model.NormalizeCategory(*edit.Category)
		}
		if edit.ImageURL != nil {
			product.ImageURL = *edit.ImageURL
		}
		if edit.RoleID != nil {
			product.RoleID = *edit.RoleID
		}
		if edit.DurationDays != nil {
			product.DurationDays = *edit.DurationDays
		}
		if edit.Enabled != nil {
			product.Enabled = *edit.Enabled
		}
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if found {
		s.log.Info().Str("product_id", productID).Msg("product edited")
	}
	return found, nil
}

// RemoveProduct deletes a product permanently. Purchase records referencing
// it keep their denormalised name and price snapshots.
func (s *VirtualShop) RemoveProduct(ctx context.Context, productID string) (bool, error) {
	found := false

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		state := doc.Shop()
		if _, ok := state.Products[productID]; !ok {
			return false, nil
		}
		found = true
		delete(state.Products, productID)
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if found {
		s.log.Info().Str("product_id", productID).Msg("product removed")
	}
	return found, nil
}

// Buy runs the purchase transaction for one product. The debit happens only
// after every validation passes, and the debit, the purchase record and the
// purchase counter all persist in the same wholesale save.
func (s *VirtualShop) Buy(ctx context.Context, userID, productID string) (*Receipt, error) {
	var receipt *Receipt

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		state := doc.Shop()

		if !state.Settings.Enabled {
			return false, errx.ShopDisabled()
		}
		product, ok := state.Products[productID]
		if !ok {
			return false, errx.ProductNotFound(productID)
		}
		if !product.Enabled {
			return false, errx.ProductDisabled(product.Name)
		}

		balance := economy.BalanceOf(doc, userID)
		if balance < product.Price {
			return false, errx.InsufficientFunds(product.Price, balance)
		}

		if err := economy.Debit(doc, userID, product.Price); err != nil {
			// Balance changed between check and debit is impossible under
			// the store's write lock; treat it as an internal failure.
			return false, errx.New(err, http.StatusInternalServerError, errx.SystemErrorMessage)
		}

		purchase := &model.Purchase{
			ID:          uuid.NewString(),
			UserID:      userID,
			ProductID:   productID,
			ProductName: product.Name,
			PricePaid:   product.Price,
			PurchasedAt: time.Now().UTC(),
			Active:      true,
		}
		state.Purchases[purchase.ID] = purchase
		product.PurchasesCount++

		receipt = &Receipt{PurchaseID: purchase.ID, Product: *product}
		return true, nil
	})
	if err != nil {
		if !errx.IsBusiness(err) {
			s.log.Error().Err(err).Str("user_id", userID).Str("product_id", productID).
				Msg("purchase failed to persist, no coins were spent")
		}
		return nil, err
	}

	s.log.Info().Str("user_id", userID).Str("product_id", productID).
		Str("purchase_id", receipt.PurchaseID).Int64("price_paid", receipt.Product.Price).
		Msg("purchase completed")
	return receipt, nil
}

// UserPurchases returns the user's active purchases, newest first.
func (s *VirtualShop) UserPurchases(ctx context.Context, userID string) ([]model.Purchase, error) {
	var purchases []model.Purchase
	var repaired bool

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		state := doc.Shop()
		repaired = state.Migrated

		for _, p := range state.Purchases {
			if p.UserID == userID && p.Active {
				purchases = append(purchases, *p)
			}
		}
		return repaired, nil
	})
	if err != nil {
		return nil, err
	}
	if repaired {
		s.log.Warn().Msg("repaired legacy shop data shape")
	}

	sortPurchasesNewestFirst(purchases)
	return purchases, nil
}

// DeactivatePurchase flips a purchase to inactive, used when a time-limited
// product expires. Expiry scheduling lives outside the core.
func (s *VirtualShop) DeactivatePurchase(ctx context.Context, purchaseID string) (bool, error) {
	found := false

	err := s.store.Update(ctx, func(doc *model.Document) (bool, error) {
		purchase, ok := doc.Shop().Purchases[purchaseID]
		if !ok {
			return false, nil
		}
		found = true
		purchase.Active = false
		return true, nil
	})
	if err != nil {
		return false, err
	}

	if found {
		s.log.Info().Str("purchase_id", purchaseID).Msg("purchase deactivated")
	}
	return found, nil
}

// ProductsByCategory groups enabled products under the fixed category set.
// Products with an unknown category land in "other".
func (s *VirtualShop) ProductsByCategory(ctx context.Context) (map[model.Category][]model.Product, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make(map[model.Category][]model.Product, len(model.Categories))
	for category := range model.Categories {
		grouped[category] = nil
	}
	for _, p := range catalog {
		if !p.Enabled {
			continue
		}
		category := model.NormalizeCategory(p.Category)
		grouped[category] = append(grouped[category], p)
	}
	for category := range grouped {
		sortProductsOldestFirst(grouped[category])
	}
	return grouped, nil
}

// Stats aggregates the storefront. Revenue counts active purchases only.
func (s *VirtualShop) Stats(ctx context.Context) (Stats, error) {
	doc, err := s.store.Load(ctx)
	if err != nil {
		return Stats{}, err
	}
	state := doc.Shop()

	var st Stats
	st.TotalProducts = len(state.Products)
	for _, p := range state.Products {
		if p.Enabled {
			st.EnabledProducts++
		}
	}
	for _, p := range state.Purchases {
		if p.Active {
			st.ActivePurchases++
			st.TotalRevenue += p.PricePaid
		}
	}
	return st, nil
}
