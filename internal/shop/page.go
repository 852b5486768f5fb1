package shop

import (
	"sort"

	"github.com/shopbot-core/server/internal/model"
)

// PageProducts slices a product list into pages of perPage entries. The page
// index is clamped into range and there is always at least one page, so the
// presentation layer can render "page 1/1" for an empty catalog.
func PageProducts(products []model.Product, page, perPage int) ([]model.Product, int) {
	if perPage <= 0 {
		perPage = 5
	}
	totalPages := (len(products) + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page < 0 {
		page = 0
	}
	if page > totalPages-1 {
		page = totalPages - 1
	}

	start := page * perPage
	if start >= len(products) {
		return nil, totalPages
	}
	end := start + perPage
	if end > len(products) {
		end = len(products)
	}
	return products[start:end], totalPages
}

func sortProductsOldestFirst(products []model.Product) {
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.Before(products[j].CreatedAt)
	})
}

func sortPurchasesNewestFirst(purchases []model.Purchase) {
	sort.Slice(purchases, func(i, j int) bool {
		return purchases[i].PurchasedAt.After(purchases[j].PurchasedAt)
	})
}
