package errx

import (
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Business failures of the virtual shop. Callers match these with errors.Is;
// the wrapping AppError carries the user-presentable message.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrProductDisabled   = errors.New("product disabled")
	ErrShopDisabled      = errors.New("shop disabled")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// coins formats GameCoins amounts with digit grouping for user-facing messages.
var coins = message.NewPrinter(language.English)

// ProductNotFound reports that no product exists under the given id.
func ProductNotFound(productID string) *AppError {
	return New(ErrProductNotFound, http.StatusNotFound,
		fmt.Sprintf("product %s does not exist", productID))
}

// ProductDisabled reports that the product is not currently purchasable.
func ProductDisabled(name string) *AppError {
	return New(ErrProductDisabled, http.StatusConflict,
		fmt.Sprintf("product %q is not available right now", name))
}

// ShopDisabled reports that the whole storefront is switched off.
func ShopDisabled() *AppError {
	return New(ErrShopDisabled, http.StatusServiceUnavailable,
		"the shop is closed right now")
}

// InsufficientFunds reports the exact shortfall so the presentation layer can
// show the user how many GameCoins are missing.
func InsufficientFunds(price, balance int64) *AppError {
	return New(ErrInsufficientFunds, http.StatusPaymentRequired,
		coins.Sprintf("not enough GameCoins: you need %d but only have %d", price, balance))
}

// IsBusiness reports whether err is one of the expected shop failures, as
// opposed to an infrastructure problem.
func IsBusiness(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductDisabled) ||
		errors.Is(err, ErrShopDisabled) ||
		errors.Is(err, ErrInsufficientFunds)
}
