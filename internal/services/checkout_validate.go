package services

import (
	"github.com/JulianaCelis/hatsusound-backend/internal/api/validate"
	"github.com/JulianaCelis/hatsusound-backend/internal/models"
)

// MinCheckoutAmount is the smallest accepted amount, in minor units.
const MinCheckoutAmount int64 = 1000

// ValidationError is a checkout request rejected before any I/O.
type ValidationError struct {
	Code   string
	Fields validate.Errs
}

func (e *ValidationError) Error() string {
	return "checkout validation failed (" + e.Code + "): " + e.Fields.Error()
}

type checkoutRule struct {
	code  string
	price bool // amount and currency rules
	check func() validate.Errs
}

func checkoutRules(req CheckoutRequest) []checkoutRule {
	return []checkoutRule{
		{code: CodeInvalidAmount, price: true, check: func() validate.Errs {
			var errs validate.Errs
			errs.Add(validate.MinInt("amount", req.Amount, MinCheckoutAmount))
			return errs
		}},
		{code: CodeInvalidCurrency, price: true, check: func() validate.Errs {
			var errs validate.Errs
			if !models.Currency(req.Currency).Supported() {
				errs.Add(validate.OneOf("currency", req.Currency, currencyNames()...))
			}
			return errs
		}},
		{code: CodeInvalidEmail, check: func() validate.Errs {
			var errs validate.Errs
			if f := validate.Required("customerEmail", req.CustomerEmail); f != nil {
				errs.Add(f)
			} else {
				errs.Add(validate.Email("customerEmail", req.CustomerEmail))
			}
			return errs
		}},
		{code: CodeInvalidProductData, check: func() validate.Errs {
			var errs validate.Errs
			errs.Add(validate.Required("productId", req.ProductID))
			errs.Add(validate.Required("productName", req.ProductName))
			errs.Add(validate.Required("productCategory", req.ProductCategory))
			return errs
		}},
	}
}

// ValidateCheckout applies the rules in order; the first failing rule decides
// the code.
func ValidateCheckout(req CheckoutRequest) error {
	for _, r := range checkoutRules(req) {
		if errs := r.check(); len(errs) > 0 {
			return &ValidationError{Code: r.code, Fields: errs}
		}
	}
	return nil
}

// ValidateBeforeCatalog runs the rules that precede the product data rule on
// a request whose product data will come from the catalog. When the client
// sent neither amount nor currency the price comes from the catalog too, so
// those rules wait for ValidateCheckout.
func ValidateBeforeCatalog(req CheckoutRequest) error {
	priceFromCatalog := req.Amount == 0 && req.Currency == ""
	for _, r := range checkoutRules(req) {
		if r.code == CodeInvalidProductData {
			break
		}
		if r.price && priceFromCatalog {
			continue
		}
		if errs := r.check(); len(errs) > 0 {
			return &ValidationError{Code: r.code, Fields: errs}
		}
	}
	return nil
}

func currencyNames() []string {
	out := make([]string, len(models.SupportedCurrencies))
	for i, c := range models.SupportedCurrencies {
		out[i] = string(c)
	}
	return out
}
