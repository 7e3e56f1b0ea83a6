// Package rules holds the pure business rules of the showroom: cash-offer
// limits, lead status escalation, engagement scoring and prioritisation.
// Nothing here touches storage and no function returns an error.
package rules

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// MaxCashDiscountPercent is the largest discount a cash offer may ask for.
const MaxCashDiscountPercent = 9.0

type CashOfferValidation struct {
	Valid           bool    `json:"valid"`
	MinAcceptable   float64 `json:"min_acceptable"`
	Discount        float64 `json:"discount"`
	DiscountPercent float64 `json:"discount_percent"`
	Message         string  `json:"message,omitempty"`
}

// ValidateCashOffer checks an offer against the default 9% ceiling.
func ValidateCashOffer(price, offered float64) CashOfferValidation {
	return ValidateCashOfferWith(price, offered, MaxCashDiscountPercent)
}

// ValidateCashOfferWith checks an offer against maxPercent. Amounts are
// compared at cent precision so an offer of exactly price*(1-max) passes.
func ValidateCashOfferWith(price, offered, maxPercent float64) CashOfferValidation {
	if price <= 0 {
		return CashOfferValidation{Message: "Harga kendaraan tidak valid"}
	}

	p := decimal.NewFromFloat(price)
	o := decimal.NewFromFloat(offered)
	maxDiscount := p.Mul(decimal.NewFromFloat(maxPercent)).Div(decimal.NewFromInt(100))
	minAcceptable := p.Sub(maxDiscount)
	discount := p.Sub(o)

	res := CashOfferValidation{
		Valid:           o.Round(2).GreaterThanOrEqual(minAcceptable.Round(2)),
		MinAcceptable:   minAcceptable.Round(0).InexactFloat64(),
		Discount:        discount.Round(0).InexactFloat64(),
		DiscountPercent: discount.Div(p).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64(),
	}

	if !res.Valid {
		res.Message = fmt.Sprintf(
			"Penawaran terlalu rendah. Harga minimum yang dapat diterima adalah %s (diskon maksimal %s%%)",
			FormatRupiah(res.MinAcceptable),
			decimal.NewFromFloat(maxPercent).String(),
		)
	}
	return res
}

// FormatRupiah renders an amount with dot thousands separators, e.g. "Rp 136.500.000".
func FormatRupiah(amount float64) string {
	return "Rp " + humanize.FormatFloat("#.###,", amount)
}

// RoundTo rounds half away from zero at the given number of decimals.
func RoundTo(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
