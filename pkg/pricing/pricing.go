package pricing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partsdealer-backend/pkg/config"
	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

// Totals is the priced breakdown of an order in minor units.
type Totals struct {
	SubtotalCents    int64  `json:"subtotal_cents"`
	ShippingFeeCents int64  `json:"shipping_fee_cents"`
	TaxCents         int64  `json:"tax_cents"`
	DiscountCents    int64  `json:"discount_cents"`
	TotalCents       int64  `json:"total_cents"`
	Currency         string `json:"currency"`
}

// Calculator prices checkouts from configured tax and shipping tables.
type Calculator struct {
	taxRate  decimal.Decimal
	currency string
	shipping map[enums.ShippingMethod]int64
}

func NewCalculator(cfg config.PricingConfig) *Calculator {
	currency := strings.ToUpper(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = "USD"
	}
	return &Calculator{
		taxRate:  cfg.TaxRateDecimal(),
		currency: currency,
		shipping: map[enums.ShippingMethod]int64{
			enums.ShippingMethodStandard: cfg.ShippingStandardCents,
			enums.ShippingMethodExpress:  cfg.ShippingExpressCents,
			enums.ShippingMethodPickup:   cfg.ShippingPickupCents,
		},
	}
}

func (c *Calculator) Currency() string {
	return c.currency
}

// ShippingFee returns the configured flat fee for method.
func (c *Calculator) ShippingFee(method enums.ShippingMethod) (int64, error) {
	fee, ok := c.shipping[method]
	if !ok {
		return 0, fmt.Errorf("no shipping fee configured for %q", method)
	}
	return fee, nil
}

// Tax rounds taxable*rate to the nearest cent, half away from zero.
func (c *Calculator) Tax(taxableCents int64) int64 {
	if taxableCents <= 0 {
		return 0
	}
	return decimal.NewFromInt(taxableCents).Mul(c.taxRate).Round(0).IntPart()
}

// Price computes order totals. The discount is a promo applied before the
// order exists; it reduces the taxable amount and is capped at the subtotal.
func (c *Calculator) Price(subtotalCents int64, method enums.ShippingMethod, discountCents int64) (Totals, error) {
	if subtotalCents < 0 {
		return Totals{}, fmt.Errorf("subtotal must be non-negative")
	}
	if discountCents < 0 {
		return Totals{}, fmt.Errorf("discount must be non-negative")
	}
	if discountCents > subtotalCents {
		discountCents = subtotalCents
	}
	shipping, err := c.ShippingFee(method)
	if err != nil {
		return Totals{}, err
	}
	tax := c.Tax(subtotalCents - discountCents)
	return Totals{
		SubtotalCents:    subtotalCents,
		ShippingFeeCents: shipping,
		TaxCents:         tax,
		DiscountCents:    discountCents,
		TotalCents:       subtotalCents + shipping + tax - discountCents,
		Currency:         c.currency,
	}, nil
}

// FormatCents renders minor units as a fixed two-decimal amount ("51.35").
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}
