package reputation

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/partsdealer-backend/pkg/enums"
)

var (
	ratingThree     = decimal.NewFromInt(3)
	ratingThreeHalf = decimal.RequireFromString("3.5")
	ratingFour      = decimal.NewFromInt(4)
	ratingFourHalf  = decimal.RequireFromString("4.5")
)

// Tier maps a dealer's average rating and review count to a reputation tier.
// Rules are checked from the bottom guard up to diamond and then down, so a
// dealer matching several bands gets the highest one.
func Tier(average decimal.Decimal, count int) enums.ReputationTier {
	switch {
	case count < 5 || average.LessThan(ratingThree):
		return enums.ReputationTierBronze
	case count >= 30 && average.GreaterThanOrEqual(ratingFourHalf):
		return enums.ReputationTierDiamond
	case count >= 15 && between(average, ratingFour, ratingFourHalf),
		count >= 30 && between(average, ratingThreeHalf, ratingFourHalf),
		count < 30 && average.GreaterThanOrEqual(ratingFourHalf):
		return enums.ReputationTierGold
	case between(average, ratingThree, ratingFour),
		count < 15 && average.GreaterThanOrEqual(ratingFour):
		return enums.ReputationTierSilver
	}
	return enums.ReputationTierBronze
}

// between reports lo <= v < hi.
func between(v, lo, hi decimal.Decimal) bool {
	return v.GreaterThanOrEqual(lo) && v.LessThan(hi)
}

// Average returns sum/count rounded to two places; zero reviews average zero.
func Average(sum, count int64) decimal.Decimal {
	if count <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)).Round(2)
}

// TierFor grades a dealer from raw review totals. Band edges are compared
// against the unrounded sum/count, not the two-place Average that is stored.
func TierFor(sum, count int64) enums.ReputationTier {
	if count <= 0 {
		return Tier(decimal.Zero, 0)
	}
	return Tier(decimal.NewFromInt(sum).Div(decimal.NewFromInt(count)), int(count))
}
