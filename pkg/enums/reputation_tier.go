package enums

import "fmt"

// ReputationTier is the coarse trust label derived from dealer reviews.
type ReputationTier string

const (
	ReputationTierBronze  ReputationTier = "bronze"
	ReputationTierSilver  ReputationTier = "silver"
	ReputationTierGold    ReputationTier = "gold"
	ReputationTierDiamond ReputationTier = "diamond"
)

// ordered lowest to highest.
var validReputationTiers = []ReputationTier{
	ReputationTierBronze,
	ReputationTierSilver,
	ReputationTierGold,
	ReputationTierDiamond,
}

// String implements fmt.Stringer.
func (t ReputationTier) String() string {
	return string(t)
}

// IsValid reports whether the value is a known ReputationTier.
func (t ReputationTier) IsValid() bool {
	return t.Rank() >= 0
}

// Rank orders tiers from bronze (0) to diamond (3); unknown values are -1.
func (t ReputationTier) Rank() int {
	for i, candidate := range validReputationTiers {
		if candidate == t {
			return i
		}
	}
	return -1
}

// ParseReputationTier converts raw input into a ReputationTier.
func ParseReputationTier(value string) (ReputationTier, error) {
	for _, candidate := range validReputationTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid reputation tier %q", value)
}
