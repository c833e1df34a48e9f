package enums

import "fmt"

// MembershipTier is the trucker's subscription level controlling quota limits.
type MembershipTier string

const (
	TierBasic      MembershipTier = "basic"
	TierPro        MembershipTier = "pro"
	TierEnterprise MembershipTier = "enterprise"
)

var validMembershipTiers = []MembershipTier{
	TierBasic,
	TierPro,
	TierEnterprise,
}

// String implements fmt.Stringer.
func (m MembershipTier) String() string {
	return string(m)
}

// IsValid reports whether the value matches a known MembershipTier.
func (m MembershipTier) IsValid() bool {
	for _, candidate := range validMembershipTiers {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipTier converts raw input into a MembershipTier.
func ParseMembershipTier(value string) (MembershipTier, error) {
	for _, candidate := range validMembershipTiers {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership tier %q", value)
}
