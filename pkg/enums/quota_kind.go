package enums

import "fmt"

// QuotaKind names a membership-tier ceiling checked before a bid action.
type QuotaKind string

const (
	QuotaBidsPerMonth QuotaKind = "bids_per_month"
	QuotaActiveLoads  QuotaKind = "active_loads"
)

var validQuotaKinds = []QuotaKind{
	QuotaBidsPerMonth,
	QuotaActiveLoads,
}

// String implements fmt.Stringer.
func (q QuotaKind) String() string {
	return string(q)
}

// IsValid reports whether the value matches a known QuotaKind.
func (q QuotaKind) IsValid() bool {
	for _, candidate := range validQuotaKinds {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuotaKind converts raw input into a QuotaKind.
func ParseQuotaKind(value string) (QuotaKind, error) {
	for _, candidate := range validQuotaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quota kind %q", value)
}
