package enums

import "fmt"

// LoadStatus tracks the canonical lifecycle of a posted load.
type LoadStatus string

const (
	LoadStatusPosted     LoadStatus = "posted"
	LoadStatusInProgress LoadStatus = "in_progress"
	LoadStatusCompleted  LoadStatus = "completed"
	LoadStatusCancelled  LoadStatus = "cancelled"
)

var validLoadStatuses = []LoadStatus{
	LoadStatusPosted,
	LoadStatusInProgress,
	LoadStatusCompleted,
	LoadStatusCancelled,
}

// Legacy dashboard labels that map onto the canonical states.
var loadStatusSynonyms = map[string]LoadStatus{
	"available": LoadStatusPosted,
	"assigned":  LoadStatusInProgress,
}

// String implements fmt.Stringer.
func (l LoadStatus) String() string {
	return string(l)
}

// IsValid reports whether the value matches a known LoadStatus.
func (l LoadStatus) IsValid() bool {
	for _, candidate := range validLoadStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the load can no longer change state.
func (l LoadStatus) IsTerminal() bool {
	return l == LoadStatusCompleted || l == LoadStatusCancelled
}

// ParseLoadStatus converts raw input into a LoadStatus, accepting UI synonyms.
func ParseLoadStatus(value string) (LoadStatus, error) {
	if mapped, ok := loadStatusSynonyms[value]; ok {
		return mapped, nil
	}
	for _, candidate := range validLoadStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid load status %q", value)
}
