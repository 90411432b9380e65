package enums

import "fmt"

// CommissionStatus tracks the settlement state of a print job. The transition
// pending_commission -> processed is terminal and never reverts.
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending_commission"
	CommissionStatusProcessed CommissionStatus = "processed"
)

var validCommissionStatuses = []CommissionStatus{
	CommissionStatusPending,
	CommissionStatusProcessed,
}

// IsValid reports whether the value matches the canonical commission status enum.
func (s CommissionStatus) IsValid() bool {
	for _, candidate := range validCommissionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCommissionStatus converts raw input into CommissionStatus.
func ParseCommissionStatus(value string) (CommissionStatus, error) {
	for _, candidate := range validCommissionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission status %q", value)
}
