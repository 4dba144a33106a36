package enums

import "fmt"

// MemberStatus gates whether a member may borrow copies.
//
// The capitalized spellings match the values the legacy schema stored.
type MemberStatus string

const (
	MemberStatusActive    MemberStatus = "Active"
	MemberStatusInactive  MemberStatus = "Inactive"
	MemberStatusSuspended MemberStatus = "Suspended"
)

var validMemberStatuses = []MemberStatus{
	MemberStatusActive,
	MemberStatusInactive,
	MemberStatusSuspended,
}

// String implements fmt.Stringer.
func (m MemberStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MemberStatus.
func (m MemberStatus) IsValid() bool {
	for _, candidate := range validMemberStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMemberStatus converts raw input into a MemberStatus.
func ParseMemberStatus(value string) (MemberStatus, error) {
	for _, candidate := range validMemberStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid member status %q", value)
}
