package enums

import "fmt"

// MembershipType classifies a member's subscription tier.
type MembershipType string

const (
	MembershipTypeStandard MembershipType = "standard"
	MembershipTypePremium  MembershipType = "premium"
	MembershipTypeStudent  MembershipType = "student"
	MembershipTypeSenior   MembershipType = "senior"
)

var validMembershipTypes = []MembershipType{
	MembershipTypeStandard,
	MembershipTypePremium,
	MembershipTypeStudent,
	MembershipTypeSenior,
}

// String implements fmt.Stringer.
func (m MembershipType) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipType.
func (m MembershipType) IsValid() bool {
	for _, candidate := range validMembershipTypes {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMembershipType converts raw input into a MembershipType.
func ParseMembershipType(value string) (MembershipType, error) {
	for _, candidate := range validMembershipTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership type %q", value)
}
