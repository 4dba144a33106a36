package enums

import "fmt"

// LoanStatus tracks the lifecycle of one lending event.
//
// A loan is open while issued or overdue; returned and lost are terminal.
type LoanStatus string

const (
	LoanStatusIssued   LoanStatus = "issued"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusOverdue  LoanStatus = "overdue"
	LoanStatusLost     LoanStatus = "lost"
)

var validLoanStatuses = []LoanStatus{
	LoanStatusIssued,
	LoanStatusReturned,
	LoanStatusOverdue,
	LoanStatusLost,
}

// String implements fmt.Stringer.
func (l LoanStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LoanStatus.
func (l LoanStatus) IsValid() bool {
	for _, candidate := range validLoanStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// IsOpen reports whether the loan still holds its copy.
func (l LoanStatus) IsOpen() bool {
	return l == LoanStatusIssued || l == LoanStatusOverdue
}

// ParseLoanStatus converts raw input into a LoanStatus.
func ParseLoanStatus(value string) (LoanStatus, error) {
	for _, candidate := range validLoanStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid loan status %q", value)
}
