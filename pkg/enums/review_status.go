package enums

import "fmt"

// ReviewStatus tracks moderation of a product review.
type ReviewStatus string

const (
	ReviewStatusPending  ReviewStatus = "pending"
	ReviewStatusApproved ReviewStatus = "approved"
	ReviewStatusHidden   ReviewStatus = "hidden"
)

var validReviewStatuses = []ReviewStatus{
	ReviewStatusPending,
	ReviewStatusApproved,
	ReviewStatusHidden,
}

// String implements fmt.Stringer.
func (r ReviewStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReviewStatus.
func (r ReviewStatus) IsValid() bool {
	for _, candidate := range validReviewStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseReviewStatus converts raw input into a ReviewStatus.
func ParseReviewStatus(value string) (ReviewStatus, error) {
	for _, candidate := range validReviewStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid review status %q", value)
}
