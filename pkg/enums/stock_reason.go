package enums

import "fmt"

// StockReason classifies why a stock transaction was recorded.
type StockReason string

const (
	StockReasonPurchase     StockReason = "purchase"
	StockReasonAdminAdd     StockReason = "admin_add"
	StockReasonAdminRemove  StockReason = "admin_remove"
	StockReasonCancellation StockReason = "cancellation"
)

var validStockReasons = []StockReason{
	StockReasonPurchase,
	StockReasonAdminAdd,
	StockReasonAdminRemove,
	StockReasonCancellation,
}

// String implements fmt.Stringer.
func (s StockReason) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockReason.
func (s StockReason) IsValid() bool {
	for _, candidate := range validStockReasons {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockReason converts raw input into a StockReason.
func ParseStockReason(value string) (StockReason, error) {
	for _, candidate := range validStockReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock reason %q", value)
}
