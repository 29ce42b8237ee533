package enums

import "fmt"

// SaleType describes how a product is measured when sold.
type SaleType string

const (
	SaleTypeKg    SaleType = "kg"
	SaleTypePiece SaleType = "piece"
)

var validSaleTypes = []SaleType{
	SaleTypeKg,
	SaleTypePiece,
}

// String implements fmt.Stringer.
func (s SaleType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleType.
func (s SaleType) IsValid() bool {
	for _, candidate := range validSaleTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleType converts raw input into a SaleType.
func ParseSaleType(value string) (SaleType, error) {
	for _, candidate := range validSaleTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale type %q", value)
}
