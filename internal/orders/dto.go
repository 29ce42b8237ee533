package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor identifies the caller of a customer-facing order operation.
// Exactly one of the two fields is set.
type Actor struct {
	UserID  *uuid.UUID
	GuestID *uuid.UUID
}

// ItemInput is one requested order line before normalization.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// ShippingAddressInput carries an explicit shipping destination for callers
// without a saved address.
type ShippingAddressInput struct {
	FirstName string
	LastName  string
	City      string
	Region    string
	Street    string
	Phone     string
}

// PlaceOrderInput is everything the assembly transaction consumes.
type PlaceOrderInput struct {
	Actor Actor

	// Phone and Name feed the identity reconciler for guest checkouts.
	Phone *string
	Name  *string

	Items []ItemInput

	// AddressID selects a saved address owned by the authenticated user;
	// Address supplies the destination inline. Exactly one must be given.
	AddressID *uuid.UUID
	Address   *ShippingAddressInput
}

// mergeItems collapses duplicate product lines by summing quantities,
// preserving first-seen order. A client must not be able to bypass the
// per-line stock guard by splitting a product across entries.
func mergeItems(items []ItemInput) []ItemInput {
	merged := make([]ItemInput, 0, len(items))
	index := make(map[uuid.UUID]int, len(items))
	for _, item := range items {
		if at, ok := index[item.ProductID]; ok {
			merged[at].Quantity = merged[at].Quantity.Add(item.Quantity)
			continue
		}
		index[item.ProductID] = len(merged)
		merged = append(merged, item)
	}
	return merged
}
