package orders

import (
	"fmt"

	"github.com/baladyapp/balady-backend/pkg/enums"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// transitions is the full set of legal status moves. Delivered and
// Cancelled are terminal.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusCreated:   {enums.OrderStatusConfirmed, enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {enums.OrderStatusDelivered, enums.OrderStatusCancelled},
	enums.OrderStatusDelivered: {},
	enums.OrderStatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// EnsureTransition returns a state conflict naming the attempted pair when
// the move is illegal.
func EnsureTransition(from, to enums.OrderStatus) error {
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", to))
	}
	if !CanTransition(from, to) {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("illegal order transition from %q to %q", from, to))
	}
	return nil
}

// CustomerCanCancel limits customer-initiated cancellation to orders that
// have not progressed past creation.
func CustomerCanCancel(status enums.OrderStatus) bool {
	return status == enums.OrderStatusCreated
}
