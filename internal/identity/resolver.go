// Package identity resolves which buyer an in-flight checkout belongs to
// and re-owns guest history when a phone number gets verified.
package identity

import (
	"github.com/google/uuid"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

// Request carries the caller identity attached to a checkout. Exactly one
// of UserID and GuestID must be set.
type Request struct {
	UserID  *uuid.UUID
	GuestID *uuid.UUID
	Phone   *string
	Name    *string
}

// Matches holds the phone lookups the resolver decides on. Either field may
// be nil when no record carries the phone.
type Matches struct {
	// VerifiedUser is a registered user whose phone is verified.
	VerifiedUser *models.User
	// OtherGuest is a guest record other than the session's own guest
	// already carrying the phone.
	OtherGuest *models.Guest
}

// MutationKind names a side effect the resolver requires.
type MutationKind string

const (
	// MutationUpdateGuestContact refreshes the session guest's phone/name.
	MutationUpdateGuestContact MutationKind = "update_guest_contact"
	// MutationBackfillGuestName fills a missing name on the adopted guest.
	MutationBackfillGuestName MutationKind = "backfill_guest_name"
)

// Mutation is a persistence side effect the caller must apply inside the
// checkout transaction.
type Mutation struct {
	Kind    MutationKind
	GuestID uuid.UUID
	Phone   *string
	Name    *string
}

// Resolution is the final owner pair for the order row. Exactly one field
// is non-nil.
type Resolution struct {
	UserID  *uuid.UUID
	GuestID *uuid.UUID
}

// Resolve decides order ownership from the request and the phone matches.
// It performs no I/O; returned mutations must be applied in the same
// transaction that creates the order.
func Resolve(req Request, matches Matches) (Resolution, []Mutation, error) {
	if (req.UserID == nil) == (req.GuestID == nil) {
		return Resolution{}, nil, pkgerrors.New(pkgerrors.CodeValidation,
			"checkout requires exactly one of user or guest identity")
	}

	if req.UserID != nil {
		return Resolution{UserID: req.UserID}, nil, nil
	}

	sessionGuest := *req.GuestID
	if req.Phone == nil {
		return Resolution{GuestID: req.GuestID}, nil, nil
	}

	mutations := []Mutation{{
		Kind:    MutationUpdateGuestContact,
		GuestID: sessionGuest,
		Phone:   req.Phone,
		Name:    req.Name,
	}}

	// A returning registered customer checking out without logging in.
	if matches.VerifiedUser != nil {
		userID := matches.VerifiedUser.ID
		return Resolution{UserID: &userID}, mutations, nil
	}

	// Same shopper on another device or session.
	if matches.OtherGuest != nil && matches.OtherGuest.ID != sessionGuest {
		adopted := matches.OtherGuest.ID
		if matches.OtherGuest.Name == nil && req.Name != nil {
			mutations = append(mutations, Mutation{
				Kind:    MutationBackfillGuestName,
				GuestID: adopted,
				Name:    req.Name,
			})
		}
		return Resolution{GuestID: &adopted}, mutations, nil
	}

	return Resolution{GuestID: &sessionGuest}, mutations, nil
}
