package identity

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladyapp/balady-backend/pkg/db/models"
	pkgerrors "github.com/baladyapp/balady-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func TestResolveRejectsAmbiguousIdentity(t *testing.T) {
	userID := uuid.New()
	guestID := uuid.New()

	_, _, err := Resolve(Request{UserID: &userID, GuestID: &guestID}, Matches{})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())

	_, _, err = Resolve(Request{}, Matches{})
	require.Error(t, err)
}

func TestResolveRegisteredUserPassesThrough(t *testing.T) {
	userID := uuid.New()

	res, mutations, err := Resolve(Request{UserID: &userID, Phone: strPtr("0599000001")}, Matches{})
	require.NoError(t, err)
	require.NotNil(t, res.UserID)
	assert.Equal(t, userID, *res.UserID)
	assert.Nil(t, res.GuestID)
	assert.Empty(t, mutations)
}

func TestResolveGuestWithoutPhoneKeepsGuest(t *testing.T) {
	guestID := uuid.New()

	res, mutations, err := Resolve(Request{GuestID: &guestID}, Matches{})
	require.NoError(t, err)
	require.NotNil(t, res.GuestID)
	assert.Equal(t, guestID, *res.GuestID)
	assert.Empty(t, mutations)
}

func TestResolveGuestSwitchesToVerifiedUser(t *testing.T) {
	guestID := uuid.New()
	user := &models.User{ID: uuid.New(), Phone: "0599000001", PhoneVerified: true}

	res, mutations, err := Resolve(
		Request{GuestID: &guestID, Phone: strPtr("0599000001"), Name: strPtr("Huda")},
		Matches{VerifiedUser: user},
	)
	require.NoError(t, err)
	require.NotNil(t, res.UserID)
	assert.Equal(t, user.ID, *res.UserID)
	assert.Nil(t, res.GuestID)

	// the session guest still gets its contact refreshed
	require.Len(t, mutations, 1)
	assert.Equal(t, MutationUpdateGuestContact, mutations[0].Kind)
	assert.Equal(t, guestID, mutations[0].GuestID)
}

func TestResolveGuestAdoptsOtherGuestWithSamePhone(t *testing.T) {
	guestID := uuid.New()
	other := &models.Guest{ID: uuid.New(), Phone: strPtr("0599000001")}

	res, mutations, err := Resolve(
		Request{GuestID: &guestID, Phone: strPtr("0599000001"), Name: strPtr("Huda")},
		Matches{OtherGuest: other},
	)
	require.NoError(t, err)
	require.NotNil(t, res.GuestID)
	assert.Equal(t, other.ID, *res.GuestID)

	require.Len(t, mutations, 2)
	assert.Equal(t, MutationUpdateGuestContact, mutations[0].Kind)
	assert.Equal(t, MutationBackfillGuestName, mutations[1].Kind)
	assert.Equal(t, other.ID, mutations[1].GuestID)
}

func TestResolveGuestAdoptionSkipsBackfillWhenNamed(t *testing.T) {
	guestID := uuid.New()
	other := &models.Guest{ID: uuid.New(), Phone: strPtr("0599000001"), Name: strPtr("Huda")}

	res, mutations, err := Resolve(
		Request{GuestID: &guestID, Phone: strPtr("0599000001"), Name: strPtr("Huda")},
		Matches{OtherGuest: other},
	)
	require.NoError(t, err)
	assert.Equal(t, other.ID, *res.GuestID)
	require.Len(t, mutations, 1)
	assert.Equal(t, MutationUpdateGuestContact, mutations[0].Kind)
}

func TestResolveGuestKeepsOwnIdentityWhenNoMatches(t *testing.T) {
	guestID := uuid.New()

	res, mutations, err := Resolve(
		Request{GuestID: &guestID, Phone: strPtr("0599000002")},
		Matches{},
	)
	require.NoError(t, err)
	require.NotNil(t, res.GuestID)
	assert.Equal(t, guestID, *res.GuestID)
	require.Len(t, mutations, 1)
	assert.Equal(t, MutationUpdateGuestContact, mutations[0].Kind)
}

// VerifiedUser wins over OtherGuest when both carry the phone.
func TestResolvePrefersVerifiedUserOverGuest(t *testing.T) {
	guestID := uuid.New()
	user := &models.User{ID: uuid.New(), Phone: "0599000001", PhoneVerified: true}
	other := &models.Guest{ID: uuid.New(), Phone: strPtr("0599000001")}

	res, _, err := Resolve(
		Request{GuestID: &guestID, Phone: strPtr("0599000001")},
		Matches{VerifiedUser: user, OtherGuest: other},
	)
	require.NoError(t, err)
	require.NotNil(t, res.UserID)
	assert.Equal(t, user.ID, *res.UserID)
}
