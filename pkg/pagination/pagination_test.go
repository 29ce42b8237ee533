package pagination_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baladyapp/balady-backend/pkg/pagination"
)

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(0))
	assert.Equal(t, pagination.DefaultLimit, pagination.NormalizeLimit(-3))
	assert.Equal(t, 40, pagination.NormalizeLimit(40))
	assert.Equal(t, pagination.MaxLimit, pagination.NormalizeLimit(5000))
	assert.Equal(t, 41, pagination.LimitWithBuffer(40))
}

func TestEncodeParseCursorRoundTrip(t *testing.T) {
	original := pagination.Cursor{
		CreatedAt: time.Date(2025, 8, 12, 10, 30, 0, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	encoded := pagination.EncodeCursor(original)
	parsed, err := pagination.ParseCursor(encoded)
	require.NoError(t, err)
	require.NotNil(t, parsed)
	assert.True(t, original.CreatedAt.Equal(parsed.CreatedAt))
	assert.Equal(t, original.ID, parsed.ID)
}

func TestParseCursorEmptyAndInvalid(t *testing.T) {
	parsed, err := pagination.ParseCursor("   ")
	require.NoError(t, err)
	assert.Nil(t, parsed)

	_, err = pagination.ParseCursor("not-base64!!")
	assert.Error(t, err)

	_, err = pagination.ParseCursor("bm8tcGlwZS1oZXJl")
	assert.Error(t, err)
}
