package calendar

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenBox_RoundTrip(t *testing.T) {
	box, err := NewTokenBox(bytes.Repeat([]byte{7}, 32))
	require.NoError(t, err)

	sealed, err := box.Seal("ya29.secret", "staff-1|google")
	require.NoError(t, err)
	assert.NotContains(t, string(sealed), "ya29.secret")

	plain, err := box.Open(sealed, "staff-1|google")
	require.NoError(t, err)
	assert.Equal(t, "ya29.secret", plain)

	again, err := box.Seal("ya29.secret", "staff-1|google")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again)
}

func TestTokenBox_RejectsForeignOwner(t *testing.T) {
	box, err := NewEphemeralTokenBox()
	require.NoError(t, err)

	sealed, err := box.Seal("token", "staff-1|google")
	require.NoError(t, err)

	_, err = box.Open(sealed, "staff-2|google")
	assert.Error(t, err)

	_, err = box.Open(sealed[:5], "staff-1|google")
	assert.Error(t, err)
}

func TestNewTokenBox_KeyValidation(t *testing.T) {
	_, err := NewTokenBox(nil)
	assert.ErrorIs(t, err, ErrNoKey)

	_, err = NewTokenBox([]byte("short"))
	assert.Error(t, err)
}
