package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "", want: RoleYou},
		{in: "you", want: RoleYou},
		{in: "her", want: RoleHer},
		{in: "Her", wantErr: true},
		{in: "them", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, ErrInvalidPIN, ErrUnauthorized)
	assert.ErrorIs(t, ErrInvalidCurrentPIN, ErrUnauthorized)
	assert.ErrorIs(t, ErrMalformedPIN, ErrInvalidArgument)
	assert.ErrorIs(t, ErrInvalidLabel, ErrInvalidArgument)
	assert.ErrorIs(t, ErrPINInUse, ErrConflict)
	assert.ErrorIs(t, ErrEntryNotFound, ErrNotFound)
	assert.NotErrorIs(t, ErrEntryNotFound, ErrUnauthorized)

	wrapped := fmt.Errorf("delete: %w", ErrEntryNotFound)
	assert.ErrorIs(t, wrapped, ErrNotFound)

	var e *Error
	require.True(t, errors.As(wrapped, &e))
	assert.Equal(t, "Entry not found", e.Error())
}
