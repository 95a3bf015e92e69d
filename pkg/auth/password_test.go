package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("SummerTrip2026")
	require.NoError(t, err)
	assert.NotEqual(t, "SummerTrip2026", hash)

	assert.NoError(t, ComparePassword(hash, "SummerTrip2026"))
	assert.Error(t, ComparePassword(hash, "summertrip2026"))
	assert.Error(t, ComparePassword(hash, ""))
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.Error(t, err)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	a, err := HashPassword("SummerTrip2026")
	require.NoError(t, err)
	b, err := HashPassword("SummerTrip2026")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "SummerTrip2026", false},
		{"valid at minimum length", "Abcdef12", false},
		{"too short", "Abc12de", true},
		{"no uppercase", "summertrip2026", true},
		{"no lowercase", "SUMMERTRIP2026", true},
		{"no digit", "SummerTripTwo", true},
		{"empty", "", true},
		{"common password", "Passw0rd", true},
		{"too long", strings.Repeat("Aa1", 43) + "Aa1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password, 8)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword_ConfigurableMinLength(t *testing.T) {
	assert.NoError(t, ValidatePassword("Abcdefghij12", 12))
	assert.Error(t, ValidatePassword("Abcdef12", 12))

	// Zero falls back to the default minimum.
	assert.NoError(t, ValidatePassword("Abcdef12", 0))
}
