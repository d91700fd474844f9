package upi

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name     string
		id       string
		valid    bool
		err      string
		warnings int
	}{
		{"known provider", "john@okhdfcbank", true, "", 0},
		{"wallet", "smith@paytm", true, "", 0},
		{"bank pattern", "asha.r@wasomebank", true, "", 0},
		{"literal upi", "user_1@upi", true, "", 0},
		{"provider case insensitive", "user-1@YBL", true, "", 0},
		{"unknown provider warns", "john@freecharge", true, "", 1},
		{"unlisted handle okbob warns", "john@okbob", true, "", 1},
		{"unlisted handle phonepe warns", "john@phonepe", true, "", 1},
		{"unlisted handle kotak warns", "john@kotak", true, "", 1},
		{"unlisted handle citi warns", "john@citi", true, "", 1},
		{"no at", "johnokhdfc", false, ErrMissingAt, 0},
		{"empty", "", false, ErrMissingAt, 0},
		{"two at", "jo@hn@ybl", false, ErrInvalidFormat, 0},
		{"empty username", "@ybl", false, "Username cannot be empty", 0},
		{"short username", "ab@ybl", false, "Username must be at least 3 characters", 0},
		{"leading dot", ".john@ybl", false, "Username cannot start or end with dot", 0},
		{"trailing dot", "john.@ybl", false, "Username cannot start or end with dot", 0},
		{"double dot", "jo..hn@ybl", false, "Username cannot contain consecutive dots", 0},
		{"bad chars", "jo hn@ybl", false, "Username can only contain letters, numbers, dots, underscores, hyphens", 0},
		{"empty provider", "john@", false, "Provider cannot be empty", 0},
		{"short provider", "john@y", false, "Provider name too short", 0},
		{"garbage provider", "john@y b!", false, "Invalid provider", 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.id)
			assert.Equal(t, tc.valid, res.Valid)
			assert.Equal(t, tc.err, res.Error)
			assert.Len(t, res.Warnings, tc.warnings)
		})
	}
}

func TestValidate_NoAtAlwaysSameMessage(t *testing.T) {
	for _, id := range []string{"a", "plainusername", "1234567890", "x.y.z", "-"} {
		res := Validate(id)
		require.False(t, res.Valid, id)
		assert.Equal(t, ErrMissingAt, res.Error, id)
	}
}

func TestValidateUsername_AcceptsAllowedShapes(t *testing.T) {
	good := []string{
		"abc",
		"A_b-9",
		"first.last",
		"a.b.c.d",
		strings.Repeat("x", MaxUsernameLength),
	}
	for _, u := range good {
		assert.Empty(t, ValidateUsername(u), u)
		// el provider no cambia el veredicto del username
		for _, p := range []string{"ybl", "unknownpsp", "upi"} {
			assert.True(t, Validate(u+"@"+p).Valid, u+"@"+p)
		}
	}

	assert.NotEmpty(t, ValidateUsername(strings.Repeat("x", MaxUsernameLength+1)))
}

func TestMaxIDLength_FitsLongestValidID(t *testing.T) {
	id := strings.Repeat("x", MaxUsernameLength) + "@okhdfcbank"
	require.True(t, Validate(id).Valid)
	assert.LessOrEqual(t, len(id), MaxIDLength)
}
