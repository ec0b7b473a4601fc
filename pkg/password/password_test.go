package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPolicy_Check(t *testing.T) {
	tests := []struct {
		name     string
		pw       string
		username string
		wantOK   bool
		contains string
	}{
		{"valid", "Sekerpare#2026", "ayse", true, ""},
		{"too short", "Ab1!", "ayse", false, "at least 10"},
		{"no upper", "sekerpare#2026", "ayse", false, "uppercase"},
		{"no lower", "SEKERPARE#2026", "ayse", false, "lowercase"},
		{"no digit", "Sekerpare#yaz", "ayse", false, "digit"},
		{"no symbol", "Sekerpare2026", "ayse", false, "symbol"},
		{"contains username", "Ayse#Pasta2026", "ayse", false, "username"},
		{"turkish letters count as letters", "Şekerpâre#2026", "", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultPolicy.Check(tt.pw, tt.username)
			if tt.wantOK {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrPolicy)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestPolicy_CollectsAllViolations(t *testing.T) {
	err := DefaultPolicy.Check("abc", "")
	var v Violations
	require.ErrorAs(t, err, &v)
	assert.Len(t, v, 4)
}

func TestHashVerify(t *testing.T) {
	h, err := Hash("Sekerpare#2026")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(h))
	require.NoError(t, err)
	assert.Equal(t, Cost, cost)

	assert.True(t, Verify(h, "Sekerpare#2026"))
	assert.False(t, Verify(h, "sekerpare#2026"))
	assert.False(t, Verify("not-a-hash", "x"))
}
