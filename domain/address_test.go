package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_Normalize_Address(t *testing.T) {
	req := require.New(t)

	req.Equal("alice@x.com", NormalizeAddress("  Alice@X.COM "))
	req.Equal("", NormalizeAddress("   "))
}

func Test_Validate_Address(t *testing.T) {
	tests := []struct {
		name    string
		address string
		wantErr bool
	}{
		{"plain address", "alice@x.com", false},
		{"mixed case with padding", " Bob@Y.Com ", false},
		{"subdomain", "carol@mail.example.org", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"no at sign", "not-an-email", true},
		{"no dot in domain", "alice@localhost", true},
		{"whitespace inside", "al ice@x.com", true},
		{"missing local part", "@x.com", true},
		{"separator inside local part", "a__b@x.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAddress(tt.address)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
