package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddress(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"lowercases and abbreviates", "123 North Main Street", "123 n main st"},
		{"already abbreviated", "123 N Main St", "123 n main st"},
		{"strips country suffix", "123 Main St, Springfield, USA", "123 main st springfield"},
		{"collapses punctuation", "123  Main St., Apt. #4", "123 main st apt 4"},
		{"repairs inverted house number", "Main St 123", "123 main st"},
		{"leaves leading number alone", "123 Main St 4", "123 main st 4"},
		{"empty", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Address(tt.raw))
		})
	}
}

func TestAddressContains(t *testing.T) {
	require.True(t, AddressContains("123 North Main Street, Springfield", "123 N Main St"))
	require.False(t, AddressContains("123 Main St", "456 Oak Ave"))
	require.False(t, AddressContains("123 Main St", ""))
}

func TestPhone(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"(555) 123-4567", "5551234567"},
		{"1-555-123-4567", "5551234567"},
		{"+1 555 123 4567", "5551234567"},
		{"555-1234", ""},
		{"25551234567", ""},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Phone(tt.raw), "raw=%q", tt.raw)
	}
}

func TestEmail(t *testing.T) {
	require.Equal(t, "jane@example.com", Email(" Jane@Example.COM "))
	require.Equal(t, "", Email("not-an-email"))
}

func TestNameSimilarity(t *testing.T) {
	require.Equal(t, 1.0, NameSimilarity("Jane Doe", "jane  doe"))
	require.Equal(t, 0.0, NameSimilarity("", "Jane Doe"))

	close := NameSimilarity("Jane Doe", "Jane Does")
	require.Greater(t, close, 0.5)
	require.Less(t, close, 1.0)

	far := NameSimilarity("Robert Chen", "Maria Lopez")
	require.Less(t, far, 0.2)
	require.Greater(t, close, far)
}
