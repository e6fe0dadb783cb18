package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddressRoundTripsThroughColumn(t *testing.T) {
	line2 := "Unit 4"
	addr := Address{RecipientName: "Ama", Phone: "+233200000000", Line1: "12 Ring Rd", Line2: &line2, City: "Accra", Country: "GH"}

	value, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan([]byte(value.(string))))
	require.Equal(t, addr, scanned)
}

func TestAddressMissingFields(t *testing.T) {
	require.Empty(t, Address{RecipientName: "a", Phone: "b", Line1: "c", City: "d", Country: "GH"}.MissingFields())
	require.Equal(t, []string{"phone", "city"}, Address{RecipientName: "a", Line1: "c", Country: "GH"}.MissingFields())
}

func TestSelectedOptionsScanNil(t *testing.T) {
	opts := SelectedOptions{"side": "left"}
	require.NoError(t, opts.Scan(nil))
	require.Nil(t, opts)
	require.True(t, SelectedOptions(nil).Equal(SelectedOptions{}))
	require.False(t, SelectedOptions{"side": "left"}.Equal(SelectedOptions{"side": "right"}))
}
