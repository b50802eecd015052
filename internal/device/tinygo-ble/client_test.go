package tinyble

import (
	"testing"

	"github.com/srg/granble/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalUUID(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"180d", "0000180d-0000-1000-8000-00805f9b34fb"},
		{"0x180D", "0000180d-0000-1000-8000-00805f9b34fb"},
		{"0000180d", "0000180d-0000-1000-8000-00805f9b34fb"},
		{device.ScoringServiceUUID, "442f1570-8a00-9a28-cbe1-e1d4212d53eb"},
		{"442F1571-8A00-9A28-CBE1-E1D4212D53EB", "442f1571-8a00-9a28-cbe1-e1d4212d53eb"},
	}
	for _, tt := range tests {
		got, err := canonicalUUID(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := canonicalUUID("12345")
	assert.Error(t, err)
}

func TestParseUUIDs(t *testing.T) {
	got, err := parseUUIDs(nil)
	require.NoError(t, err)
	assert.Nil(t, got, "empty filter MUST mean all")

	got, err = parseUUIDs([]string{device.ScoringServiceUUID, "180f"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, device.ScoringServiceUUID, device.NormalizeUUID(got[0].String()))
	assert.Equal(t, "180f", device.NormalizeUUID(got[1].String()))

	_, err = parseUUIDs([]string{"nope"})
	assert.Error(t, err)
}

func TestClientRejectsForeignHandles(t *testing.T) {
	c := &Client{addr: "aa:bb"}

	_, err := c.DiscoverCharacteristics(foreign("180d"), nil)
	assert.ErrorContains(t, err, "not discovered by this client")
	assert.ErrorContains(t, c.Subscribe(foreign("2a37"), func([]byte) {}), "not discovered by this client")
	assert.ErrorContains(t, c.Unsubscribe(foreign("2a37")), "not discovered by this client")
	assert.ErrorContains(t, c.Write(foreign("2a37"), []byte{2}, true), "not discovered by this client")
	assert.Equal(t, "aa:bb", c.Addr())
}

type foreign string

func (f foreign) UUID() string { return string(f) }

func TestAdvertisement(t *testing.T) {
	adv := advertisement{name: "GRANBOARD", addr: "aa:bb", rssi: -70}

	assert.Equal(t, "GRANBOARD", adv.LocalName())
	assert.Equal(t, "aa:bb", adv.Addr())
	assert.Equal(t, -70, adv.RSSI())
	assert.True(t, adv.Connectable())
	assert.Empty(t, adv.Services())
}
