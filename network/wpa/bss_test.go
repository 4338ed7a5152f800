package wpa

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBss_Secured(t *testing.T) {
	props := map[string]dbus.Variant{
		"SSID":      dbus.MakeVariant([]byte("Home")),
		"BSSID":     dbus.MakeVariant([]byte{0xde, 0xad, 0xbe, 0xef, 0x00, 0x01}),
		"Signal":    dbus.MakeVariant(int16(-54)),
		"Frequency": dbus.MakeVariant(uint16(2437)),
		"Privacy":   dbus.MakeVariant(true),
		"RSN": dbus.MakeVariant(map[string]dbus.Variant{
			"KeyMgmt": dbus.MakeVariant([]string{"wpa-psk"}),
		}),
	}

	bss, err := parseBss(props)
	require.NoError(t, err)

	assert.Equal(t, []byte("Home"), bss.Ssid)
	assert.Equal(t, int16(-54), bss.Signal)
	assert.Equal(t, 6, bss.Channel())
	assert.Equal(t, []string{"wpa-psk"}, bss.KeyMgmt)
	assert.True(t, bss.Secured())
}

func TestParseBss_Open(t *testing.T) {
	props := map[string]dbus.Variant{
		"SSID":      dbus.MakeVariant([]byte("Cafe")),
		"BSSID":     dbus.MakeVariant([]byte{0x02, 0, 0, 0, 0, 1}),
		"Frequency": dbus.MakeVariant(uint16(5180)),
		"Privacy":   dbus.MakeVariant(false),
	}

	bss, err := parseBss(props)
	require.NoError(t, err)

	assert.Equal(t, 36, bss.Channel())
	assert.False(t, bss.Secured())
}

func TestParseBss_MissingSsid(t *testing.T) {
	_, err := parseBss(map[string]dbus.Variant{
		"BSSID": dbus.MakeVariant([]byte{1, 2, 3, 4, 5, 6}),
	})
	assert.Error(t, err)
}

func TestBssChannel(t *testing.T) {
	tests := []struct {
		frequency uint16
		channel   int
	}{
		{2412, 1},
		{2472, 13},
		{2484, 14},
		{5745, 149},
		{5955, 1},
		{900, 0},
	}

	for _, tt := range tests {
		b := &Bss{Frequency: tt.frequency}
		assert.Equal(t, tt.channel, b.Channel(), "frequency %d", tt.frequency)
	}
}
