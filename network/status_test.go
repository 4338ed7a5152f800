package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifier_ESP32(t *testing.T) {
	c := NewClassifier(ESP32StatusConstants)

	tests := []struct {
		raw  int
		kind StatusKind
		name string
	}{
		{1000, Idle, "IDLE"},
		{1001, Connecting, "CONNECTING"},
		{1010, GotAddress, "GOT_IP"},
		{201, NoAccessPoint, "NO_AP_FOUND"},
		{202, WrongPassword, "WRONG_PASSWORD"},
		{203, ConnectFailed, "ASSOC_FAIL"},
		{200, ConnectFailed, "BEACON_TIMEOUT"},
		{204, ConnectFailed, "HANDSHAKE_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, c.Classify(tt.raw))
			assert.Equal(t, tt.name, c.Name(tt.raw))
		})
	}
}

func TestClassifier_UnknownCodes(t *testing.T) {
	c := NewClassifier(ESP32StatusConstants)

	for _, raw := range []int{-1, 0, 5, 999, 1011} {
		assert.Equal(t, Unknown, c.Classify(raw), "raw %d", raw)
		assert.Equal(t, "UNKNOWN", c.Name(raw), "raw %d", raw)
	}
}

func TestClassifier_UnknownConstantName(t *testing.T) {
	c := NewClassifier(StatusConstants{
		"STAT_GOT_IP":    7,
		"STAT_SLEEPING":  8,
		"LINK_CONNECTED": 9,
	})

	assert.Equal(t, GotAddress, c.Classify(7))
	assert.Equal(t, Unknown, c.Classify(8))
	assert.Equal(t, "SLEEPING", c.Name(8))
	assert.Equal(t, Unknown, c.Classify(9))
}

func TestClassifier_WpaConstants(t *testing.T) {
	c := NewClassifier(WpaStatusConstants)

	assert.Equal(t, Idle, c.Classify(WpaStatusConstants["STAT_IDLE"]))
	assert.Equal(t, GotAddress, c.Classify(WpaStatusConstants["STAT_GOT_IP"]))
	assert.Equal(t, Unknown, c.Classify(WpaStatusConstants["STAT_UNKNOWN"]))
}

func TestStatusKind_String(t *testing.T) {
	assert.Equal(t, "GOT_IP", GotAddress.String())
	assert.Equal(t, "INVALID STATUS", StatusKind(42).String())
}

func TestWifi_Label(t *testing.T) {
	open := &Wifi{Ssid: []byte("Cafe"), Security: Open}
	secured := &Wifi{Ssid: []byte("Home"), Security: Secured}

	assert.Equal(t, "  Cafe", open.Label())
	assert.Equal(t, "@ Home", secured.Label())
}

func TestWifi_NameInvalidUTF8(t *testing.T) {
	w := &Wifi{Ssid: []byte{'a', 0xff, 'b'}}
	assert.Equal(t, "a�b", w.Name())
}
