package network

import (
	"context"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scanFixture() []*Wifi {
	return []*Wifi{
		{Ssid: []byte("Cafe"), Bssid: []byte{1}, Channel: 6, Rssi: -40, Security: Open},
		{Ssid: []byte("Home"), Bssid: []byte{2}, Channel: 11, Rssi: -70, Security: Secured},
		{Ssid: []byte("Attic"), Bssid: []byte{3}, Channel: 1, Rssi: -30, Security: Secured},
	}
}

func TestScanner_ActivatesRadio(t *testing.T) {
	radio := &fakeRadio{scanResult: scanFixture()}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	wifis, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	assert.Len(t, wifis, 3)
	assert.Equal(t, []string{"activate", "scan"}, radio.Calls())
}

func TestScanner_EnsureActiveIsIdempotent(t *testing.T) {
	radio := &fakeRadio{active: true}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	require.NoError(t, scanner.EnsureActive())
	require.NoError(t, scanner.EnsureActive())

	assert.Empty(t, radio.Calls())
}

func TestScanner_PreservesHardwareOrder(t *testing.T) {
	radio := &fakeRadio{active: true, scanResult: scanFixture()}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	first, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	second, err := scanner.Scan(context.Background())
	require.NoError(t, err)

	var names []string
	for _, w := range first {
		names = append(names, w.Name())
	}
	assert.Equal(t, []string{"Cafe", "Home", "Attic"}, names)

	for i := range first {
		assert.Equal(t, first[i], second[i])
	}
}

func TestScanner_ActivationDidNotComplete(t *testing.T) {
	radio := &fakeRadio{stuckInactive: true}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	_, err := scanner.Scan(context.Background())

	var radioErr *RadioError
	require.True(t, errors.As(err, &radioErr))
	assert.Equal(t, "scan", radioErr.Op)
	assert.NotContains(t, radio.Calls(), "scan")
}

func TestScanner_ActivationFails(t *testing.T) {
	radio := &fakeRadio{activateFails: true}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	_, err := scanner.Scan(context.Background())

	var radioErr *RadioError
	require.True(t, errors.As(err, &radioErr))
	assert.Equal(t, "activate", radioErr.Op)
}

func TestScanner_ScanError(t *testing.T) {
	radio := &fakeRadio{active: true, scanErr: errors.New("busy")}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	_, err := scanner.Scan(context.Background())

	var radioErr *RadioError
	require.True(t, errors.As(err, &radioErr))
	assert.Contains(t, radioErr.Error(), "busy")
}

func TestScanner_ScanCancelled(t *testing.T) {
	radio := &fakeRadio{active: true, scanErr: errors.New("interrupted")}
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := scanner.Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockRadio_Scan(t *testing.T) {
	radio := NewMockRadio(
		&MockNetwork{Ssid: "Cafe"},
		&MockNetwork{Ssid: "Home", Password: "secret123"},
	)
	scanner := NewScanner(&ScannerConfig{Radio: radio})

	wifis, err := scanner.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, wifis, 2)

	assert.Equal(t, Open, wifis[0].Security)
	assert.Equal(t, Secured, wifis[1].Security)
}
