package network

import (
	"context"
	"net"
	"sync"
)

// check MockRadio compliance to its interface during compile time
var _ Radio = (*MockRadio)(nil)

type MockNetwork struct {
	Ssid     string
	Password string
	Rssi     int
}

// MockRadio simulates an ESP32 station interface. Joining one of its
// networks takes a few status polls; a wrong passphrase reports
// STAT_WRONG_PASSWORD until the attempt gives up.
type MockRadio struct {
	mu       sync.Mutex
	networks []*MockNetwork
	active   bool
	target   *MockNetwork
	password *string
	polls    int
	address  net.IP
}

func NewMockRadio(networks ...*MockNetwork) *MockRadio {
	return &MockRadio{
		networks: networks,
		address:  net.IPv4(192, 168, 4, 2),
	}
}

func (m *MockRadio) Active() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.active, nil
}

func (m *MockRadio) SetActive(active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = active
	if !active {
		m.target = nil
		m.polls = 0
	}

	return nil
}

func (m *MockRadio) Scan(ctx context.Context) ([]*Wifi, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var wifis []*Wifi
	for i, n := range m.networks {
		security := Open
		if n.Password != "" {
			security = Secured
		}

		wifis = append(wifis, &Wifi{
			Ssid:     []byte(n.Ssid),
			Bssid:    []byte{0x02, 0x00, 0x00, 0x00, 0x00, byte(i + 1)},
			Channel:  1 + (i*5)%11,
			Rssi:     n.Rssi,
			Security: security,
		})
	}

	return wifis, nil
}

func (m *MockRadio) Connect(ssid string, password *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.target = nil
	m.password = password
	m.polls = 0

	for _, n := range m.networks {
		if n.Ssid == ssid {
			m.target = n
		}
	}

	return nil
}

func (m *MockRadio) Status() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stat := ESP32StatusConstants

	if !m.active {
		return stat["STAT_IDLE"], nil
	}

	m.polls++

	switch {
	case m.target == nil && m.polls > 5:
		return stat["STAT_NO_AP_FOUND"], nil
	case m.target == nil:
		return stat["STAT_CONNECTING"], nil
	case m.polls <= 3:
		return stat["STAT_CONNECTING"], nil
	case !m.passwordMatches():
		return stat["STAT_WRONG_PASSWORD"], nil
	default:
		return stat["STAT_GOT_IP"], nil
	}
}

func (m *MockRadio) Address() (*AddressInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active || m.target == nil || m.polls <= 3 || !m.passwordMatches() {
		return &AddressInfo{}, nil
	}

	return &AddressInfo{
		IP:      m.address,
		Mask:    net.CIDRMask(24, 32),
		Gateway: net.IPv4(192, 168, 4, 1),
	}, nil
}

func (m *MockRadio) passwordMatches() bool {
	if m.target.Password == "" {
		return true
	}

	return m.password != nil && *m.password == m.target.Password
}

func (m *MockRadio) StatusConstants() StatusConstants {
	return ESP32StatusConstants
}
