package network

import (
	"context"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"
)

type Security int

const (
	Open Security = iota
	Secured
)

func (s Security) String() string {
	switch s {
	case Open:
		return "OPEN"
	case Secured:
		return "SECURED"
	default:
		return "INVALID SECURITY"
	}
}

// Wifi is a single access point as reported by one scan.
type Wifi struct {
	Ssid     []byte
	Bssid    []byte
	Channel  int
	Rssi     int
	Security Security
}

// Name returns the SSID as text. Invalid UTF-8 sequences are replaced.
func (w *Wifi) Name() string {
	return strings.ToValidUTF8(string(w.Ssid), string(utf8.RuneError))
}

// Label is the text shown for the network in a scan list, prefixed with
// @ when the network needs a passphrase.
func (w *Wifi) Label() string {
	if w.Security == Secured {
		return "@ " + w.Name()
	}

	return "  " + w.Name()
}

func (w *Wifi) String() string {
	return fmt.Sprintf("%s (%x, channel %d, %d dBm, %v)", w.Name(), w.Bssid, w.Channel, w.Rssi, w.Security)
}

// AddressInfo is the station interface's IPv4 configuration.
type AddressInfo struct {
	IP      net.IP
	Mask    net.IPMask
	Gateway net.IP
}

func (a *AddressInfo) String() string {
	if a == nil || a.IP == nil {
		return "0.0.0.0"
	}

	return a.IP.String()
}

// Radio is the control surface of the station interface.
type Radio interface {
	Active() (bool, error)
	SetActive(active bool) error
	Scan(ctx context.Context) ([]*Wifi, error)
	// Connect issues a connect request and returns without waiting for
	// association. A nil password joins an open network.
	Connect(ssid string, password *string) error
	// Status returns the raw status register of the interface.
	Status() (int, error)
	// Address returns the current address configuration (ifconfig).
	Address() (*AddressInfo, error)
	// StatusConstants are the symbolic names the platform uses for the
	// raw status codes returned by Status.
	StatusConstants() StatusConstants
}

// RadioError is a driver level failure of the radio.
type RadioError struct {
	Op  string
	Err error
}

func (e *RadioError) Error() string {
	return fmt.Sprintf("radio %s failed: %v", e.Op, e.Err)
}

func (e *RadioError) Unwrap() error {
	return e.Err
}
