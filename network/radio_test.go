package network

import (
	"context"
	"net"
	"sync"

	"github.com/go-errors/errors"
)

var testStatusConstants = StatusConstants{
	"STAT_IDLE":           0,
	"STAT_CONNECTING":     1,
	"STAT_WRONG_PASSWORD": 2,
	"STAT_NO_AP_FOUND":    3,
	"STAT_CONNECT_FAIL":   4,
	"STAT_GOT_IP":         5,
}

// fakeRadio replays a scripted sequence of raw statuses. Once the script is
// exhausted the last status repeats.
type fakeRadio struct {
	mu sync.Mutex

	active        bool
	activateFails bool
	stuckInactive bool
	connectErr    error
	statusErrAt   int
	addressErr    error
	scanResult    []*Wifi
	scanErr       error
	statuses      []int

	calls    []string
	polls    int
	connects []connectCall
}

type connectCall struct {
	ssid     string
	password *string
}

func (f *fakeRadio) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeRadio) Active() (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.active, nil
}

func (f *fakeRadio) SetActive(active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if active {
		f.record("activate")
		if f.activateFails {
			return errors.New("firmware did not respond")
		}
		if f.stuckInactive {
			return nil
		}
	} else {
		f.record("deactivate")
	}

	f.active = active

	return nil
}

func (f *fakeRadio) Scan(ctx context.Context) ([]*Wifi, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("scan")

	return f.scanResult, f.scanErr
}

func (f *fakeRadio) Connect(ssid string, password *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.record("connect")
	f.connects = append(f.connects, connectCall{ssid: ssid, password: password})

	return f.connectErr
}

func (f *fakeRadio) Status() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.polls++

	if f.statusErrAt > 0 && f.polls >= f.statusErrAt {
		return 0, errors.New("status register unreadable")
	}

	if len(f.statuses) == 0 {
		return 0, nil
	}

	i := f.polls - 1
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}

	return f.statuses[i], nil
}

func (f *fakeRadio) Address() (*AddressInfo, error) {
	if f.addressErr != nil {
		return nil, f.addressErr
	}

	return &AddressInfo{
		IP:   net.IPv4(10, 0, 0, 23),
		Mask: net.CIDRMask(24, 32),
	}, nil
}

func (f *fakeRadio) StatusConstants() StatusConstants {
	return testStatusConstants
}

func (f *fakeRadio) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]string(nil), f.calls...)
}
