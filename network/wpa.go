package network

import (
	"bytes"
	"context"
	"net"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/netconfig/network/wpa"
	"github.com/u-root/u-root/pkg/dhclient"
	"github.com/vishvananda/netlink"
)

// check WpaRadio compliance to its interface during compile time
var _ Radio = (*WpaRadio)(nil)

// WpaStatusConstants are the raw status codes WpaRadio derives from
// wpa_supplicant's interface state.
var WpaStatusConstants = StatusConstants{
	"STAT_IDLE":           0,
	"STAT_CONNECTING":     1,
	"STAT_WRONG_PASSWORD": 2,
	"STAT_NO_AP_FOUND":    3,
	"STAT_CONNECT_FAIL":   4,
	"STAT_GOT_IP":         5,
	"STAT_UNKNOWN":        99,
}

const (
	scanTimeout        = 10 * time.Second
	dhcpPacketTimeout  = 5 * time.Second
	dhcpRetries        = 2
	dhcpLinkUpTimeout  = 10 * time.Second
	reasonHandshakeTTL = 15
	reasonPrevAuth     = 2
)

type WpaRadioConfig struct {
	Interface string
	Logger    Logger
}

// WpaRadio drives a Linux station interface through wpa_supplicant's D-Bus
// API. Link power is switched with netlink and addresses are leased with
// DHCP once wpa_supplicant reports a completed association.
type WpaRadio struct {
	log    Logger
	wpa    *wpa.Wpa
	ifname string
	iface  *wpa.Interface

	mu           sync.Mutex
	requested    bool
	apMissing    bool
	leaseCancel  context.CancelFunc
	leaseRunning bool
}

func NewWpaRadio(config *WpaRadioConfig) *WpaRadio {
	radio := &WpaRadio{
		ifname: config.Interface,
		wpa:    wpa.New(),
	}

	if config.Logger != nil {
		radio.log = config.Logger
	} else {
		radio.log = noopLogger{}
	}

	return radio
}

func (r *WpaRadio) Start() error {
	err := r.wpa.Start()
	if err != nil {
		return errors.Errorf("could not start wpa: %v", err)
	}

	iface, err := r.wpa.GetInterface(r.ifname)
	if err != nil {
		_ = r.Stop()
		return errors.Errorf("could not find interface %v: %v", r.ifname, err)
	}

	r.iface = iface

	return nil
}

func (r *WpaRadio) Stop() error {
	r.mu.Lock()
	r.stopLease()
	r.mu.Unlock()

	err := r.wpa.Stop()
	if err != nil {
		return errors.Errorf("could not stop wpa: %v", err)
	}

	return nil
}

func (r *WpaRadio) link() (netlink.Link, error) {
	link, err := netlink.LinkByName(r.ifname)
	if err != nil {
		return nil, errors.Errorf("could not find link %v: %v", r.ifname, err)
	}

	return link, nil
}

func (r *WpaRadio) Active() (bool, error) {
	link, err := r.link()
	if err != nil {
		return false, err
	}

	return link.Attrs().Flags&net.FlagUp != 0, nil
}

func (r *WpaRadio) SetActive(active bool) error {
	link, err := r.link()
	if err != nil {
		return err
	}

	if active {
		err := netlink.LinkSetUp(link)
		if err != nil {
			return errors.Errorf("could not set %v up: %v", r.ifname, err)
		}

		return nil
	}

	r.mu.Lock()
	r.requested = false
	r.apMissing = false
	r.stopLease()
	r.mu.Unlock()

	if err := r.iface.Disconnect(); err != nil {
		r.log.Debugf("Could not disconnect before deactivating: %v", err)
	}

	err = netlink.LinkSetDown(link)
	if err != nil {
		return errors.Errorf("could not set %v down: %v", r.ifname, err)
	}

	return nil
}

func (r *WpaRadio) Scan(ctx context.Context) ([]*Wifi, error) {
	done, err := r.iface.ScanDone()
	if err != nil {
		return nil, errors.Errorf("unable to listen to scan completion: %v", err)
	}

	defer done.Cancel()

	err = r.iface.Scan()
	if err != nil {
		return nil, errors.Errorf("unable to scan: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, scanTimeout)
	defer cancel()

	select {
	case ok := <-done.ScanDone:
		if !ok {
			r.log.Warnf("Scan did not complete successfully, using known networks")
		}
	case <-ctx.Done():
		return nil, errors.Errorf("scan did not complete: %v", ctx.Err())
	}

	bsss, err := r.bsss()
	if err != nil {
		return nil, err
	}

	var wifis []*Wifi

	for _, b := range bsss {
		security := Open
		if b.Secured() {
			security = Secured
		}

		wifis = append(wifis, &Wifi{
			Ssid:     b.Ssid,
			Bssid:    b.Bssid,
			Channel:  b.Channel(),
			Rssi:     int(b.Signal),
			Security: security,
		})
	}

	return wifis, nil
}

func (r *WpaRadio) bsss() ([]*wpa.Bss, error) {
	objs, err := r.iface.BSSs()
	if err != nil {
		return nil, errors.Errorf("unable to get BSSs: %v", err)
	}

	var bsss []*wpa.Bss

	for _, obj := range objs {
		b, err := obj.GetAll()
		if err != nil {
			r.log.Debugf("Skipping %v: %v", obj, err)
			continue
		}

		bsss = append(bsss, b)
	}

	return bsss, nil
}

func (r *WpaRadio) Connect(ssid string, password *string) error {
	apMissing := true

	if bsss, err := r.bsss(); err == nil {
		for _, b := range bsss {
			if bytes.Equal(b.Ssid, []byte(ssid)) {
				apMissing = false
			}
		}
	}

	err := r.iface.RemoveAllNetworks()
	if err != nil {
		return err
	}

	psk := ""
	if password != nil {
		psk = *password
	}

	block, err := r.iface.AddNetwork(ssid, psk)
	if err != nil {
		return err
	}

	err = r.iface.SelectNetwork(block)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.stopLease()
	r.requested = true
	r.apMissing = apMissing
	r.mu.Unlock()

	return nil
}

func (r *WpaRadio) Status() (int, error) {
	stat := WpaStatusConstants

	state, err := r.iface.State()
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	requested, apMissing := r.requested, r.apMissing
	r.mu.Unlock()

	switch state {
	case wpa.StateCompleted:
		if r.hasAddress() {
			return stat["STAT_GOT_IP"], nil
		}

		if requested {
			r.requestLease()
			return stat["STAT_CONNECTING"], nil
		}

		return stat["STAT_IDLE"], nil
	case wpa.StateScanning, wpa.StateAuthenticating, wpa.StateAssociating,
		wpa.StateAssociated, wpa.State4WayHandshake, wpa.StateGroupHandshake:
		if !requested {
			return stat["STAT_IDLE"], nil
		}

		return stat["STAT_CONNECTING"], nil
	case wpa.StateDisconnected, wpa.StateInactive:
		if !requested {
			return stat["STAT_IDLE"], nil
		}

		reason, err := r.iface.DisconnectReason()
		if err != nil {
			return 0, err
		}

		if reason < 0 {
			reason = -reason
		}

		switch {
		case reason == reasonHandshakeTTL || reason == reasonPrevAuth:
			return stat["STAT_WRONG_PASSWORD"], nil
		case apMissing:
			return stat["STAT_NO_AP_FOUND"], nil
		case reason != 0:
			return stat["STAT_CONNECT_FAIL"], nil
		default:
			return stat["STAT_CONNECTING"], nil
		}
	case wpa.StateInterfaceDisabled:
		return stat["STAT_IDLE"], nil
	default:
		r.log.Debugf("Unhandled wpa state %v", state)
		return stat["STAT_UNKNOWN"], nil
	}
}

// requestLease starts a DHCP exchange in the background unless one is
// already running for the current association.
func (r *WpaRadio) requestLease() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.leaseRunning {
		return
	}

	link, err := r.link()
	if err != nil {
		r.log.Warnf("Could not request lease: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dhcpPacketTimeout*time.Duration(1<<uint(dhcpRetries)))
	r.leaseCancel = cancel
	r.leaseRunning = true

	go func() {
		defer cancel()

		results := dhclient.SendRequests(ctx, []netlink.Link{link}, true, false, dhclient.Config{
			Timeout: dhcpPacketTimeout,
			Retries: dhcpRetries,
		}, dhcpLinkUpTimeout)

		for result := range results {
			if result.Err != nil {
				r.log.Warnf("Could not get lease on %v: %v", r.ifname, result.Err)
				continue
			}

			if err := result.Lease.Configure(); err != nil {
				r.log.Warnf("Could not configure %v: %v", r.ifname, err)
				continue
			}

			r.log.Infof("Configured %v with %v", r.ifname, result.Lease)
		}
	}()
}

// stopLease must be called with mu held.
func (r *WpaRadio) stopLease() {
	if r.leaseCancel != nil {
		r.leaseCancel()
	}

	r.leaseCancel = nil
	r.leaseRunning = false
}

func (r *WpaRadio) hasAddress() bool {
	address, err := r.Address()
	return err == nil && address.IP != nil
}

func (r *WpaRadio) Address() (*AddressInfo, error) {
	link, err := r.link()
	if err != nil {
		return nil, err
	}

	addrs, err := netlink.AddrList(link, netlink.FAMILY_V4)
	if err != nil {
		return nil, errors.Errorf("could not list addresses of %v: %v", r.ifname, err)
	}

	info := &AddressInfo{}

	if len(addrs) == 0 {
		return info, nil
	}

	info.IP = addrs[0].IP
	info.Mask = addrs[0].Mask

	routes, err := netlink.RouteList(link, netlink.FAMILY_V4)
	if err != nil {
		r.log.Debugf("Could not list routes of %v: %v", r.ifname, err)
		return info, nil
	}

	for _, route := range routes {
		if route.Dst == nil && route.Gw != nil {
			info.Gateway = route.Gw
			break
		}
	}

	return info, nil
}

func (r *WpaRadio) StatusConstants() StatusConstants {
	return WpaStatusConstants
}
