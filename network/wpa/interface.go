package wpa

import (
	"sync"

	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

// Interface states as reported by the State property.
const (
	StateDisconnected      = "disconnected"
	StateInactive          = "inactive"
	StateInterfaceDisabled = "interface_disabled"
	StateScanning          = "scanning"
	StateAuthenticating    = "authenticating"
	StateAssociating       = "associating"
	StateAssociated        = "associated"
	State4WayHandshake     = "4way_handshake"
	StateGroupHandshake    = "group_handshake"
	StateCompleted         = "completed"
)

type Interface struct {
	wpa *Wpa
	obj dbus.BusObject
}

func (i *Interface) Scan() error {
	call := i.obj.Call(interfaceInterface+".Scan", 0, map[string]interface{}{
		"Type": "active",
	})
	if call.Err != nil {
		return errors.Errorf("could not scan: %v", call.Err)
	}

	return nil
}

type ScanDoneClient struct {
	// ScanDone receives whether the scan succeeded. It is never closed;
	// stop listening with Cancel.
	ScanDone <-chan bool
	Cancel   func()
}

func (i *Interface) ScanDone() (*ScanDoneClient, error) {
	changeChan := make(chan bool, 1)
	signalChan := make(chan *dbus.Signal, 16)
	quit := make(chan struct{})

	call := i.wpa.conn.BusObject().AddMatchSignal(interfaceInterface, "ScanDone", dbus.WithMatchObjectPath(i.obj.Path()))
	if call.Err != nil {
		return nil, errors.Errorf("could not add signal: %v", call.Err)
	}

	i.wpa.conn.Signal(signalChan)

	go func() {
		for {
			select {
			case <-quit:
				return
			case signal, ok := <-signalChan:
				if !ok {
					return
				}

				if signal.Name != interfaceInterface+".ScanDone" || signal.Path != i.obj.Path() || len(signal.Body) == 0 {
					continue
				}

				success, _ := signal.Body[0].(bool)

				select {
				case changeChan <- success:
				case <-quit:
					return
				}
			}
		}
	}()

	var once sync.Once

	return &ScanDoneClient{
		ScanDone: changeChan,
		Cancel: func() {
			once.Do(func() {
				i.wpa.conn.RemoveSignal(signalChan)
				_ = i.wpa.conn.BusObject().RemoveMatchSignal(interfaceInterface, "ScanDone", dbus.WithMatchObjectPath(i.obj.Path()))
				close(quit)
			})
		},
	}, nil
}

// BSSs returns the currently known access points in wpa_supplicant's order.
func (i *Interface) BSSs() ([]*BSS, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".BSSs")
	if err != nil {
		return nil, errors.Errorf("could not get bsss: %v", err)
	}

	objectPaths, ok := v.Value().([]dbus.ObjectPath)
	if !ok {
		return nil, errors.Errorf("could not convert bsss: %v", v)
	}

	var bsss []*BSS

	for _, objectPath := range objectPaths {
		bsss = append(bsss, &BSS{
			obj: i.wpa.conn.Object(service, objectPath),
		})
	}

	return bsss, nil
}

// AddNetwork configures a network block. An empty psk configures an open
// network.
func (i *Interface) AddNetwork(ssid string, psk string) (*Network, error) {
	args := map[string]interface{}{
		"ssid": ssid,
	}

	if psk != "" {
		args["psk"] = psk
	} else {
		args["key_mgmt"] = "NONE"
	}

	call := i.obj.Call(interfaceInterface+".AddNetwork", 0, args)
	if call.Err != nil {
		return nil, errors.Errorf("could not add network: %v", call.Err)
	}

	var objPath dbus.ObjectPath
	err := call.Store(&objPath)
	if err != nil {
		return nil, errors.Errorf("could not store value: %v", err)
	}

	return &Network{
		wpa: i.wpa,
		obj: i.wpa.conn.Object(service, objPath),
	}, nil
}

func (i *Interface) SelectNetwork(net *Network) error {
	call := i.obj.Call(interfaceInterface+".SelectNetwork", 0, net.obj.Path())
	if call.Err != nil {
		return errors.Errorf("could not select network: %v", call.Err)
	}

	return nil
}

func (i *Interface) RemoveAllNetworks() error {
	call := i.obj.Call(interfaceInterface+".RemoveAllNetworks", 0)
	if call.Err != nil {
		return errors.Errorf("could not remove all networks: %v", call.Err)
	}

	return nil
}

func (i *Interface) Disconnect() error {
	call := i.obj.Call(interfaceInterface+".Disconnect", 0)
	if call.Err != nil {
		return errors.Errorf("could not disconnect: %v", call.Err)
	}

	return nil
}

func (i *Interface) State() (string, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".State")
	if err != nil {
		return "", errors.Errorf("could not get state: %v", err)
	}

	state, ok := v.Value().(string)
	if !ok {
		return "", errors.Errorf("could not convert state: %v", v)
	}

	return state, nil
}

// DisconnectReason is the IEEE 802.11 reason code of the last
// disconnection, negative if the disconnection was locally generated.
func (i *Interface) DisconnectReason() (int32, error) {
	v, err := i.obj.GetProperty(interfaceInterface + ".DisconnectReason")
	if err != nil {
		return 0, errors.Errorf("could not get disconnect reason: %v", err)
	}

	reason, ok := v.Value().(int32)
	if !ok {
		return 0, errors.Errorf("could not convert disconnect reason: %v", v)
	}

	return reason, nil
}
