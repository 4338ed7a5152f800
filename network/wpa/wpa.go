package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

const (
	service            = "fi.w1.wpa_supplicant1"
	rootPath           = "/fi/w1/wpa_supplicant1"
	rootInterface      = "fi.w1.wpa_supplicant1"
	interfaceInterface = "fi.w1.wpa_supplicant1.Interface"
	bssInterface       = "fi.w1.wpa_supplicant1.BSS"
)

// Wpa is a client of wpa_supplicant's D-Bus API.
type Wpa struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

func New() *Wpa {
	return &Wpa{}
}

func (w *Wpa) Start() error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return errors.Errorf("could not connect to system bus: %v", err)
	}

	w.conn = conn
	w.obj = conn.Object(service, rootPath)

	return nil
}

func (w *Wpa) Stop() error {
	if w.conn == nil {
		return nil
	}

	err := w.conn.Close()
	if err != nil {
		return errors.Errorf("could not close system bus connection: %v", err)
	}

	w.conn = nil

	return nil
}

// GetInterface returns the wpa_supplicant interface controlling ifname and
// asks wpa_supplicant to manage it if it does not yet.
func (w *Wpa) GetInterface(ifname string) (*Interface, error) {
	if w.conn == nil {
		return nil, errors.New("wpa is not started")
	}

	var path dbus.ObjectPath

	err := w.obj.Call(rootInterface+".GetInterface", 0, ifname).Store(&path)
	if err != nil {
		err = w.obj.Call(rootInterface+".CreateInterface", 0, map[string]interface{}{
			"Ifname": ifname,
		}).Store(&path)
		if err != nil {
			return nil, errors.Errorf("could not create interface %v: %v", ifname, err)
		}
	}

	return &Interface{
		wpa: w,
		obj: w.conn.Object(service, path),
	}, nil
}
