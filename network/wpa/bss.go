package wpa

import (
	"github.com/go-errors/errors"
	"github.com/godbus/dbus/v5"
)

type BSS struct {
	obj dbus.BusObject
}

func (b *BSS) String() string {
	return string(b.obj.Path())
}

type Bss struct {
	Ssid      []byte
	Bssid     []byte
	Signal    int16
	Frequency uint16
	Privacy   bool
	KeyMgmt   []string
}

// Channel derives the channel number from the frequency in MHz.
func (b *Bss) Channel() int {
	f := int(b.Frequency)

	switch {
	case f == 2484:
		return 14
	case f >= 2412 && f <= 2472:
		return (f - 2407) / 5
	case f >= 5955 && f <= 7115:
		return (f - 5950) / 5
	case f >= 5000 && f <= 5900:
		return (f - 5000) / 5
	default:
		return 0
	}
}

// Secured reports whether joining the network requires a key.
func (b *Bss) Secured() bool {
	return b.Privacy || len(b.KeyMgmt) > 0
}

func (b *BSS) GetAll() (*Bss, error) {
	call := b.obj.Call("org.freedesktop.DBus.Properties.GetAll", 0, bssInterface)
	if call.Err != nil {
		return nil, errors.Errorf("could not get all properties: %v", call.Err)
	}

	props, ok := call.Body[0].(map[string]dbus.Variant)
	if !ok {
		return nil, errors.Errorf("could not convert output")
	}

	return parseBss(props)
}

func parseBss(props map[string]dbus.Variant) (*Bss, error) {
	bss := Bss{}

	if val, ok := props["SSID"]; ok {
		if ssid, ok := val.Value().([]byte); ok {
			bss.Ssid = ssid
		} else {
			return nil, errors.Errorf("could not convert SSID: %v", val)
		}
	} else {
		return nil, errors.Errorf("mandatory property SSID was missing")
	}

	if val, ok := props["BSSID"]; ok {
		if bssid, ok := val.Value().([]byte); ok {
			bss.Bssid = bssid
		} else {
			return nil, errors.Errorf("could not convert BSSID: %v", val)
		}
	} else {
		return nil, errors.Errorf("mandatory property BSSID was missing")
	}

	if val, ok := props["Signal"]; ok {
		bss.Signal, _ = val.Value().(int16)
	}

	if val, ok := props["Frequency"]; ok {
		bss.Frequency, _ = val.Value().(uint16)
	}

	if val, ok := props["Privacy"]; ok {
		bss.Privacy, _ = val.Value().(bool)
	}

	for _, name := range []string{"RSN", "WPA"} {
		val, ok := props[name]
		if !ok {
			continue
		}

		ie, ok := val.Value().(map[string]dbus.Variant)
		if !ok {
			continue
		}

		if keyMgmt, ok := ie["KeyMgmt"].Value().([]string); ok {
			bss.KeyMgmt = append(bss.KeyMgmt, keyMgmt...)
		}
	}

	return &bss, nil
}
