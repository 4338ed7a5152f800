package session

import (
	"fmt"

	"github.com/the-lightning-land/netconfig/profile"
)

// Event is an input from the UI shell.
type Event interface {
	event()
}

// Start scans for networks.
type Start struct{}

// Select picks an entry of the most recent scan list.
type Select struct {
	Index int
}

// EnterPassword supplies the passphrase for the selected secured network,
// or the new API password.
type EnterPassword struct {
	Password string
}

// Abort cancels a running scan or attempt, or steps back one screen.
type Abort struct{}

// Dismiss acknowledges a failure notice.
type Dismiss struct{}

// Exit leaves the menu by restarting the device.
type Exit struct{}

// ConfigureAccess asks for a new API password.
type ConfigureAccess struct{}

// ConnectProfile joins a saved profile without persisting or restarting.
type ConnectProfile struct {
	Profile *profile.Profile
}

func (Start) event()           {}
func (Select) event()          {}
func (EnterPassword) event()   {}
func (Abort) event()           {}
func (Dismiss) event()         {}
func (Exit) event()            {}
func (ConfigureAccess) event() {}
func (ConnectProfile) event()  {}

func (e Select) String() string {
	return fmt.Sprintf("select %d", e.Index)
}

func (e EnterPassword) String() string {
	return "enter password"
}
