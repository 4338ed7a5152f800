// Package display is the on-device UI shell. It renders the session's
// screens and turns key presses and badge buttons into session events.
package display

import (
	"context"
	"fmt"
	"io"
	"sync"

	ui "github.com/gizak/termui/v3"
	"github.com/go-errors/errors"
	"github.com/the-lightning-land/netconfig/connectivity"
	"github.com/the-lightning-land/netconfig/machine"
	"github.com/the-lightning-land/netconfig/menu"
	"github.com/the-lightning-land/netconfig/network"
	"github.com/the-lightning-land/netconfig/session"
)

const (
	DefaultMinPassword = 4
	DefaultMaxPassword = 9

	title = "Network config"
	keyA  = "<Enter>"
	keyB  = "<Escape>"
)

// Session is the part of session.Session the display drives.
type Session interface {
	HandleEvent(ctx context.Context, ev session.Event) error
	Cancel() bool
	Last() *session.Update
}

type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type noopLogger struct{}

func (noopLogger) Debugf(format string, args ...interface{}) {}
func (noopLogger) Infof(format string, args ...interface{})  {}
func (noopLogger) Warnf(format string, args ...interface{})  {}
func (noopLogger) Errorf(format string, args ...interface{}) {}

// check Display compliance to its interface during compile time
var _ session.Sink = (*Display)(nil)

type Config struct {
	// UiEvents are the terminal's key events, usually ui.PollEvents().
	UiEvents <-chan ui.Event
	// Buttons are the badge's hardware buttons, if any.
	Buttons     <-chan machine.Button
	Reporter    connectivity.Reporter
	MinPassword int
	MaxPassword int
	Logger      Logger
}

type Display struct {
	session     Session
	uiEvents    <-chan ui.Event
	buttons     <-chan machine.Button
	reporter    connectivity.Reporter
	minPassword int
	maxPassword int
	log         Logger

	events chan ui.Event

	mu       sync.Mutex
	progress *menu.Progress
}

func New(config *Config) *Display {
	display := &Display{
		uiEvents:    config.UiEvents,
		buttons:     config.Buttons,
		reporter:    config.Reporter,
		minPassword: config.MinPassword,
		maxPassword: config.MaxPassword,
		events:      make(chan ui.Event),
	}

	if display.minPassword <= 0 {
		display.minPassword = DefaultMinPassword
	}

	if display.maxPassword <= 0 {
		display.maxPassword = DefaultMaxPassword
	}

	if config.Logger != nil {
		display.log = config.Logger
	} else {
		display.log = noopLogger{}
	}

	return display
}

// Update implements session.Sink. Busy states and the final notice are
// shown in a progress box; other screens are drawn by Run.
func (d *Display) Update(update *session.Update) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !update.State.Busy() && update.State != session.Succeeded {
		if d.progress != nil {
			d.progress.Close()
			d.progress = nil
		}
		return
	}

	text := update.Status
	if update.Message != "" {
		text = update.Message + "\n" + update.Status
	}

	if d.progress == nil {
		d.progress = menu.NewProgress(title, text)
		return
	}

	d.progress.Update(text)
}

// Run shows the menu until ctx is done or the event streams end. The
// startup events are handled first, with B able to cancel them like any
// other operation.
func (d *Display) Run(ctx context.Context, s Session, startup ...session.Event) error {
	d.session = s

	go d.merge(ctx)

	for _, ev := range startup {
		if err := d.handle(ctx, ev); err != nil {
			d.log.Warnf("Could not handle startup event %T: %v", ev, err)
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		err := d.step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, session.ErrInvalidSelection), errors.Is(err, session.ErrUnexpectedEvent):
			d.log.Warnf("Ignoring input: %v", err)
		default:
			return err
		}
	}
}

func (d *Display) step(ctx context.Context) error {
	last := d.session.Last()

	switch last.State {
	case session.Idle:
		return d.statusScreen(ctx)
	case session.AwaitingSelection:
		return d.networkList(ctx, last)
	case session.AwaitingPassword:
		return d.passwordInput(ctx, "password", last)
	case session.AwaitingAccessPassword:
		return d.passwordInput(ctx, "access", last)
	case session.Failed:
		return d.failure(ctx, last)
	case session.Succeeded:
		// the restart did not happen
		d.log.Debugf("Showing %v screen", "succeeded")
		_, err := menu.DisplayResult([]string{last.Message, "Restart failed."}, d.events)
		if err != nil && !errors.Is(err, menu.ErrEscape) {
			return err
		}
		return d.handle(ctx, session.Exit{})
	default:
		return errors.Errorf("unexpected state %v", last.State)
	}
}

type label string

func (l label) Label() string {
	return string(l)
}

const (
	entryWifi = iota
	entryAccess
	entryExit
)

func (d *Display) statusScreen(ctx context.Context) error {
	address := (&network.AddressInfo{}).String()
	if d.reporter != nil {
		address = d.reporter.Address().String()
	}

	d.log.Debugf("Showing %v screen", "status")
	choice, err := menu.Select(fmt.Sprintf("%v %v", title, address), []menu.Entry{label("WiFi"), label("API"), label("Exit")}, d.events)
	if errors.Is(err, menu.ErrEscape) {
		return d.handle(ctx, session.Exit{})
	}
	if err != nil {
		return err
	}

	switch choice {
	case entryAccess:
		return d.handle(ctx, session.ConfigureAccess{})
	case entryExit:
		return d.handle(ctx, session.Exit{})
	default:
		return d.handle(ctx, session.Start{})
	}
}

func (d *Display) networkList(ctx context.Context, last *session.Update) error {
	if len(last.Networks) == 0 {
		d.log.Debugf("Showing %v screen", "empty")
		_, err := menu.DisplayResult([]string{last.Message, "Press A to scan again."}, d.events)
		if errors.Is(err, menu.ErrEscape) {
			return d.handle(ctx, session.Abort{})
		}
		if err != nil {
			return err
		}
		return d.handle(ctx, session.Start{})
	}

	var entries []menu.Entry
	for _, w := range last.Networks {
		entries = append(entries, label(w.Label()))
	}

	d.log.Debugf("Showing %v screen", "networks")
	index, err := menu.Select("WiFi", entries, d.events)
	if errors.Is(err, menu.ErrEscape) {
		return d.handle(ctx, session.Exit{})
	}
	if err != nil {
		return err
	}

	return d.handle(ctx, session.Select{Index: index})
}

// passwordInput serves both the network passphrase and the API password,
// which share the same length bounds.
func (d *Display) passwordInput(ctx context.Context, screen string, last *session.Update) error {
	d.log.Debugf("Showing %v screen", screen)
	password, err := menu.Input(last.Message, true, menu.LengthBetween(d.minPassword, d.maxPassword), d.events)
	if errors.Is(err, menu.ErrEscape) {
		return d.handle(ctx, session.Abort{})
	}
	if err != nil {
		return err
	}

	return d.handle(ctx, session.EnterPassword{Password: password})
}

func (d *Display) failure(ctx context.Context, last *session.Update) error {
	lines := []string{last.Message}
	if last.Status != "" {
		lines = append(lines, last.Status)
	}
	if last.Err != nil {
		lines = append(lines, last.Err.Error())
	}

	d.log.Debugf("Showing %v screen", "failure")
	_, err := menu.DisplayResult(lines, d.events)
	if errors.Is(err, menu.ErrEscape) {
		return d.handle(ctx, session.Exit{})
	}
	if err != nil {
		return err
	}

	return d.handle(ctx, session.Dismiss{})
}

// handle passes ev to the session. While the session blocks, B cancels
// the running operation.
func (d *Display) handle(ctx context.Context, ev session.Event) error {
	done := make(chan error, 1)
	go func() {
		done <- d.session.HandleEvent(ctx, ev)
	}()

	events := d.events

	for {
		select {
		case err := <-done:
			return err
		case e, ok := <-events:
			if !ok {
				events = nil
				d.session.Cancel()
				continue
			}
			if e.Type == ui.KeyboardEvent && e.ID == keyB {
				d.log.Infof("Abort requested")
				d.session.Cancel()
			}
		}
	}
}

// merge feeds terminal keys and badge buttons into one event stream. A is
// Enter and B is Escape.
func (d *Display) merge(ctx context.Context) {
	defer close(d.events)

	keys := map[machine.Button]string{
		machine.ButtonA:    keyA,
		machine.ButtonB:    keyB,
		machine.ButtonUp:   "<Up>",
		machine.ButtonDown: "<Down>",
	}

	uiEvents, buttons := d.uiEvents, d.buttons

	for uiEvents != nil || buttons != nil {
		var ev ui.Event

		select {
		case <-ctx.Done():
			return
		case e, ok := <-uiEvents:
			if !ok {
				uiEvents = nil
				continue
			}
			ev = e
		case b, ok := <-buttons:
			if !ok {
				buttons = nil
				continue
			}
			ev = ui.Event{Type: ui.KeyboardEvent, ID: keys[b]}
		}

		select {
		case d.events <- ev:
		case <-ctx.Done():
			return
		}
	}
}
