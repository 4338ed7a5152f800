package display

import (
	"context"
	"testing"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the-lightning-land/netconfig/access"
	"github.com/the-lightning-land/netconfig/clock"
	"github.com/the-lightning-land/netconfig/configdb"
	"github.com/the-lightning-land/netconfig/machine"
	"github.com/the-lightning-land/netconfig/network"
	"github.com/the-lightning-land/netconfig/profile"
	"github.com/the-lightning-land/netconfig/session"
	"golang.org/x/crypto/bcrypt"
)

// screenLogger reports every screen the display shows.
type screenLogger struct {
	noopLogger
	screens chan string
}

func (l *screenLogger) Debugf(format string, args ...interface{}) {
	if format == "Showing %v screen" {
		l.screens <- args[0].(string)
	}
}

type step struct {
	screen string
	keys   []string
}

type harness struct {
	display   *Display
	session   *session.Session
	machine   *machine.MockMachine
	persister *profile.Persister
	access    *access.Store
	keys      chan ui.Event
	screens   chan string
	ctx       context.Context
}

func newHarness(t *testing.T, associator session.Associator) *harness {
	t.Helper()

	db, err := configdb.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fake := clock.NewFake()
	radio := network.NewMockRadio(
		&network.MockNetwork{Ssid: "Cafe", Rssi: -40},
		&network.MockNetwork{Ssid: "Home", Password: "secret123", Rssi: -60},
	)

	if associator == nil {
		associator = network.NewAssociator(&network.AssociatorConfig{Radio: radio, Clock: fake})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	h := &harness{
		machine: machine.NewMockMachine(&machine.MockMachineConfig{}),
		persister: profile.NewPersister(&profile.PersisterConfig{
			Section: db.Section(profile.SectionName),
		}),
		access: access.NewStore(&access.StoreConfig{
			Section: db.Section(access.SectionName),
			Cost:    bcrypt.MinCost,
		}),
		keys:    make(chan ui.Event),
		screens: make(chan string, 32),
		ctx:     ctx,
	}

	h.machine.Restarted = cancel

	h.display = New(&Config{
		UiEvents: h.keys,
		Logger:   &screenLogger{screens: h.screens},
	})

	h.session = session.New(&session.Config{
		Scanner:    network.NewScanner(&network.ScannerConfig{Radio: radio}),
		Associator: associator,
		Persister:  h.persister,
		Restarter:  h.machine,
		Access:     h.access,
		Sink:       h.display,
		Clock:      fake,
	})

	return h
}

// drive waits for each screen in turn and then types its keys.
func (h *harness) drive(t *testing.T, steps []step) {
	go func() {
		for _, s := range steps {
			select {
			case screen := <-h.screens:
				if screen != s.screen {
					t.Errorf("got screen %q, want %q", screen, s.screen)
					return
				}
			case <-h.ctx.Done():
				t.Errorf("timed out waiting for screen %q", s.screen)
				return
			}

			for _, key := range s.keys {
				h.press(key)
			}
		}
	}()
}

func (h *harness) press(key string) {
	select {
	case h.keys <- ui.Event{Type: ui.KeyboardEvent, ID: key}:
	case <-h.ctx.Done():
	}
}

func typed(text string, then ...string) []string {
	var keys []string
	for _, c := range text {
		keys = append(keys, string(c))
	}
	return append(keys, then...)
}

func TestRun_JoinSecuredNetwork(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Enter>"}},
		{screen: "networks", keys: []string{"<Down>", "<Enter>"}},
		{screen: "password", keys: typed("secret123", "<Enter>")},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())
	assert.Equal(t, session.Succeeded, h.session.Last().State)

	saved, err := h.persister.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Home", saved.Ssid)
	require.NotNil(t, saved.Password)
	assert.Equal(t, "secret123", *saved.Password)
}

func TestRun_JoinOpenNetworkWithoutPrompt(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Enter>"}},
		{screen: "networks", keys: []string{"<Enter>"}},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	saved, err := h.persister.Load()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "Cafe", saved.Ssid)
	assert.Nil(t, saved.Password)
}

func TestRun_PasswordOutOfBounds(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Enter>"}},
		{screen: "networks", keys: []string{"<Down>", "<Enter>"}},
		// too long, then too short, then back out
		{screen: "password", keys: append(typed("secret1234", "<Enter>"), typed("abc", "<Enter>", "<Escape>")...)},
		{screen: "networks", keys: []string{"<Escape>"}},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())
	assert.Equal(t, session.AwaitingSelection, h.session.Last().State)

	saved, err := h.persister.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRun_WrongPasswordIsDismissed(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Enter>"}},
		{screen: "networks", keys: []string{"<Down>", "<Enter>"}},
		{screen: "password", keys: typed("wrong", "<Enter>")},
		{screen: "failure", keys: []string{"<Enter>"}},
		{screen: "networks", keys: []string{"<Escape>"}},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())

	saved, err := h.persister.Load()
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestRun_ExitFromStatusScreen(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Down>", "<Down>", "<Enter>"}},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())
	assert.Equal(t, session.Idle, h.session.Last().State)
}

func TestRun_SetApiPassword(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Down>", "<Enter>"}},
		{screen: "access", keys: typed("hunter2", "<Enter>")},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())
	assert.Equal(t, "API password saved.", h.session.Last().Message)

	ok, err := h.access.Check("hunter2")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRun_ApiPasswordOutOfBounds(t *testing.T) {
	h := newHarness(t, nil)

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Down>", "<Enter>"}},
		{screen: "access", keys: append(typed("abc", "<Enter>"), typed("0123456789", "<Enter>", "<Escape>")...)},
		{screen: "status", keys: []string{"<Down>", "<Down>", "<Enter>"}},
	})

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())

	enabled, err := h.access.Enabled()
	require.NoError(t, err)
	assert.False(t, enabled)
}

// blockingAssociator runs until its context is cancelled.
type blockingAssociator struct{}

func (blockingAssociator) Attempt(ctx context.Context, ssid string, password *string, timeout time.Duration, progress network.ProgressFunc) (*network.Outcome, error) {
	<-ctx.Done()
	return &network.Outcome{Result: network.Aborted}, nil
}

func TestRun_ButtonBAbortsAttempt(t *testing.T) {
	h := newHarness(t, blockingAssociator{})

	buttons := make(chan machine.Button)
	h.display.buttons = buttons

	h.drive(t, []step{
		{screen: "status", keys: []string{"<Enter>"}},
		{screen: "networks", keys: []string{"<Enter>"}},
	})

	go func() {
		for h.session.Last().State != session.Connecting {
			select {
			case <-h.ctx.Done():
				return
			case <-time.After(time.Millisecond):
			}
		}

		select {
		case buttons <- machine.ButtonB:
		case <-h.ctx.Done():
			return
		}

		select {
		case screen := <-h.screens:
			if screen != "networks" {
				t.Errorf("got screen %q, want %q", screen, "networks")
				return
			}
		case <-h.ctx.Done():
			return
		}

		select {
		case buttons <- machine.ButtonB:
		case <-h.ctx.Done():
		}
	}()

	require.NoError(t, h.display.Run(h.ctx, h.session))

	assert.Equal(t, 1, h.machine.Restarts())

	last := h.session.Last()
	assert.Equal(t, session.AwaitingSelection, last.State)
	assert.Equal(t, "Aborted.", last.Message)
}

func TestRun_ButtonBAbortsStartupConnect(t *testing.T) {
	h := newHarness(t, blockingAssociator{})

	buttons := make(chan machine.Button)
	h.display.buttons = buttons

	press := func(b machine.Button) {
		select {
		case buttons <- b:
		case <-h.ctx.Done():
		}
	}

	go func() {
		for h.session.Last().State != session.Connecting {
			select {
			case <-h.ctx.Done():
				return
			case <-time.After(time.Millisecond):
			}
		}

		press(machine.ButtonB)

		select {
		case screen := <-h.screens:
			if screen != "status" {
				t.Errorf("got screen %q, want %q", screen, "status")
				return
			}
		case <-h.ctx.Done():
			return
		}

		press(machine.ButtonDown)
		press(machine.ButtonDown)
		press(machine.ButtonA)
	}()

	saved := &profile.Profile{Ssid: "Cafe"}
	require.NoError(t, h.display.Run(h.ctx, h.session, session.ConnectProfile{Profile: saved}))

	assert.Equal(t, 1, h.machine.Restarts())

	last := h.session.Last()
	assert.Equal(t, session.Idle, last.State)
	assert.Equal(t, "Aborted.", last.Message)
}

func TestRun_EndOfInput(t *testing.T) {
	h := newHarness(t, nil)

	close(h.keys)

	require.NoError(t, h.display.Run(h.ctx, h.session))
	assert.Equal(t, 0, h.machine.Restarts())
}

func TestUpdate_Progress(t *testing.T) {
	d := New(&Config{})

	d.Update(&session.Update{State: session.Scanning, Status: "Scanning.."})
	require.NotNil(t, d.progress)
	assert.Equal(t, "Scanning..", d.progress.Text())

	d.Update(&session.Update{State: session.Connecting, Message: "Connecting to Home", Status: "CONNECTING"})
	require.NotNil(t, d.progress)
	assert.Equal(t, "Connecting to Home\nCONNECTING", d.progress.Text())

	d.Update(&session.Update{State: session.Failed, Message: "Connection failed."})
	assert.Nil(t, d.progress)
}

func TestNew_Defaults(t *testing.T) {
	d := New(&Config{})

	assert.Equal(t, DefaultMinPassword, d.minPassword)
	assert.Equal(t, DefaultMaxPassword, d.maxPassword)
}
