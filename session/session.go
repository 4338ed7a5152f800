// Package session implements the network configuration menu flow: scan,
// pick a network, enter its passphrase, attempt association and on success
// save the credentials and restart into them.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/netconfig/clock"
	"github.com/the-lightning-land/netconfig/network"
	"github.com/the-lightning-land/netconfig/profile"
)

const (
	DefaultNoticeDelay = time.Second

	msgScanning     = "Scanning.."
	msgNoNetworks   = "No networks found."
	msgScanFailed   = "Scan failed."
	msgConnected    = "Connected!"
	msgSaved        = "Network configuration saved."
	msgFailed       = "Connection failed."
	msgNotSaved     = "Connected, but the configuration could not be saved."
	msgAborted      = "Aborted."
	msgPassword     = "Input password"
	msgConnectingTo = "Connecting to "

	msgAccessPassword = "New password (4-9 chars)"
	msgAccessSaved    = "API password saved."
	msgAccessNotSaved = "The API password could not be saved."
)

var (
	ErrInvalidSelection = errors.New("invalid network selection")
	ErrUnexpectedEvent  = errors.New("unexpected event")
)

type Scanner interface {
	Scan(ctx context.Context) ([]*network.Wifi, error)
}

type Associator interface {
	Attempt(ctx context.Context, ssid string, password *string, timeout time.Duration, progress network.ProgressFunc) (*network.Outcome, error)
}

type Persister interface {
	Persist(ssid string, password *string) error
}

type Restarter interface {
	Restart() error
}

// AccessStore keeps the password guarding the API.
type AccessStore interface {
	SetPassword(password string) error
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

type Config struct {
	Scanner    Scanner
	Associator Associator
	Persister  Persister
	Restarter  Restarter
	Access     AccessStore
	Sink       Sink
	Clock      clock.Clock
	Logger     Logger
	// ConnectTimeout bounds every association attempt.
	ConnectTimeout time.Duration
	// NoticeDelay is how long "Connected!" and the saved notice stay on
	// screen before the device restarts.
	NoticeDelay time.Duration
}

// Session owns the menu state. Events are handled one at a time; an Abort
// event may arrive from another goroutine while a scan or attempt blocks.
type Session struct {
	scanner        Scanner
	associator     Associator
	persister      Persister
	restarter      Restarter
	access         AccessStore
	sink           Sink
	clock          clock.Clock
	log            Logger
	connectTimeout time.Duration
	noticeDelay    time.Duration

	mu       sync.Mutex
	state    State
	networks []*network.Wifi
	selected *network.Wifi
	last     *Update

	opMu     sync.Mutex
	opCancel context.CancelFunc
}

func New(config *Config) *Session {
	session := &Session{
		scanner:        config.Scanner,
		associator:     config.Associator,
		persister:      config.Persister,
		restarter:      config.Restarter,
		access:         config.Access,
		sink:           config.Sink,
		clock:          config.Clock,
		connectTimeout: config.ConnectTimeout,
		noticeDelay:    config.NoticeDelay,
		state:          Idle,
		last:           &Update{State: Idle},
	}

	if session.sink == nil {
		session.sink = MultiSink()
	}

	if session.clock == nil {
		session.clock = clock.New()
	}

	if session.connectTimeout <= 0 {
		session.connectTimeout = network.DefaultConnectTimeout
	}

	if session.noticeDelay < 0 {
		session.noticeDelay = 0
	} else if session.noticeDelay == 0 {
		session.noticeDelay = DefaultNoticeDelay
	}

	if config.Logger != nil {
		session.log = config.Logger
	} else {
		session.log = noopLogger{}
	}

	return session
}

// Last returns the most recently published update.
func (s *Session) Last() *Update {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	u := *s.last
	return &u
}

// HandleEvent applies ev to the session. It blocks while a scan or an
// association attempt runs. Abort is the only event that is handled
// concurrently with a blocked call.
func (s *Session) HandleEvent(ctx context.Context, ev Event) error {
	// An Abort that loses the race against a finishing operation falls
	// through and is applied to the resulting state. Failed does not accept
	// Abort, so a failure notice is never skipped this way.
	if _, ok := ev.(Abort); ok && s.Cancel() {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debugf("Handling %T in state %v", ev, s.state)

	switch e := ev.(type) {
	case Start:
		switch s.state {
		case Idle, AwaitingSelection, Failed:
			return s.scan(ctx)
		}
	case Select:
		if s.state == AwaitingSelection {
			return s.selectNetwork(ctx, e.Index)
		}
	case EnterPassword:
		switch s.state {
		case AwaitingPassword:
			password := e.Password
			return s.connect(ctx, s.selected, &password)
		case AwaitingAccessPassword:
			return s.setAccessPassword(e.Password)
		}
	case Abort:
		switch s.state {
		case AwaitingPassword:
			s.selected = nil
			s.publish(&Update{State: AwaitingSelection})
			return nil
		case AwaitingSelection, AwaitingAccessPassword:
			s.networks = nil
			s.selected = nil
			s.publish(&Update{State: Idle})
			return nil
		case Idle:
			return nil
		}
	case ConfigureAccess:
		if s.state == Idle && s.access != nil {
			s.publish(&Update{State: AwaitingAccessPassword, Message: msgAccessPassword})
			return nil
		}
	case ConnectProfile:
		if s.state == Idle {
			return s.connectSaved(ctx, e.Profile)
		}
	case Dismiss:
		if s.state == Failed {
			if len(s.networks) > 0 {
				s.publish(&Update{State: AwaitingSelection})
			} else {
				s.publish(&Update{State: Idle})
			}
			return nil
		}
	case Exit:
		if !s.state.Busy() {
			return s.restart()
		}
	}

	return errors.Errorf("%w: %T in state %v", ErrUnexpectedEvent, ev, s.state)
}

// connectSaved attempts to join a previously saved profile without going
// through the menu. Nothing is persisted and the device is not restarted.
func (s *Session) connectSaved(ctx context.Context, p *profile.Profile) error {
	s.log.Infof("Connecting to saved network %v", p)

	opCtx, done := s.beginOperation(ctx)
	defer done()

	s.publish(&Update{State: Connecting, Ssid: p.Ssid, Message: msgConnectingTo + p.Ssid})

	outcome, err := s.associator.Attempt(opCtx, p.Ssid, p.Password, s.connectTimeout, s.progress(p.Ssid))
	if err != nil {
		s.log.Errorf("Could not connect to saved network %v: %v", p.Ssid, err)
		s.publish(&Update{State: Idle, Ssid: p.Ssid, Message: msgFailed, Err: err})
		return nil
	}

	switch outcome.Result {
	case network.Connected:
		s.publish(&Update{State: Idle, Ssid: p.Ssid, Message: msgConnected, Outcome: outcome})
	case network.Aborted:
		s.publish(&Update{State: Idle, Ssid: p.Ssid, Message: msgAborted, Outcome: outcome})
	default:
		s.publish(&Update{State: Idle, Ssid: p.Ssid, Message: msgFailed, Status: outcome.Reason.String(), Outcome: outcome})
	}

	s.log.Infof("Saved network %v: %v", p.Ssid, outcome.Result)

	return nil
}

func (s *Session) setAccessPassword(password string) error {
	err := s.access.SetPassword(password)
	if err != nil {
		s.log.Errorf("Could not save API password: %v", err)
		s.publish(&Update{State: Failed, Message: msgAccessNotSaved, Err: err})
		return nil
	}

	s.publish(&Update{State: Succeeded, Message: msgAccessSaved})

	_ = s.clock.Sleep(context.Background(), s.noticeDelay)

	return s.restart()
}

func (s *Session) scan(ctx context.Context) error {
	opCtx, done := s.beginOperation(ctx)
	defer done()

	s.networks = nil
	s.selected = nil
	s.publish(&Update{State: Scanning, Status: msgScanning})

	wifis, err := s.scanner.Scan(opCtx)
	if err != nil {
		if opCtx.Err() != nil {
			s.log.Infof("Scan aborted")
			s.publish(&Update{State: Idle, Message: msgAborted})
			return nil
		}

		s.log.Errorf("Scan failed: %v", err)
		s.publish(&Update{State: Failed, Message: msgScanFailed, Err: err})
		return nil
	}

	s.networks = wifis

	update := &Update{State: AwaitingSelection, Networks: wifis}
	if len(wifis) == 0 {
		update.Message = msgNoNetworks
	}
	s.publish(update)

	return nil
}

func (s *Session) selectNetwork(ctx context.Context, index int) error {
	if index < 0 || index >= len(s.networks) {
		return errors.Errorf("%w: %d of %d", ErrInvalidSelection, index, len(s.networks))
	}

	wifi := s.networks[index]
	s.selected = wifi

	s.log.Infof("Selected %v", wifi)

	if wifi.Security == network.Open {
		return s.connect(ctx, wifi, nil)
	}

	s.publish(&Update{State: AwaitingPassword, Ssid: wifi.Name(), Message: msgPassword})

	return nil
}

func (s *Session) connect(ctx context.Context, wifi *network.Wifi, password *string) error {
	opCtx, done := s.beginOperation(ctx)
	defer done()

	ssid := wifi.Name()

	s.publish(&Update{State: Connecting, Ssid: ssid, Message: msgConnectingTo + ssid})

	outcome, err := s.associator.Attempt(opCtx, ssid, password, s.connectTimeout, s.progress(ssid))
	if err != nil {
		s.log.Errorf("Could not connect to %v: %v", ssid, err)
		s.publish(&Update{State: Failed, Ssid: ssid, Message: msgFailed, Err: err})
		return nil
	}

	switch outcome.Result {
	case network.Connected:
	case network.Aborted:
		s.selected = nil
		s.publish(&Update{State: AwaitingSelection, Ssid: ssid, Message: msgAborted, Outcome: outcome})
		return nil
	default:
		s.publish(&Update{
			State:   Failed,
			Ssid:    ssid,
			Status:  outcome.Reason.String(),
			Message: msgFailed,
			Outcome: outcome,
		})
		return nil
	}

	s.publish(&Update{State: Connecting, Ssid: ssid, Status: outcome.Address.String(), Message: msgConnected, Outcome: outcome})

	err = s.persister.Persist(ssid, password)
	if err != nil {
		s.log.Errorf("Could not persist %v: %v", ssid, err)
		s.publish(&Update{State: Failed, Ssid: ssid, Message: msgNotSaved, Outcome: outcome, Err: err})
		return nil
	}

	_ = s.clock.Sleep(context.Background(), s.noticeDelay)

	s.publish(&Update{State: Succeeded, Ssid: ssid, Status: outcome.Address.String(), Message: msgSaved, Outcome: outcome})

	_ = s.clock.Sleep(context.Background(), s.noticeDelay)

	return s.restart()
}

func (s *Session) restart() error {
	s.log.Infof("Restarting device")

	err := s.restarter.Restart()
	if err != nil {
		return errors.Errorf("could not restart: %v", err)
	}

	return nil
}

func (s *Session) progress(ssid string) network.ProgressFunc {
	return func(p *network.Progress) {
		s.publish(&Update{State: Connecting, Ssid: ssid, Status: p.Name, Message: msgConnectingTo + ssid})
	}
}

// publish must be called with mu held.
func (s *Session) publish(update *Update) {
	s.state = update.State

	if update.State == AwaitingSelection && update.Networks == nil {
		update.Networks = s.networks
	}

	s.opMu.Lock()
	s.last = update
	s.opMu.Unlock()

	s.sink.Update(update)
}

func (s *Session) beginOperation(ctx context.Context) (context.Context, func()) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	opCtx, cancel := context.WithCancel(ctx)
	s.opCancel = cancel

	return opCtx, func() {
		s.opMu.Lock()
		defer s.opMu.Unlock()

		cancel()
		s.opCancel = nil
	}
}

// Cancel aborts a running scan or attempt. It reports false when nothing
// is running.
func (s *Session) Cancel() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if s.opCancel == nil {
		return false
	}

	s.log.Infof("Aborting running operation")
	s.opCancel()

	return true
}
