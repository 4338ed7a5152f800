package network

import (
	"context"
	"sync"
	"time"

	"github.com/go-errors/errors"
	"github.com/the-lightning-land/netconfig/clock"
)

const (
	DefaultConnectTimeout = 15 * time.Second
	DefaultSettleInterval = 300 * time.Millisecond
	DefaultPollInterval   = 200 * time.Millisecond
)

type Result int

const (
	Connected Result = iota
	Failed
	TimedOut
	Aborted
)

func (r Result) String() string {
	switch r {
	case Connected:
		return "CONNECTED"
	case Failed:
		return "FAILED"
	case TimedOut:
		return "TIMED OUT"
	case Aborted:
		return "ABORTED"
	default:
		return "INVALID RESULT"
	}
}

// Outcome is the result of one association attempt.
type Outcome struct {
	Result Result
	// Address is set when Result is Connected.
	Address *AddressInfo
	// Reason is the last status seen before the attempt ended.
	Reason  StatusKind
	Elapsed time.Duration
}

// Progress is reported on every poll while an attempt is running.
type Progress struct {
	Kind StatusKind
	// Name is the platform's symbolic name of the raw status.
	Name    string
	Elapsed time.Duration
}

type ProgressFunc func(*Progress)

// Associator drives connect-and-poll cycles against the radio. Only one
// cycle runs at a time: starting an attempt cancels the previous one.
type Associator struct {
	radio          Radio
	classifier     *Classifier
	clock          clock.Clock
	log            Logger
	settleInterval time.Duration
	pollInterval   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64

	// running is held for the whole attempt, including its abort cleanup.
	running sync.Mutex
}

type AssociatorConfig struct {
	Radio Radio
	// Classifier defaults to one built from the radio's status constants.
	Classifier     *Classifier
	Clock          clock.Clock
	Logger         Logger
	SettleInterval time.Duration
	PollInterval   time.Duration
}

func NewAssociator(config *AssociatorConfig) *Associator {
	associator := &Associator{
		radio:          config.Radio,
		classifier:     config.Classifier,
		clock:          config.Clock,
		settleInterval: config.SettleInterval,
		pollInterval:   config.PollInterval,
	}

	if associator.classifier == nil {
		associator.classifier = NewClassifier(config.Radio.StatusConstants())
	}

	if associator.clock == nil {
		associator.clock = clock.New()
	}

	if associator.settleInterval <= 0 {
		associator.settleInterval = DefaultSettleInterval
	}

	if associator.pollInterval <= 0 {
		associator.pollInterval = DefaultPollInterval
	}

	if config.Logger != nil {
		associator.log = config.Logger
	} else {
		associator.log = noopLogger{}
	}

	return associator
}

// begin cancels the previous attempt and waits until it has let go of the
// radio.
func (a *Associator) begin(ctx context.Context) (context.Context, func()) {
	a.mu.Lock()
	if a.cancel != nil {
		a.log.Debugf("Cancelling previous attempt")
		a.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.gen++
	gen := a.gen
	a.mu.Unlock()

	a.running.Lock()

	return ctx, func() {
		a.mu.Lock()
		cancel()
		if a.gen == gen {
			a.cancel = nil
		}
		a.mu.Unlock()

		a.running.Unlock()
	}
}

// Attempt resets the radio, asks it to join ssid and polls its status until
// an address is obtained or timeout has been spent polling. Elapsed time is
// counted in poll intervals, so the wall time may exceed timeout by up to
// one interval.
//
// Failures the user can act on (wrong passphrase, missing access point,
// timeout) are reported through the Outcome. Only driver faults are
// returned as *RadioError.
func (a *Associator) Attempt(ctx context.Context, ssid string, password *string, timeout time.Duration, progress ProgressFunc) (*Outcome, error) {
	ctx, done := a.begin(ctx)
	defer done()

	// superseded before it got the radio
	if ctx.Err() != nil {
		a.log.Infof("Attempt to connect to %v was superseded", ssid)
		return &Outcome{Result: Aborted, Reason: Unknown}, nil
	}

	if progress == nil {
		progress = func(*Progress) {}
	}

	a.log.Infof("Connecting to %v with password %v", ssid, mask(password))

	started := a.clock.Now()

	if err := a.reset(ctx); err != nil {
		if ctx.Err() != nil {
			return a.abort(0, Unknown), nil
		}
		return nil, err
	}

	if err := a.radio.Connect(ssid, password); err != nil {
		return nil, &RadioError{Op: "connect", Err: err}
	}

	var elapsed time.Duration

	raw, err := a.radio.Status()
	if err != nil {
		a.log.Errorf("Could not read status: %v", err)
		return &Outcome{Result: Failed, Reason: Unknown}, nil
	}
	kind := a.classifier.Classify(raw)

	for kind != GotAddress && elapsed < timeout {
		progress(&Progress{
			Kind:    kind,
			Name:    a.classifier.Name(raw),
			Elapsed: elapsed,
		})

		if err := a.clock.Sleep(ctx, a.pollInterval); err != nil {
			return a.abort(elapsed, kind), nil
		}
		elapsed += a.pollInterval

		raw, err = a.radio.Status()
		if err != nil {
			a.log.Errorf("Could not read status after %v: %v", elapsed, err)
			return &Outcome{Result: Failed, Reason: kind, Elapsed: elapsed}, nil
		}
		kind = a.classifier.Classify(raw)
	}

	if kind != GotAddress {
		a.log.Warnf("Connecting to %v timed out after %v, last status %v", ssid, elapsed, kind)
		return &Outcome{Result: TimedOut, Reason: kind, Elapsed: elapsed}, nil
	}

	address, err := a.radio.Address()
	if err != nil {
		return nil, &RadioError{Op: "ifconfig", Err: err}
	}

	a.log.Infof("Connected to %v as %v after %v (%v wall time)", ssid, address, elapsed, a.clock.Now().Sub(started))

	return &Outcome{
		Result:  Connected,
		Address: address,
		Reason:  kind,
		Elapsed: elapsed,
	}, nil
}

// reset brings the radio into a known state so association state from a
// previous attempt cannot leak into this one.
func (a *Associator) reset(ctx context.Context) error {
	active, err := a.radio.Active()
	if err != nil {
		return &RadioError{Op: "active", Err: err}
	}

	if active {
		if err := a.radio.SetActive(false); err != nil {
			return &RadioError{Op: "deactivate", Err: err}
		}

		if err := a.clock.Sleep(ctx, a.settleInterval); err != nil {
			return errors.Errorf("settle interrupted: %v", err)
		}
	}

	if err := a.radio.SetActive(true); err != nil {
		return &RadioError{Op: "activate", Err: err}
	}

	return nil
}

func (a *Associator) abort(elapsed time.Duration, kind StatusKind) *Outcome {
	a.log.Infof("Attempt aborted after %v", elapsed)

	if err := a.radio.SetActive(false); err != nil {
		a.log.Warnf("Could not deactivate radio after abort: %v", err)
	}

	return &Outcome{Result: Aborted, Reason: kind, Elapsed: elapsed}
}

func mask(password *string) string {
	if password == nil {
		return "<none>"
	}

	return "***"
}
