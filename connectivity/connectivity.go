package connectivity

import (
	"context"
	"time"

	"github.com/the-lightning-land/netconfig/clock"
	"github.com/the-lightning-land/netconfig/network"
)

const DefaultPollInterval = time.Second

type State int

const (
	Offline State = iota
	Online
)

func (s State) String() string {
	switch s {
	case Offline:
		return "OFFLINE"
	case Online:
		return "ONLINE"
	default:
		return "INVALID STATE"
	}
}

type Reporter interface {
	CurrentState() State
	// Address is the station's current address, 0.0.0.0 when offline.
	Address() *network.AddressInfo
	WaitForStateChange(context.Context, State) bool
}

// AddressSource is the part of a radio the reporter looks at.
type AddressSource interface {
	Address() (*network.AddressInfo, error)
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

// check RadioReporter compliance to its interface during compile time
var _ Reporter = (*RadioReporter)(nil)

type RadioReporterConfig struct {
	Source       AddressSource
	Clock        clock.Clock
	PollInterval time.Duration
	Logger       Logger
}

// RadioReporter considers the device online while the station interface
// holds an IPv4 address.
type RadioReporter struct {
	source       AddressSource
	clock        clock.Clock
	pollInterval time.Duration
	log          Logger
}

func NewRadioReporter(config *RadioReporterConfig) *RadioReporter {
	reporter := &RadioReporter{
		source:       config.Source,
		clock:        config.Clock,
		pollInterval: config.PollInterval,
	}

	if reporter.clock == nil {
		reporter.clock = clock.New()
	}

	if reporter.pollInterval <= 0 {
		reporter.pollInterval = DefaultPollInterval
	}

	if config.Logger != nil {
		reporter.log = config.Logger
	} else {
		reporter.log = noopLogger{}
	}

	return reporter
}

func (r *RadioReporter) Address() *network.AddressInfo {
	address, err := r.source.Address()
	if err != nil {
		r.log.Debugf("Could not read address: %v", err)
		return &network.AddressInfo{}
	}

	if address == nil {
		return &network.AddressInfo{}
	}

	return address
}

func (r *RadioReporter) CurrentState() State {
	address := r.Address()
	if address.IP == nil || address.IP.IsUnspecified() {
		return Offline
	}

	return Online
}

// WaitForStateChange blocks until the state differs from state and reports
// true, or returns false once ctx is done.
func (r *RadioReporter) WaitForStateChange(ctx context.Context, state State) bool {
	for {
		if current := r.CurrentState(); current != state {
			r.log.Infof("Connectivity changed from %v to %v", state, current)
			return true
		}

		if err := r.clock.Sleep(ctx, r.pollInterval); err != nil {
			return false
		}
	}
}
