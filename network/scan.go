package network

import (
	"context"

	"github.com/go-errors/errors"
)

// Scanner runs single scans on the station interface.
type Scanner struct {
	radio Radio
	log   Logger
}

type ScannerConfig struct {
	Radio  Radio
	Logger Logger
}

func NewScanner(config *ScannerConfig) *Scanner {
	scanner := &Scanner{
		radio: config.Radio,
	}

	if config.Logger != nil {
		scanner.log = config.Logger
	} else {
		scanner.log = noopLogger{}
	}

	return scanner
}

// EnsureActive powers on the station interface unless it already is.
func (s *Scanner) EnsureActive() error {
	active, err := s.radio.Active()
	if err != nil {
		return &RadioError{Op: "active", Err: err}
	}

	if active {
		return nil
	}

	s.log.Debugf("Activating station interface")

	if err := s.radio.SetActive(true); err != nil {
		return &RadioError{Op: "activate", Err: err}
	}

	return nil
}

// Scan returns the networks in the order the radio reported them. The list
// is indexed by the UI, so it is never re-sorted.
func (s *Scanner) Scan(ctx context.Context) ([]*Wifi, error) {
	if err := s.EnsureActive(); err != nil {
		return nil, err
	}

	active, err := s.radio.Active()
	if err != nil {
		return nil, &RadioError{Op: "active", Err: err}
	}

	if !active {
		return nil, &RadioError{Op: "scan", Err: errors.New("station interface did not become active")}
	}

	s.log.Infof("Scanning...")

	wifis, err := s.radio.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		return nil, &RadioError{Op: "scan", Err: err}
	}

	s.log.Infof("Scan found %d networks", len(wifis))

	for i, wifi := range wifis {
		s.log.Debugf("[%d] %v", i, wifi)
	}

	return wifis, nil
}
