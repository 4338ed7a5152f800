package machine

import (
	"sync"
	"time"

	"github.com/go-errors/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

const (
	debounce     = 50 * time.Millisecond
	edgeInterval = 100 * time.Millisecond
)

// check BadgeMachine compliance to its interface during compile time
var _ Machine = (*BadgeMachine)(nil)

type BadgeMachineConfig struct {
	// Pin names as known to gpioreg, e.g. GPIO17. Empty names are skipped.
	ButtonAPin    string
	ButtonBPin    string
	ButtonUpPin   string
	ButtonDownPin string
	Restarter     *Restarter
	Logger        Logger
}

// BadgeMachine reads the badge's push buttons from GPIO. Buttons pull the
// line low when pressed.
type BadgeMachine struct {
	pinNames  map[Button]string
	restarter *Restarter
	log       Logger
	events    chan Button
	done      chan struct{}
	wg        sync.WaitGroup
}

func NewBadgeMachine(config *BadgeMachineConfig) *BadgeMachine {
	machine := &BadgeMachine{
		pinNames: map[Button]string{
			ButtonA:    config.ButtonAPin,
			ButtonB:    config.ButtonBPin,
			ButtonUp:   config.ButtonUpPin,
			ButtonDown: config.ButtonDownPin,
		},
		restarter: config.Restarter,
		events:    make(chan Button, 8),
		done:      make(chan struct{}),
	}

	if config.Logger != nil {
		machine.log = config.Logger
	} else {
		machine.log = noopLogger{}
	}

	return machine
}

func (m *BadgeMachine) Start() error {
	_, err := host.Init()
	if err != nil {
		return errors.Errorf("could not initialize periph: %v", err)
	}

	for button, name := range m.pinNames {
		if name == "" {
			continue
		}

		pin := gpioreg.ByName(name)
		if pin == nil {
			return errors.Errorf("could not find pin %v for button %v", name, button)
		}

		err := pin.In(gpio.PullUp, gpio.FallingEdge)
		if err != nil {
			return errors.Errorf("could not set up pin %v: %v", name, err)
		}

		m.log.Debugf("Listening on %v for button %v", name, button)

		m.wg.Add(1)
		go m.watch(button, pin)
	}

	return nil
}

func (m *BadgeMachine) watch(button Button, pin gpio.PinIO) {
	defer m.wg.Done()

	var last time.Time

	for {
		select {
		case <-m.done:
			return
		default:
		}

		if !pin.WaitForEdge(edgeInterval) {
			continue
		}

		now := time.Now()
		if now.Sub(last) < debounce || pin.Read() != gpio.Low {
			continue
		}
		last = now

		select {
		case m.events <- button:
		default:
			m.log.Warnf("Dropped press of button %v", button)
		}
	}
}

func (m *BadgeMachine) Stop() error {
	close(m.done)
	m.wg.Wait()

	return nil
}

func (m *BadgeMachine) ButtonEvents() <-chan Button {
	return m.events
}

func (m *BadgeMachine) Restart() error {
	if m.restarter == nil {
		return errors.New("no restarter configured")
	}

	return m.restarter.Restart()
}
