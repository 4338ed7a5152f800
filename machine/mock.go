package machine

import (
	"sync"
)

// check MockMachine compliance to its interface during compile time
var _ Machine = (*MockMachine)(nil)

type MockMachine struct {
	log      Logger
	events   chan Button
	mu       sync.Mutex
	restarts int
	// Restarted, if set, is called instead of restarting anything.
	Restarted func()
}

type MockMachineConfig struct {
	Logger Logger
}

func NewMockMachine(config *MockMachineConfig) *MockMachine {
	machine := &MockMachine{
		events: make(chan Button, 8),
	}

	if config.Logger != nil {
		machine.log = config.Logger
	} else {
		machine.log = noopLogger{}
	}

	return machine
}

func (m *MockMachine) Start() error {
	m.log.Infof("Started mock machine")
	return nil
}

func (m *MockMachine) Stop() error {
	m.log.Infof("Stopped mock machine")
	return nil
}

func (m *MockMachine) ButtonEvents() <-chan Button {
	return m.events
}

// Press simulates a button press.
func (m *MockMachine) Press(button Button) {
	m.log.Infof("Pressing button %v", button)
	m.events <- button
}

func (m *MockMachine) Restart() error {
	m.mu.Lock()
	m.restarts++
	restarted := m.Restarted
	m.mu.Unlock()

	m.log.Infof("Restarting mock machine")

	if restarted != nil {
		restarted()
	}

	return nil
}

func (m *MockMachine) Restarts() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.restarts
}
