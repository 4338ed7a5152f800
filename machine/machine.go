package machine

type Button int

const (
	ButtonA Button = iota
	ButtonB
	ButtonUp
	ButtonDown
)

func (b Button) String() string {
	switch b {
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonUp:
		return "UP"
	case ButtonDown:
		return "DOWN"
	default:
		return "INVALID BUTTON"
	}
}

// Machine is the handheld device the menu runs on.
type Machine interface {
	Start() error
	Stop() error
	// ButtonEvents delivers a value for every button press.
	ButtonEvents() <-chan Button
	// Restart reboots into the saved configuration. On success it does
	// not return.
	Restart() error
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
