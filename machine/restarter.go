package machine

import (
	"os"

	"github.com/go-errors/errors"
	"golang.org/x/sys/unix"
)

const (
	RestartExec   = "exec"
	RestartReboot = "reboot"
)

type RestarterConfig struct {
	// Mode is RestartExec to re-execute the running binary or
	// RestartReboot to reboot the whole device.
	Mode   string
	Logger Logger
}

// Restarter flushes pending writes to disk and then restarts either the
// process or the device.
type Restarter struct {
	mode   string
	log    Logger
	sync   func()
	exec   func(argv0 string, argv []string, envv []string) error
	reboot func(cmd int) error
}

func NewRestarter(config *RestarterConfig) (*Restarter, error) {
	restarter := &Restarter{
		mode:   config.Mode,
		sync:   unix.Sync,
		exec:   unix.Exec,
		reboot: unix.Reboot,
	}

	switch restarter.mode {
	case "":
		restarter.mode = RestartExec
	case RestartExec, RestartReboot:
	default:
		return nil, errors.Errorf("unknown restart mode %v", config.Mode)
	}

	if config.Logger != nil {
		restarter.log = config.Logger
	} else {
		restarter.log = noopLogger{}
	}

	return restarter, nil
}

func (r *Restarter) Restart() error {
	r.log.Infof("Syncing filesystems before %v restart", r.mode)
	r.sync()

	switch r.mode {
	case RestartReboot:
		err := r.reboot(unix.LINUX_REBOOT_CMD_RESTART)
		if err != nil {
			return errors.Errorf("could not reboot: %v", err)
		}
	default:
		exe, err := os.Executable()
		if err != nil {
			return errors.Errorf("could not resolve executable path: %v", err)
		}

		err = r.exec(exe, os.Args, os.Environ())
		if err != nil {
			return errors.Errorf("could not exec %v: %v", exe, err)
		}
	}

	return nil
}
