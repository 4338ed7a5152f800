package machine

import (
	"os"
	"testing"

	"github.com/go-errors/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestNewRestarter_DefaultsToExec(t *testing.T) {
	r, err := NewRestarter(&RestarterConfig{})
	require.NoError(t, err)

	var steps []string
	r.sync = func() {}
	r.exec = func(argv0 string, argv []string, envv []string) error {
		steps = append(steps, "exec")
		return nil
	}
	r.reboot = func(cmd int) error {
		steps = append(steps, "reboot")
		return nil
	}

	require.NoError(t, r.Restart())
	assert.Equal(t, []string{"exec"}, steps)
}

func TestNewRestarter_UnknownMode(t *testing.T) {
	_, err := NewRestarter(&RestarterConfig{Mode: "poweroff"})
	assert.Error(t, err)
}

func TestRestarter_ExecSyncsFirst(t *testing.T) {
	r, err := NewRestarter(&RestarterConfig{Mode: RestartExec})
	require.NoError(t, err)

	var steps []string
	var argv []string
	r.sync = func() { steps = append(steps, "sync") }
	r.exec = func(argv0 string, a []string, envv []string) error {
		steps = append(steps, "exec")
		argv = a
		return nil
	}
	r.reboot = func(cmd int) error {
		t.Fatal("reboot must not be called in exec mode")
		return nil
	}

	require.NoError(t, r.Restart())
	assert.Equal(t, []string{"sync", "exec"}, steps)
	assert.Equal(t, os.Args, argv)
}

func TestRestarter_Reboot(t *testing.T) {
	r, err := NewRestarter(&RestarterConfig{Mode: RestartReboot})
	require.NoError(t, err)

	var got int
	r.sync = func() {}
	r.reboot = func(cmd int) error {
		got = cmd
		return errors.New("operation not permitted")
	}

	err = r.Restart()
	assert.Error(t, err)
	assert.Equal(t, unix.LINUX_REBOOT_CMD_RESTART, got)
}

func TestMockMachine_PressAndRestart(t *testing.T) {
	m := NewMockMachine(&MockMachineConfig{})
	require.NoError(t, m.Start())

	m.Press(ButtonB)
	assert.Equal(t, ButtonB, <-m.ButtonEvents())

	restarted := false
	m.Restarted = func() { restarted = true }
	require.NoError(t, m.Restart())

	assert.True(t, restarted)
	assert.Equal(t, 1, m.Restarts())
	require.NoError(t, m.Stop())
}

func TestBadgeMachine_RestartWithoutRestarter(t *testing.T) {
	m := NewBadgeMachine(&BadgeMachineConfig{})
	assert.Error(t, m.Restart())
}
