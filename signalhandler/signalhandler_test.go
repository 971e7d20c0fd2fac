package signalhandler

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegisterCleanup(t *testing.T) {
	var ran []string
	unregister := RegisterCleanup(func() { ran = append(ran, "viewer") })
	RegisterCleanup(func() { ran = append(ran, "journal") })
	unregister()

	RunCleanups()
	assert.Equal(t, []string{"journal"}, ran)

	// cleanups only run once
	RunCleanups()
	assert.Len(t, ran, 1)
}

func TestHandleSignalExits(t *testing.T) {
	code := -1
	orig := exitFunc
	exitFunc = func(c int) { code = c }
	defer func() { exitFunc = orig }()

	called := false
	RegisterCleanup(func() { called = true })

	handleSignal(syscall.SIGINT)

	assert.True(t, called)
	assert.Equal(t, InterruptExitCode, code)
}

func TestGetOptimalProcs(t *testing.T) {
	assert.GreaterOrEqual(t, GetOptimalProcs(), 1)
}
