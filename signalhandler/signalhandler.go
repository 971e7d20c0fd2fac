package signalhandler

import (
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"

	"imagededup/logging"
)

// InterruptExitCode is the status used when the run is interrupted
const InterruptExitCode = 1

var (
	mu       sync.Mutex
	nextID   int
	cleanups = map[int]func(){}
	exitFunc = os.Exit
)

// SetupHandler installs a SIGINT/SIGTERM handler that runs the registered
// cleanups and exits. It returns a function that uninstalls the handler.
func SetupHandler() func() {
	// Create a channel to receive OS signals
	sigChan := make(chan os.Signal, 1)
	done := make(chan struct{})

	// Register for specific signals
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Handle signals in a separate goroutine
	go func() {
		select {
		case sig := <-sigChan:
			handleSignal(sig)
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigChan)
			close(done)
		})
	}
}

// RegisterCleanup adds fn to the cleanups run on interruption. The returned
// function removes it again.
func RegisterCleanup(fn func()) func() {
	mu.Lock()
	defer mu.Unlock()

	id := nextID
	nextID++
	cleanups[id] = fn

	return func() {
		mu.Lock()
		defer mu.Unlock()
		delete(cleanups, id)
	}
}

// RunCleanups runs and clears every registered cleanup
func RunCleanups() {
	mu.Lock()
	pending := make([]func(), 0, len(cleanups))
	for id, fn := range cleanups {
		pending = append(pending, fn)
		delete(cleanups, id)
	}
	mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func handleSignal(sig os.Signal) {
	logging.LogWarning("Received %s, stopping without deleting anything", sig)
	RunCleanups()
	logging.CloseLogger()
	exitFunc(InterruptExitCode)
}

// GetOptimalProcs returns the optimal number of worker goroutines for the system
func GetOptimalProcs() int {
	// Get the number of CPUs available
	numCPU := runtime.NumCPU()

	// Decoding is memory hungry, leave some headroom
	maxProcs := (numCPU * 3) / 4
	if maxProcs < 1 {
		maxProcs = 1
	}

	return maxProcs
}
