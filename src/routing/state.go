package routing

import (
	"sync"
	"sync/atomic"
)

// State captures the state of a routing node: Joining, Active, Relocating,
// or Shutdown
type State uint32

const (
	// Joining is the initial state, before the section admits the node.
	Joining State = iota
	// Active is the normal operating state.
	Active
	// Relocating means the node was told to move to another section and is
	// draining before restarting under a new name.
	Relocating
	// Shutdown is shutdown
	Shutdown
)

// String ...
func (s State) String() string {
	switch s {
	case Joining:
		return "Joining"
	case Active:
		return "Active"
	case Relocating:
		return "Relocating"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

// WGLIMIT is the maximum number of goroutines that can be launched through
// state.goFunc
const WGLIMIT = 20

type state struct {
	state   State
	wg      sync.WaitGroup
	wgCount int32
}

func (b *state) getState() State {
	stateAddr := (*uint32)(&b.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (b *state) setState(s State) {
	stateAddr := (*uint32)(&b.state)
	atomic.StoreUint32(stateAddr, uint32(s))
}

// Start a goroutine and add it to waitgroup
func (b *state) goFunc(f func()) {
	tempWgCount := atomic.LoadInt32(&b.wgCount)
	if tempWgCount < WGLIMIT {
		b.wg.Add(1)
		atomic.AddInt32(&b.wgCount, 1)
		go func() {
			defer b.wg.Done()
			atomic.AddInt32(&b.wgCount, -1)
			f()
		}()
	}
}

func (b *state) waitRoutines() {
	b.wg.Wait()
}
