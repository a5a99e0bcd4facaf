package progress

import "sync"

// State is the progress last reported to a Cell.
type State struct {
	Current uint64
	Max     uint64
	Label   string
}

// Fraction returns Current/Max in [0, 1].
func (s State) Fraction() float64 {
	if s.Max == 0 {
		return 0
	}
	if s.Current >= s.Max {
		return 1
	}
	return float64(s.Current) / float64(s.Max)
}

// Cell is a Receiver holding the latest State. The pipeline writes to it
// and any number of readers may take snapshots.
type Cell struct {
	mu      sync.Mutex
	state   State
	changes chan struct{}
}

func NewCell() *Cell {
	return &Cell{changes: make(chan struct{}, 1)}
}

func (c *Cell) ProgressUpdate(u Update) {
	c.mu.Lock()
	switch u := u.(type) {
	case SetMax:
		c.state.Max = uint64(u)
	case SetProgress:
		c.state.Current = uint64(u)
	case SetLabel:
		c.state.Label = string(u)
	}
	c.mu.Unlock()

	// Coalesce notifications; a reader that is behind sees the
	// latest state on its next Snapshot anyway.
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func (c *Cell) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Changes is signaled after updates. Signals are coalesced.
func (c *Cell) Changes() <-chan struct{} {
	return c.changes
}
