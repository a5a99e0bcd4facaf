package progress

import (
	"log"
	"sync"
	"time"
)

// Logger is a Receiver that prints progress lines. Progress lines are
// throttled to one per Interval; labels are always printed.
type Logger struct {
	Log      *log.Logger
	Prefix   string
	Interval time.Duration

	mu       sync.Mutex
	max      uint64
	last     time.Time
	lastLine uint64
	now      func() time.Time
}

func NewLogger(l *log.Logger, prefix string) *Logger {
	return &Logger{
		Log:      l,
		Prefix:   prefix,
		Interval: 500 * time.Millisecond,
		now:      time.Now,
	}
}

func (r *Logger) ProgressUpdate(u Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch u := u.(type) {
	case SetMax:
		r.max = uint64(u)
	case SetLabel:
		r.Log.Printf("[%s] %s", r.Prefix, string(u))
	case SetProgress:
		cur := uint64(u)
		now := time.Now()
		if r.now != nil {
			now = r.now()
		}
		done := r.max > 0 && cur >= r.max
		if !done && now.Sub(r.last) < r.Interval {
			return
		}
		if cur == r.lastLine && !r.last.IsZero() {
			return
		}
		r.last, r.lastLine = now, cur
		s := State{Current: cur, Max: r.max}
		r.Log.Printf("[%s] Progress: %.1f%%", r.Prefix, s.Fraction()*100)
	}
}
