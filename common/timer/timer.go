package timer

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// XTimer records the elapsed time between named marks.
type XTimer struct {
	start time.Time
	last  time.Time
	marks []string
	lock  sync.Mutex
}

func NewXTimer() *XTimer {
	now := time.Now()
	return &XTimer{
		start: now,
		last:  now,
		marks: make([]string, 0),
	}
}

// Mark appends the duration since the previous mark under the given name.
func (t *XTimer) Mark(name string) {
	t.lock.Lock()
	defer t.lock.Unlock()

	now := time.Now()
	t.marks = append(t.marks, fmt.Sprintf("%s:%d", name, now.Sub(t.last).Milliseconds()))
	t.last = now
}

// Print returns all marks plus the total elapsed milliseconds.
func (t *XTimer) Print() string {
	t.lock.Lock()
	defer t.lock.Unlock()

	marks := append(make([]string, 0, len(t.marks)+1), t.marks...)
	marks = append(marks, fmt.Sprintf("total:%d", time.Since(t.start).Milliseconds()))
	return strings.Join(marks, ",")
}

func (t *XTimer) Elapsed() time.Duration {
	return time.Since(t.start)
}
