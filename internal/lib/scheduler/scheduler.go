package scheduler

import "time"

// System schedules callbacks on real time.
type System struct{}

// ScheduleOnce runs fn once after d. The returned function cancels
// the callback and reports whether it was cancelled before firing.
func (System) ScheduleOnce(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}
