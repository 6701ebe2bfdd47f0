// api/analytics/window.go
package analytics

import "time"

// Window is a half-open time interval [Start, End). Every windowed
// aggregation and comparison in the engine derives its bounds here so the
// current and previous windows can never drift apart.
type Window struct {
	Start time.Time
	End   time.Time
}

// LastDays returns the trailing window of the given length ending at now.
func LastDays(now time.Time, days int) Window {
	end := now.UTC()
	return Window{
		Start: end.Add(-time.Duration(days) * 24 * time.Hour),
		End:   end,
	}
}

// Previous returns the immediately preceding window of equal length,
// non-overlapping with w.
func (w Window) Previous() Window {
	length := w.End.Sub(w.Start)
	return Window{
		Start: w.Start.Add(-length),
		End:   w.Start,
	}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Days reports the window length in whole days.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start) / (24 * time.Hour))
}

// DayKey buckets a timestamp by its UTC calendar day.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
