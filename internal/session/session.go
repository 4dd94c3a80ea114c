// Package session classifies bar timestamps against exchange-local trading
// sessions. All windows are evaluated in a single exchange zone so that
// daylight-saving transitions resolve per timestamp.
package session

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// DefaultZone is the ICT reference zone: all named sessions are defined in
// New York wall-clock time.
const DefaultZone = "America/New_York"

// ErrUnknownSession is returned when a named session is not registered.
var ErrUnknownSession = errors.New("unknown session")

// Clock is a time of day within a session window.
type Clock struct {
	Hour   int
	Minute int
}

// NewClock builds a Clock from hour and minute.
func NewClock(hour, minute int) Clock {
	return Clock{Hour: hour, Minute: minute}
}

// Minutes returns the clock as minutes since midnight.
func (c Clock) Minutes() int {
	return c.Hour*60 + c.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Window is a [Start, End) time-of-day interval. Start > End means the
// window spans midnight.
type Window struct {
	Start Clock
	End   Clock
}

// Classifier converts timestamps to exchange-local wall-clock time and
// tests them against session windows. It holds no mutable state and is safe
// for concurrent use.
type Classifier struct {
	zone     *time.Location
	sessions map[string]Window
}

// NewClassifier loads the named zone and registers the standard ICT
// sessions. Timestamps are converted using the zone's historical offset
// rules, so winter and summer bars both resolve to correct local time.
func NewClassifier(zone string) (*Classifier, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("loading session zone %q: %w", zone, err)
	}
	return &Classifier{
		zone: loc,
		sessions: map[string]Window{
			"premarket":     {Start: NewClock(2, 0), End: NewClock(7, 0)},
			"ny-open":       {Start: NewClock(9, 30), End: NewClock(10, 0)},
			"silver-bullet": {Start: NewClock(10, 0), End: NewClock(11, 0)},
			"london-ny":     {Start: NewClock(8, 0), End: NewClock(11, 0)},
			"power-hour":    {Start: NewClock(14, 0), End: NewClock(15, 0)},
			"afternoon":     {Start: NewClock(13, 0), End: NewClock(16, 0)},
		},
	}, nil
}

// NewDefaultClassifier builds a Classifier in DefaultZone.
func NewDefaultClassifier() (*Classifier, error) {
	return NewClassifier(DefaultZone)
}

// Zone returns the exchange zone the classifier operates in.
func (c *Classifier) Zone() *time.Location {
	return c.zone
}

// InWindow reports whether ts falls within [start, end) exchange-local
// time. The end bound is exclusive. A window whose start is after its end
// spans midnight and matches local >= start OR local < end.
func (c *Classifier) InWindow(ts time.Time, start, end Clock) bool {
	local := ts.In(c.zone)
	cur := local.Hour()*60 + local.Minute()

	s, e := start.Minutes(), end.Minutes()
	if s <= e {
		return cur >= s && cur < e
	}
	return cur >= s || cur < e
}

// InSession tests ts against a named session. Unknown names are a
// configuration error, not a silent false.
func (c *Classifier) InSession(ts time.Time, name string) (bool, error) {
	w, ok := c.sessions[name]
	if !ok {
		return false, fmt.Errorf("%w: %q (available: %v)", ErrUnknownSession, name, c.Sessions())
	}
	return c.InWindow(ts, w.Start, w.End), nil
}

// Lookup returns the window registered under name.
func (c *Classifier) Lookup(name string) (Window, error) {
	w, ok := c.sessions[name]
	if !ok {
		return Window{}, fmt.Errorf("%w: %q", ErrUnknownSession, name)
	}
	return w, nil
}

// Sessions returns the sorted names of all registered sessions.
func (c *Classifier) Sessions() []string {
	names := make([]string, 0, len(c.sessions))
	for name := range c.sessions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsMarketHours reports whether ts falls within cash-market hours:
// 09:30-16:00 regular, 04:00-20:00 extended.
func (c *Classifier) IsMarketHours(ts time.Time, extended bool) bool {
	if extended {
		return c.InWindow(ts, NewClock(4, 0), NewClock(20, 0))
	}
	return c.InWindow(ts, NewClock(9, 30), NewClock(16, 0))
}
