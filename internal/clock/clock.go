// Package clock provides the multi-unit logical clock that drives the
// pipeline row cursor.
package clock

import (
	"fmt"
	"strings"
)

// Unit is a clock granularity.
type Unit int

const (
	Millisecond Unit = iota
	Second
	Minute
	Hour
	Day
)

var unitNames = [...]string{"millisecond", "second", "minute", "hour", "day"}

func (u Unit) String() string {
	if u < Millisecond || u > Day {
		return fmt.Sprintf("Unit(%d)", int(u))
	}
	return unitNames[u]
}

// ParseUnit accepts full names ("hour") and short forms ("ms", "s", "m", "h", "d").
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ms", "millisecond", "milliseconds":
		return Millisecond, nil
	case "s", "second", "seconds":
		return Second, nil
	case "m", "minute", "minutes":
		return Minute, nil
	case "h", "hour", "hours", "":
		return Hour, nil
	case "d", "day", "days":
		return Day, nil
	default:
		return 0, fmt.Errorf("unknown time unit %q", s)
	}
}

// Manager counts logical time and derives the row index from it.
//
// Each Advance call bumps RowIndex by the same amount when its unit is the
// configured RowUnit. Overflow carries into the next coarser unit one step
// at a time, so a carry into RowUnit also advances the row.
type Manager struct {
	Millisecond int
	Second      int
	Minute      int
	Hour        int
	Day         int
	RowIndex    int
	RowUnit     Unit
}

// New returns a zeroed manager whose row advances with unit.
func New(unit Unit) *Manager {
	return &Manager{RowUnit: unit}
}

// Reset zeroes every counter and the row index; RowUnit is kept.
func (m *Manager) Reset() {
	*m = Manager{RowUnit: m.RowUnit}
}

// AdvanceRow advances the row unit by by.
func (m *Manager) AdvanceRow(by int) {
	m.Advance(m.RowUnit, by)
}

// Advance dispatches to the per-unit advance for u.
func (m *Manager) Advance(u Unit, by int) {
	switch u {
	case Millisecond:
		m.AdvanceMillisecond(by)
	case Second:
		m.AdvanceSecond(by)
	case Minute:
		m.AdvanceMinute(by)
	case Hour:
		m.AdvanceHour(by)
	case Day:
		m.AdvanceDay(by)
	}
}

func (m *Manager) AdvanceMillisecond(by int) {
	if !m.bump(&m.Millisecond, Millisecond, by) {
		return
	}
	for m.Millisecond >= 1000 {
		m.Millisecond -= 1000
		m.AdvanceSecond(1)
	}
}

func (m *Manager) AdvanceSecond(by int) {
	if !m.bump(&m.Second, Second, by) {
		return
	}
	for m.Second >= 60 {
		m.Second -= 60
		m.AdvanceMinute(1)
	}
}

func (m *Manager) AdvanceMinute(by int) {
	if !m.bump(&m.Minute, Minute, by) {
		return
	}
	for m.Minute >= 60 {
		m.Minute -= 60
		m.AdvanceHour(1)
	}
}

func (m *Manager) AdvanceHour(by int) {
	if !m.bump(&m.Hour, Hour, by) {
		return
	}
	for m.Hour >= 24 {
		m.Hour -= 24
		m.AdvanceDay(1)
	}
}

func (m *Manager) AdvanceDay(by int) {
	m.bump(&m.Day, Day, by)
}

// bump adds by to counter and links the row index. Time only moves forward:
// non-positive deltas are ignored.
func (m *Manager) bump(counter *int, u Unit, by int) bool {
	if by <= 0 {
		return false
	}
	*counter += by
	if u == m.RowUnit {
		m.RowIndex += by
	}
	return true
}

func (m *Manager) String() string {
	return fmt.Sprintf("day=%d %02d:%02d:%02d.%03d row=%d/%s",
		m.Day, m.Hour, m.Minute, m.Second, m.Millisecond, m.RowIndex, m.RowUnit)
}
