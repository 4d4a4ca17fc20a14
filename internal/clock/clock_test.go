package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvanceSecond_CarriesIntoHourRow(t *testing.T) {
	m := New(Hour)
	for range 3661 {
		m.AdvanceSecond(1)
	}
	assert.Equal(t, 1, m.Hour)
	assert.Equal(t, 1, m.Minute)
	assert.Equal(t, 1, m.Second)
	assert.Equal(t, 1, m.RowIndex)
}

func TestAdvance_RowFollowsRowUnit(t *testing.T) {
	tests := []struct {
		name    string
		unit    Unit
		advance func(m *Manager)
		wantRow int
	}{
		{"hour direct", Hour, func(m *Manager) { m.AdvanceHour(3) }, 3},
		{"day from hours", Day, func(m *Manager) { m.AdvanceHour(49) }, 2},
		{"minute from seconds", Minute, func(m *Manager) { m.AdvanceSecond(125) }, 2},
		{"ms direct", Millisecond, func(m *Manager) { m.AdvanceMillisecond(10) }, 10},
		{"second from ms", Second, func(m *Manager) { m.AdvanceMillisecond(2500) }, 2},
		{"finer unit does not count", Hour, func(m *Manager) { m.AdvanceMinute(59) }, 0},
		{"coarser unit does not count", Minute, func(m *Manager) { m.AdvanceDay(1) }, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(tt.unit)
			tt.advance(m)
			assert.Equal(t, tt.wantRow, m.RowIndex)
		})
	}
}

func TestAdvanceHour_Overflow(t *testing.T) {
	m := New(Hour)
	m.AdvanceHour(50)
	assert.Equal(t, 2, m.Day)
	assert.Equal(t, 2, m.Hour)
	assert.Equal(t, 50, m.RowIndex)
}

func TestAdvanceMillisecond_FullCascade(t *testing.T) {
	m := New(Day)
	m.AdvanceMillisecond(24 * 60 * 60 * 1000)
	assert.Equal(t, 1, m.Day)
	assert.Zero(t, m.Hour)
	assert.Zero(t, m.Minute)
	assert.Zero(t, m.Second)
	assert.Zero(t, m.Millisecond)
	assert.Equal(t, 1, m.RowIndex)
}

func TestAdvanceRow(t *testing.T) {
	for _, u := range []Unit{Millisecond, Second, Minute, Hour, Day} {
		m := New(u)
		m.AdvanceRow(1)
		m.AdvanceRow(2)
		assert.Equal(t, 3, m.RowIndex, u.String())
	}
}

func TestAdvance_IgnoresNonPositive(t *testing.T) {
	m := New(Hour)
	m.AdvanceHour(0)
	m.AdvanceHour(-4)
	assert.Zero(t, m.Hour)
	assert.Zero(t, m.RowIndex)
}

func TestReset(t *testing.T) {
	m := New(Minute)
	m.AdvanceSecond(3600)
	require.NotZero(t, m.RowIndex)
	m.Reset()
	assert.Equal(t, Manager{RowUnit: Minute}, *m)
}

func TestParseUnit(t *testing.T) {
	tests := map[string]Unit{
		"ms": Millisecond, "second": Second, "m": Minute,
		"HOUR": Hour, "": Hour, "d": Day,
	}
	for in, want := range tests {
		got, err := ParseUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseUnit("fortnight")
	assert.Error(t, err)
}
