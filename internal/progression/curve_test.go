package progression

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCurve_DefaultsNonPositive(t *testing.T) {
	assert.Equal(t, DefaultXPPerLevel, NewCurve(0).XPPerLevel)
	assert.Equal(t, DefaultXPPerLevel, NewCurve(-5).XPPerLevel)
	assert.Equal(t, 250, NewCurve(250).XPPerLevel)
}

func TestCurve_LevelFor(t *testing.T) {
	c := NewCurve(100)
	tests := []struct {
		xp    int
		level int
	}{
		{-10, 0},
		{0, 0},
		{99, 0},
		{100, 1},
		{199, 1},
		{250, 2},
		{1000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, c.LevelFor(tt.xp), "xp=%d", tt.xp)
	}
}

func TestCurve_Progress(t *testing.T) {
	c := NewCurve(100)

	into, toNext := c.Progress(0)
	assert.Equal(t, 0, into)
	assert.Equal(t, 100, toNext)

	into, toNext = c.Progress(130)
	assert.Equal(t, 30, into)
	assert.Equal(t, 70, toNext)

	into, toNext = c.Progress(200)
	assert.Equal(t, 0, into)
	assert.Equal(t, 100, toNext)
}

func TestCurve_Apply(t *testing.T) {
	c := NewCurve(100)

	res, err := c.Apply(0, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, Result{XP: 10, Level: 0, PreviousLevel: 0, LeveledUp: false}, res)

	res, err = c.Apply(90, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 100, res.XP)
	assert.Equal(t, 1, res.Level)
	assert.True(t, res.LeveledUp)

	res, err = c.Apply(95, 0, 250)
	require.NoError(t, err)
	assert.Equal(t, 345, res.XP)
	assert.Equal(t, 3, res.Level, "a large award can skip levels")
}

func TestCurve_ApplyIgnoresStoredLevel(t *testing.T) {
	c := NewCurve(100)

	// A stale stored level never leaks into the result.
	res, err := c.Apply(50, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Level)
	assert.Equal(t, 7, res.PreviousLevel)
	assert.False(t, res.LeveledUp)
}

func TestCurve_ApplyInvalid(t *testing.T) {
	c := NewCurve(100)

	tests := []struct {
		name             string
		xp, level, delta int
	}{
		{"zero delta", 0, 0, 0},
		{"negative delta", 10, 0, -5},
		{"negative xp", -1, 0, 10},
		{"negative level", 0, -1, 10},
		{"overflow", math.MaxInt - 5, 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Apply(tt.xp, tt.level, tt.delta)
			assert.ErrorIs(t, err, ErrInvalidArgument)
		})
	}

	_, err := Curve{}.Apply(0, 0, 10)
	assert.ErrorIs(t, err, ErrInvalidArgument, "zero-width curve")
}

func TestCurve_LevelMonotonic(t *testing.T) {
	c := NewCurve(100)
	xp, level := 0, 0
	for i := 0; i < 200; i++ {
		res, err := c.Apply(xp, level, 7)
		require.NoError(t, err)
		require.GreaterOrEqual(t, res.Level, level)
		require.Equal(t, res.XP/100, res.Level)
		xp, level = res.XP, res.Level
	}
	assert.Equal(t, 1400, xp)
	assert.Equal(t, 14, level)
}
