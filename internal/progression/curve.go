package progression

import (
	"errors"
	"math"
)

// DefaultXPPerLevel is the width of every level on the linear curve.
const DefaultXPPerLevel = 100

var ErrInvalidArgument = errors.New("invalid progression argument")

// Curve maps accumulated XP to a level. Level n starts at n*XPPerLevel XP.
type Curve struct {
	XPPerLevel int
}

// Result is the outcome of applying an XP delta.
type Result struct {
	XP            int
	Level         int
	PreviousLevel int
	LeveledUp     bool
}

func NewCurve(xpPerLevel int) Curve {
	if xpPerLevel <= 0 {
		xpPerLevel = DefaultXPPerLevel
	}
	return Curve{XPPerLevel: xpPerLevel}
}

// LevelFor returns floor(xp / XPPerLevel). Negative XP maps to level 0.
func (c Curve) LevelFor(xp int) int {
	if xp <= 0 || c.XPPerLevel <= 0 {
		return 0
	}
	return xp / c.XPPerLevel
}

// XPForLevel returns the XP at which level begins.
func (c Curve) XPForLevel(level int) int {
	if level <= 0 {
		return 0
	}
	return level * c.XPPerLevel
}

// Progress returns how far xp is into its level and how much more is
// needed to reach the next one.
func (c Curve) Progress(xp int) (into, toNext int) {
	level := c.LevelFor(xp)
	into = xp - c.XPForLevel(level)
	if into < 0 {
		into = 0
	}
	return into, c.XPForLevel(level+1) - xp
}

// Apply adds delta to currentXP and derives the level from the new total.
// currentLevel is only reported back as PreviousLevel; the stored value is
// never used to compute the new one.
func (c Curve) Apply(currentXP, currentLevel, delta int) (Result, error) {
	if c.XPPerLevel <= 0 {
		return Result{}, ErrInvalidArgument
	}
	if delta <= 0 || currentXP < 0 || currentLevel < 0 {
		return Result{}, ErrInvalidArgument
	}
	if currentXP > math.MaxInt-delta {
		return Result{}, ErrInvalidArgument
	}

	xp := currentXP + delta
	level := c.LevelFor(xp)
	return Result{
		XP:            xp,
		Level:         level,
		PreviousLevel: currentLevel,
		LeveledUp:     level > currentLevel,
	}, nil
}
