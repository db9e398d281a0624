// Package matching implements the skill-matching scoring engine: level
// normalization primitives, per-dimension feature scores, and weighted
// aggregation into a 0-100 recommendation score.
package matching

import "strconv"

// LevelName is a named skill level.
type LevelName string

// Named skill levels, ordered weakest to strongest.
const (
	LevelBeginner     LevelName = "beginner"
	LevelIntermediate LevelName = "intermediate"
	LevelAdvanced     LevelName = "advanced"
	LevelExpert       LevelName = "expert"
)

// Level is a skill level that arrives in one of two representations:
// a numeric value on a 1-5 scale, or a named level. Upstream data is
// inconsistent about which form it uses, so both are first-class.
type Level struct {
	// Numeric is the 1-5 value when IsNumeric is true.
	Numeric float64 `json:"numeric,omitempty"`

	// Name is the named level when IsNumeric is false.
	Name LevelName `json:"name,omitempty"`

	// IsNumeric selects the active representation.
	IsNumeric bool `json:"is_numeric,omitempty"`
}

// NumericLevel creates a Level from a 1-5 numeric value.
func NumericLevel(v float64) Level {
	return Level{Numeric: v, IsNumeric: true}
}

// NamedLevel creates a Level from a named level.
func NamedLevel(name LevelName) Level {
	return Level{Name: name}
}

// ParseLevel interprets a raw string as a Level. Numeric strings are
// treated as 1-5 values; anything else is treated as a named level.
func ParseLevel(raw string) Level {
	if v, err := strconv.ParseFloat(raw, 64); err == nil {
		return NumericLevel(v)
	}
	return NamedLevel(LevelName(raw))
}

// neutralLevel is the normalized value used for unrecognized levels.
const neutralLevel = 0.5

// Normalize maps a level onto the [0,1] scale. Numeric values are
// divided by 5 and clamped. Named levels map to fixed points, and
// unrecognized names fall back to 0.5 rather than failing.
func (l Level) Normalize() float64 {
	if l.IsNumeric {
		return clamp01(l.Numeric / 5)
	}
	switch l.Name {
	case LevelBeginner:
		return 0.25
	case LevelIntermediate:
		return 0.5
	case LevelAdvanced:
		return 0.75
	case LevelExpert:
		return 1.0
	default:
		return neutralLevel
	}
}

// Ordinal maps a named level to its 1-4 rank for ordinal comparisons.
// Unrecognized names rank as intermediate.
func (l LevelName) Ordinal() int {
	switch l {
	case LevelBeginner:
		return 1
	case LevelIntermediate:
		return 2
	case LevelAdvanced:
		return 3
	case LevelExpert:
		return 4
	default:
		return 2
	}
}

// LevelFromYears buckets years of experience into a named level.
func LevelFromYears(years float64) LevelName {
	switch {
	case years < 1:
		return LevelBeginner
	case years < 3:
		return LevelIntermediate
	case years < 6:
		return LevelAdvanced
	default:
		return LevelExpert
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
