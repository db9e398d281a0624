package matching

import (
	"math"
	"testing"
)

func TestLevel_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		level Level
		want  float64
	}{
		{"numeric mid scale", NumericLevel(3), 0.6},
		{"numeric top of scale", NumericLevel(5), 1.0},
		{"numeric above scale clamps", NumericLevel(7), 1.0},
		{"numeric below zero clamps", NumericLevel(-1), 0},
		{"named beginner", NamedLevel(LevelBeginner), 0.25},
		{"named intermediate", NamedLevel(LevelIntermediate), 0.5},
		{"named advanced", NamedLevel(LevelAdvanced), 0.75},
		{"named expert", NamedLevel(LevelExpert), 1.0},
		{"unrecognized name is neutral", NamedLevel("wizard"), 0.5},
		{"empty name is neutral", NamedLevel(""), 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.level.Normalize(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Normalize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"4", 0.8},
		{"4.5", 0.9},
		{"advanced", 0.75},
		{"expert", 1.0},
		{"not-a-level", 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseLevel(tt.raw).Normalize(); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseLevel(%q).Normalize() = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestLevelName_Ordinal(t *testing.T) {
	tests := []struct {
		name LevelName
		want int
	}{
		{LevelBeginner, 1},
		{LevelIntermediate, 2},
		{LevelAdvanced, 3},
		{LevelExpert, 4},
		{"unknown", 2},
	}

	for _, tt := range tests {
		if got := tt.name.Ordinal(); got != tt.want {
			t.Errorf("Ordinal(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestLevelFromYears(t *testing.T) {
	tests := []struct {
		years float64
		want  LevelName
	}{
		{0, LevelBeginner},
		{0.9, LevelBeginner},
		{1, LevelIntermediate},
		{2.9, LevelIntermediate},
		{3, LevelAdvanced},
		{5.9, LevelAdvanced},
		{6, LevelExpert},
		{20, LevelExpert},
	}

	for _, tt := range tests {
		if got := LevelFromYears(tt.years); got != tt.want {
			t.Errorf("LevelFromYears(%v) = %q, want %q", tt.years, got, tt.want)
		}
	}
}
