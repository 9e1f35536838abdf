package feed

import (
	"fmt"
	"strings"
)

type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

// Levels lists CEFR bands from easiest to hardest.
var Levels = []Level{LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2}

func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Levels {
		if l == known {
			return l, nil
		}
	}
	return "", fmt.Errorf("unknown level %q", s)
}

// AccessibleLevels returns every level at or below l. Unknown levels get nil.
func AccessibleLevels(l Level) []Level {
	for i, known := range Levels {
		if known == l {
			out := make([]Level, i+1)
			copy(out, Levels[:i+1])
			return out
		}
	}
	return nil
}

func LevelStrings(levels []Level) []string {
	out := make([]string, len(levels))
	for i, l := range levels {
		out[i] = string(l)
	}
	return out
}
