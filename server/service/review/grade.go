package review

import (
	"encoding"
	"encoding/json"
	"fmt"
	"strings"
)

// Grade is a reviewer's assessment of how well an item was recalled.
// The integer values are the wire form accepted from the presentation
// layer: 0 through 3, worst to best.
type Grade int

const (
	// GradeAgain indicates the item was not recalled at all.
	GradeAgain Grade = iota
	// GradeHard indicates the item was recalled with serious difficulty.
	GradeHard
	// GradeGood indicates the item was recalled with some effort.
	GradeGood
	// GradeEasy indicates the item was recalled instantly.
	GradeEasy
)

var gradeNames = [...]string{"again", "hard", "good", "easy"}

var gradeByName = map[string]Grade{
	"again": GradeAgain,
	"hard":  GradeHard,
	"good":  GradeGood,
	"easy":  GradeEasy,
}

// IsValid reports whether g is one of the four defined grades.
func (g Grade) IsValid() bool {
	return g >= GradeAgain && g <= GradeEasy
}

func (g Grade) String() string {
	if !g.IsValid() {
		return fmt.Sprintf("grade(%d)", int(g))
	}
	return gradeNames[g]
}

// ParseGrade converts a grade name such as "good" into a Grade.
// Matching is case-insensitive.
func ParseGrade(s string) (Grade, error) {
	g, ok := gradeByName[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown grade %q", s)
	}
	return g, nil
}

// MarshalText encodes the grade as its lowercase name.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("invalid grade %d", int(g))
	}
	return []byte(gradeNames[g]), nil
}

// UnmarshalText decodes a grade from its name.
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}

// MarshalJSON encodes the grade as its integer wire value.
func (g Grade) MarshalJSON() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("invalid grade %d", int(g))
	}
	return json.Marshal(int(g))
}

// UnmarshalJSON accepts either the integer wire value or the grade name.
func (g *Grade) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		parsed := Grade(n)
		if !parsed.IsValid() {
			return fmt.Errorf("invalid grade %d", n)
		}
		*g = parsed
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("grade must be an integer or a string: %w", err)
	}
	return g.UnmarshalText([]byte(s))
}

var (
	_ fmt.Stringer             = Grade(0)
	_ encoding.TextMarshaler   = Grade(0)
	_ encoding.TextUnmarshaler = (*Grade)(nil)
	_ json.Marshaler           = Grade(0)
	_ json.Unmarshaler         = (*Grade)(nil)
)
