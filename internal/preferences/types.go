package preferences

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// ErrInvalid is returned when a preferences record fails validation.
var ErrInvalid = errors.New("invalid preferences")

// Learning styles a user may state explicitly. These are independent of the
// styles the tutor infers from chat.
const (
	StyleVisual      = "visual"
	StyleAuditory    = "auditory"
	StyleReading     = "reading"
	StyleKinesthetic = "kinesthetic"
)

// Difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Subjects a user can pick. This list is for display and filtering only; the
// tutor's inference uses its own keyword taxonomy.
var Subjects = []string{
	"Mathematics",
	"Physics",
	"Chemistry",
	"Biology",
	"History",
	"Literature",
	"Computer Science",
	"Economics",
	"Psychology",
	"Languages",
}

var (
	styles       = []string{StyleVisual, StyleAuditory, StyleReading, StyleKinesthetic}
	difficulties = []string{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}
)

// Preferences is what a user states about themselves. Empty LearningStyle or
// DifficultyLevel means "not stated".
type Preferences struct {
	Subjects        []string  `json:"subjects"`
	LearningStyle   string    `json:"learning_style,omitempty"`
	DifficultyLevel string    `json:"difficulty_level,omitempty"`
	UpdatedAt       time.Time `json:"updated_at,omitzero"`
}

// Validate requires at least one known subject and rejects unknown enum values.
func (p Preferences) Validate() error {
	if len(p.Subjects) == 0 {
		return fmt.Errorf("%w: at least one subject is required", ErrInvalid)
	}
	for _, s := range p.Subjects {
		if !slices.Contains(Subjects, s) {
			return fmt.Errorf("%w: unknown subject %q", ErrInvalid, s)
		}
	}
	if p.LearningStyle != "" && !slices.Contains(styles, p.LearningStyle) {
		return fmt.Errorf("%w: learning_style must be one of %v", ErrInvalid, styles)
	}
	if p.DifficultyLevel != "" && !slices.Contains(difficulties, p.DifficultyLevel) {
		return fmt.Errorf("%w: difficulty_level must be one of %v", ErrInvalid, difficulties)
	}
	return nil
}

func (p Preferences) clone() Preferences {
	cp := p
	cp.Subjects = slices.Clone(p.Subjects)
	if cp.Subjects == nil {
		cp.Subjects = []string{}
	}
	return cp
}
