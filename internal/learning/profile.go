package learning

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	neutralInterest = 5
	maxInterest     = 10

	minComplexity     = 1
	defaultComplexity = 3
	maxComplexity     = 5

	maxRecentTopics = 5
)

// ErrInvalidProfile is returned by Validate when a profile violates an invariant.
var ErrInvalidProfile = errors.New("invalid learning profile")

// Profile is the per-session learner model inferred from chat messages.
// It is a value: analyzers return an updated copy and never modify their input.
type Profile struct {
	SubjectInterests     map[Subject]int `json:"subject_interests"`
	ComplexityPreference int             `json:"complexity_preference"`
	LearningStyle        LearningStyle   `json:"learning_style,omitempty"`
	RecentTopics         []Subject       `json:"recent_topics"`
	ResponseLength       ResponseLength  `json:"response_length"`
	LastInteractionTime  time.Time       `json:"last_interaction_time,omitzero"`
}

// NewProfile returns the profile a session starts with: every subject at the
// neutral score, middle complexity, no style, balanced length.
func NewProfile() Profile {
	interests := make(map[Subject]int, len(Subjects))
	for _, s := range Subjects {
		interests[s] = neutralInterest
	}
	return Profile{
		SubjectInterests:     interests,
		ComplexityPreference: defaultComplexity,
		RecentTopics:         []Subject{},
		ResponseLength:       LengthBalanced,
	}
}

// Clone returns a deep copy of p.
func (p Profile) Clone() Profile {
	cp := p
	cp.SubjectInterests = make(map[Subject]int, len(p.SubjectInterests))
	for k, v := range p.SubjectInterests {
		cp.SubjectInterests[k] = v
	}
	cp.RecentTopics = make([]Subject, len(p.RecentTopics))
	copy(cp.RecentTopics, p.RecentTopics)
	return cp
}

// Normalize fills fields a caller may have omitted (missing subjects, zero
// complexity, empty length) with their defaults. Values that are present are
// left as they are; use Validate to reject out-of-range input.
func (p Profile) Normalize() Profile {
	cp := p.Clone()
	for _, s := range Subjects {
		if _, ok := cp.SubjectInterests[s]; !ok {
			cp.SubjectInterests[s] = neutralInterest
		}
	}
	if cp.ComplexityPreference == 0 {
		cp.ComplexityPreference = defaultComplexity
	}
	if cp.ResponseLength == "" {
		cp.ResponseLength = LengthBalanced
	}
	return cp
}

// ParseProfile decodes a profile sent by a client. Fields the client omitted
// take their defaults; fields it sent are kept as sent and must pass Validate,
// so an explicit complexity_preference of 0 is an error.
func ParseProfile(data []byte) (Profile, error) {
	var wire struct {
		Profile
		ComplexityPreference *int            `json:"complexity_preference"`
		ResponseLength       *ResponseLength `json:"response_length"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}

	p := wire.Profile.Normalize()
	if wire.ComplexityPreference != nil {
		p.ComplexityPreference = *wire.ComplexityPreference
	}
	if wire.ResponseLength != nil {
		p.ResponseLength = *wire.ResponseLength
	}
	if err := p.Validate(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

// Validate checks the profile invariants. It is meant for profiles that arrive
// from outside the process; profiles produced by this package always pass.
func (p Profile) Validate() error {
	if len(p.SubjectInterests) != len(Subjects) {
		return fmt.Errorf("%w: subject_interests must have exactly %d subjects", ErrInvalidProfile, len(Subjects))
	}
	for _, s := range Subjects {
		v, ok := p.SubjectInterests[s]
		if !ok {
			return fmt.Errorf("%w: missing subject %q", ErrInvalidProfile, s)
		}
		if v < 0 || v > maxInterest {
			return fmt.Errorf("%w: subject %q score %d outside [0,%d]", ErrInvalidProfile, s, v, maxInterest)
		}
	}
	if p.ComplexityPreference < minComplexity || p.ComplexityPreference > maxComplexity {
		return fmt.Errorf("%w: complexity_preference %d outside [%d,%d]", ErrInvalidProfile, p.ComplexityPreference, minComplexity, maxComplexity)
	}
	if !p.LearningStyle.valid() {
		return fmt.Errorf("%w: unknown learning_style %q", ErrInvalidProfile, p.LearningStyle)
	}
	if len(p.RecentTopics) > maxRecentTopics {
		return fmt.Errorf("%w: recent_topics has %d entries, max %d", ErrInvalidProfile, len(p.RecentTopics), maxRecentTopics)
	}
	for _, t := range p.RecentTopics {
		if !IsSubject(string(t)) {
			return fmt.Errorf("%w: unknown recent topic %q", ErrInvalidProfile, t)
		}
	}
	if !p.ResponseLength.valid() {
		return fmt.Errorf("%w: unknown response_length %q", ErrInvalidProfile, p.ResponseLength)
	}
	return nil
}

// ComplexityTier names a complexity preference for display.
func ComplexityTier(level int) string {
	switch {
	case level <= 1:
		return "Foundational"
	case level == 2:
		return "Beginner"
	case level == 3:
		return "Intermediate"
	case level == 4:
		return "Advanced"
	default:
		return "Expert"
	}
}
