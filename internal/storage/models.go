package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

type Preferences struct {
	UserID          string
	Subjects        string // JSON array stored as text
	LearningStyle   string
	DifficultyLevel string
	UpdatedAt       time.Time
}
