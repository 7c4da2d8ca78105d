package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SavePreferences inserts or replaces the preferences row for p.UserID.
// A zero UpdatedAt is stamped with the current time.
func (s *Store) SavePreferences(p Preferences) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now()
	}
	if p.Subjects == "" {
		p.Subjects = "[]"
	}
	_, err := s.db.Exec(`
		INSERT INTO user_preferences (user_id, subjects, learning_style, difficulty_level, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			subjects = excluded.subjects,
			learning_style = excluded.learning_style,
			difficulty_level = excluded.difficulty_level,
			updated_at = excluded.updated_at`,
		p.UserID, p.Subjects, p.LearningStyle, p.DifficultyLevel, p.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

func (s *Store) GetPreferences(userID string) (Preferences, error) {
	var p Preferences
	var updatedAt string
	err := s.db.QueryRow(`
		SELECT user_id, subjects, learning_style, difficulty_level, updated_at
		FROM user_preferences WHERE user_id = ?`, userID,
	).Scan(&p.UserID, &p.Subjects, &p.LearningStyle, &p.DifficultyLevel, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Preferences{}, ErrNotFound
	}
	if err != nil {
		return Preferences{}, err
	}
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return Preferences{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	p.UpdatedAt = t
	return p, nil
}

func (s *Store) DeletePreferences(userID string) error {
	res, err := s.db.Exec(`DELETE FROM user_preferences WHERE user_id = ?`, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
