package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// InsertSubject stores a subject and returns its sequential id.
func (db *DB) InsertSubject(s domain.Subject) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO subjects (name, priority, hours_needed, hours_completed)
		VALUES (?, ?, ?, ?)
	`, s.Name, string(s.Priority), s.HoursNeeded, s.HoursCompleted)
	if err != nil {
		return 0, fmt.Errorf("failed to insert subject %s: %w", s.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for subject %s: %w", s.Name, err)
	}
	return id, nil
}

// FindSubjectByID retrieves a subject. It returns nil, nil when absent.
func (db *DB) FindSubjectByID(id int64) (*domain.Subject, error) {
	row := db.conn.QueryRow(`
		SELECT id, name, priority, hours_needed, hours_completed
		FROM subjects WHERE id = ?
	`, id)
	s, err := scanSubject(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find subject %d: %w", id, err)
	}
	return s, nil
}

// GetAllSubjects returns subjects in creation order.
func (db *DB) GetAllSubjects() ([]domain.Subject, error) {
	rows, err := db.conn.Query(`
		SELECT id, name, priority, hours_needed, hours_completed
		FROM subjects ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get subjects: %w", err)
	}
	defer rows.Close()

	var subjects []domain.Subject
	for rows.Next() {
		s, err := scanSubject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subject row: %w", err)
		}
		subjects = append(subjects, *s)
	}
	return subjects, rows.Err()
}

// CompleteGoal marks goalID completed and adds credit hours to the subject.
// It reports false, leaving hours untouched, when the goal was already
// completed.
func (db *DB) CompleteGoal(goalID string, subjectID int64, credit float64, at time.Time) (bool, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return false, fmt.Errorf("failed to begin goal transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.Exec(`
		INSERT OR IGNORE INTO completed_goals (goal_id, subject_id, completed_at)
		VALUES (?, ?, ?)
	`, goalID, subjectID, formatTime(at))
	if err != nil {
		return false, fmt.Errorf("failed to record goal %s: %w", goalID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(`
		UPDATE subjects SET hours_completed = hours_completed + ? WHERE id = ?
	`, credit, subjectID); err != nil {
		return false, fmt.Errorf("failed to credit subject %d: %w", subjectID, err)
	}
	return true, tx.Commit()
}

// GetCompletedGoals returns the set of completed goal ids.
func (db *DB) GetCompletedGoals() (map[string]bool, error) {
	rows, err := db.conn.Query(`SELECT goal_id FROM completed_goals`)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed goals: %w", err)
	}
	defer rows.Close()

	done := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan goal row: %w", err)
		}
		done[id] = true
	}
	return done, rows.Err()
}

// GetSetting reads a stored setting; ok is false when the key is unset.
func (db *DB) GetSetting(key string) (value string, ok bool, err error) {
	err = db.conn.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

// SetSetting writes or replaces a setting.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

func scanSubject(s scanner) (*domain.Subject, error) {
	var subj domain.Subject
	var priority string
	if err := s.Scan(&subj.ID, &subj.Name, &priority, &subj.HoursNeeded, &subj.HoursCompleted); err != nil {
		return nil, err
	}
	subj.Priority = domain.Priority(priority)
	return &subj, nil
}
