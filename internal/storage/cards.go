package storage

import (
	"database/sql"
	"fmt"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/knol"
)

const cardColumns = `id, front, back, context, ease_factor, interval_days, repetitions, next_review, created, source_id`

// InsertCard inserts a new card into the database.
func (db *DB) InsertCard(card domain.Card) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (id, front, back, context, front_hash, ease_factor, interval_days, repetitions, next_review, created, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID,
		card.Front,
		card.Back,
		card.Context,
		knol.FrontHash(card.Front),
		card.EaseFactor,
		card.Interval,
		card.Repetitions,
		formatTime(card.NextReview),
		formatTime(card.Created),
		sql.NullInt64{Int64: card.SourceID, Valid: card.SourceID != 0},
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
	}
	return nil
}

// FindCardByID retrieves a card by its id. It returns nil, nil when absent.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	return card, nil
}

// HasFront reports whether a card with an equivalent front already exists.
func (db *DB) HasFront(front string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM cards WHERE front_hash = ?`, knol.FrontHash(front)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to look up front: %w", err)
	}
	return n > 0, nil
}

// GetAllCards returns every card in insertion order.
func (db *DB) GetAllCards() ([]domain.Card, error) {
	rows, err := db.conn.Query(`SELECT ` + cardColumns + ` FROM cards ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, *card)
	}
	return cards, rows.Err()
}

// SaveReview stores a card's new scheduling state together with its review
// log entry.
func (db *DB) SaveReview(card domain.Card, entry domain.ReviewLog) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.Exec(`
		UPDATE cards
		SET ease_factor = ?, interval_days = ?, repetitions = ?, next_review = ?
		WHERE id = ?
	`,
		card.EaseFactor,
		card.Interval,
		card.Repetitions,
		formatTime(card.NextReview),
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed to update card %s: %w", card.ID, sql.ErrNoRows)
	}

	_, err = tx.Exec(`
		INSERT INTO review_log (card_id, reviewed_at, quality, interval_days, ease_factor)
		VALUES (?, ?, ?, ?, ?)
	`, entry.CardID, formatTime(entry.ReviewedAt), entry.Quality, entry.Interval, entry.EaseFactor)
	if err != nil {
		return fmt.Errorf("failed to log review for card %s: %w", card.ID, err)
	}

	return tx.Commit()
}

// GetReviewLog returns the reviews of a card, oldest first.
func (db *DB) GetReviewLog(cardID string) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, reviewed_at, quality, interval_days, ease_factor
		FROM review_log WHERE card_id = ? ORDER BY id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get review log for card %s: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var entry domain.ReviewLog
		var reviewedAt string
		if err := rows.Scan(&entry.CardID, &reviewedAt, &entry.Quality, &entry.Interval, &entry.EaseFactor); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		if entry.ReviewedAt, err = parseTime(reviewedAt); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// DeleteAllCards removes every card and its review history.
func (db *DB) DeleteAllCards() (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.Exec(`DELETE FROM review_log`); err != nil {
		return 0, fmt.Errorf("failed to clear review log: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM cards`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cards: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, tx.Commit()
}

func scanCard(s scanner) (*domain.Card, error) {
	var c domain.Card
	var nextReview, created string
	var sourceID sql.NullInt64
	if err := s.Scan(
		&c.ID,
		&c.Front,
		&c.Back,
		&c.Context,
		&c.EaseFactor,
		&c.Interval,
		&c.Repetitions,
		&nextReview,
		&created,
		&sourceID,
	); err != nil {
		return nil, err
	}

	var err error
	if c.NextReview, err = parseTime(nextReview); err != nil {
		return nil, err
	}
	if c.Created, err = parseTime(created); err != nil {
		return nil, err
	}
	c.SourceID = sourceID.Int64
	return &c, nil
}
