package domain

import (
	"time"

	"github.com/google/uuid"
)

// Initial scheduling values for a card that has never been reviewed.
const (
	InitialEaseFactor = 2.5
	MinEaseFactor     = 1.3
)

// Card represents a single flashcard and its SM-2 scheduling state.
type Card struct {
	ID          string
	Front       string
	Back        string
	Context     string
	EaseFactor  float64
	Interval    int // days; 0 means relearn soon
	Repetitions int // consecutive successful reviews
	NextReview  time.Time
	Created     time.Time
	SourceID    int64 // 0 for manually entered cards
}

// NewCard returns a fresh card that is due immediately.
func NewCard(front, back string, now time.Time) Card {
	return Card{
		ID:         uuid.NewString(),
		Front:      front,
		Back:       back,
		EaseFactor: InitialEaseFactor,
		NextReview: now,
		Created:    now,
	}
}

// IsDue reports whether the card should be reviewed at now.
func (c Card) IsDue(now time.Time) bool {
	return !c.NextReview.After(now)
}

// ReviewLog records a single review event for a card.
// Quality is the SM-2 recall grade:
// 0: complete blackout
// 3: recalled with serious difficulty
// 5: perfect recall
type ReviewLog struct {
	CardID     string
	ReviewedAt time.Time
	Quality    int
	Interval   int
	EaseFactor float64
}

// DeckStats summarises how much of a deck is currently learned.
type DeckStats struct {
	Total             int
	Due               int
	Mastered          int
	MasteryPercentage float64
}
