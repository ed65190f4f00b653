package srs

import (
	"math/rand"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// DueCards returns the cards whose next review is at or before now,
// in their original order.
func DueCards(cards []domain.Card, now time.Time) []domain.Card {
	var due []domain.Card
	for _, c := range cards {
		if c.IsDue(now) {
			due = append(due, c)
		}
	}
	return due
}

// BuildSession returns a copy of due, permuted when shuffle is set.
// A nil rng falls back to the shared math/rand source.
func BuildSession(due []domain.Card, shuffle bool, rng *rand.Rand) []domain.Card {
	session := make([]domain.Card, len(due))
	copy(session, due)
	if !shuffle {
		return session
	}

	swap := func(i, j int) { session[i], session[j] = session[j], session[i] }
	if rng == nil {
		rand.Shuffle(len(session), swap)
	} else {
		rng.Shuffle(len(session), swap)
	}
	return session
}

// Statistics counts due and mastered cards. Every card not currently due
// counts as mastered.
func Statistics(cards []domain.Card, now time.Time) domain.DeckStats {
	total := len(cards)
	due := len(DueCards(cards, now))
	stats := domain.DeckStats{
		Total:    total,
		Due:      due,
		Mastered: total - due,
	}
	if total > 0 {
		stats.MasteryPercentage = float64(stats.Mastered) / float64(total) * 100
	}
	return stats
}
