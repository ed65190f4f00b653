package srs

import (
	"math/rand"
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

func deckAt(now time.Time, offsets ...time.Duration) []domain.Card {
	var cards []domain.Card
	for i, off := range offsets {
		c := domain.NewCard(string(rune('a'+i)), "back", now)
		c.NextReview = now.Add(off)
		cards = append(cards, c)
	}
	return cards
}

func TestDueCards(t *testing.T) {
	cards := deckAt(t0, -time.Hour, time.Hour, 0, -48*time.Hour)
	due := DueCards(cards, t0)

	if len(due) != 3 {
		t.Fatalf("Expected 3 due cards, got %d", len(due))
	}
	want := []string{"a", "c", "d"}
	for i, c := range due {
		if c.Front != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], c.Front)
		}
	}
}

func TestBuildSession(t *testing.T) {
	due := deckAt(t0, 0, 0, 0, 0, 0, 0, 0, 0)

	t.Run("without shuffle keeps order", func(t *testing.T) {
		session := BuildSession(due, false, nil)
		for i := range due {
			if session[i].ID != due[i].ID {
				t.Fatalf("position %d changed", i)
			}
		}
	})

	t.Run("same seed gives same order", func(t *testing.T) {
		a := BuildSession(due, true, rand.New(rand.NewSource(7)))
		b := BuildSession(due, true, rand.New(rand.NewSource(7)))
		for i := range a {
			if a[i].ID != b[i].ID {
				t.Fatalf("position %d differs between seeded sessions", i)
			}
		}
	})

	t.Run("shuffle is a permutation and leaves input alone", func(t *testing.T) {
		before := make([]string, len(due))
		for i, c := range due {
			before[i] = c.ID
		}
		session := BuildSession(due, true, rand.New(rand.NewSource(1)))
		seen := make(map[string]bool)
		for _, c := range session {
			seen[c.ID] = true
		}
		if len(seen) != len(due) {
			t.Errorf("Expected %d distinct cards, got %d", len(due), len(seen))
		}
		for i, c := range due {
			if c.ID != before[i] {
				t.Fatalf("input slice was reordered at %d", i)
			}
		}
	})
}

func TestStatistics(t *testing.T) {
	t.Run("empty deck", func(t *testing.T) {
		stats := Statistics(nil, t0)
		if stats.Total != 0 || stats.MasteryPercentage != 0 {
			t.Errorf("Expected zero stats, got %+v", stats)
		}
	})

	t.Run("mixed deck", func(t *testing.T) {
		cards := deckAt(t0, -time.Minute, time.Hour, 24*time.Hour, 72*time.Hour)
		stats := Statistics(cards, t0)
		if stats.Total != 4 || stats.Due != 1 || stats.Mastered != 3 {
			t.Errorf("unexpected counts %+v", stats)
		}
		if stats.MasteryPercentage != 75 {
			t.Errorf("Expected 75%% mastery, got %.2f", stats.MasteryPercentage)
		}
	})
}
