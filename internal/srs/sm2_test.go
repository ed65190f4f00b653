package srs

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

var t0 = time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

func freshCard() domain.Card {
	return domain.NewCard("What is the capital of France?", "Paris", t0)
}

func TestScheduleScenario(t *testing.T) {
	p := DefaultParams()
	card := freshCard()

	card = p.Schedule(card, 5, t0)
	if card.Interval != 1 || card.Repetitions != 1 {
		t.Fatalf("after first review got interval=%d repetitions=%d, want 1/1", card.Interval, card.Repetitions)
	}
	if math.Abs(card.EaseFactor-2.6) > 1e-9 {
		t.Errorf("Expected ease factor 2.6, got %.4f", card.EaseFactor)
	}

	card = p.Schedule(card, 5, t0)
	if card.Interval != 6 || card.Repetitions != 2 {
		t.Fatalf("after second review got interval=%d repetitions=%d, want 6/2", card.Interval, card.Repetitions)
	}

	card = p.Schedule(card, 2, t0)
	if card.Interval != 0 || card.Repetitions != 0 {
		t.Fatalf("after lapse got interval=%d repetitions=%d, want 0/0", card.Interval, card.Repetitions)
	}
}

func TestScheduleThirdSuccessUsesEase(t *testing.T) {
	p := DefaultParams()
	card := freshCard()
	card = p.Schedule(card, 4, t0)
	card = p.Schedule(card, 4, t0)

	ease := card.EaseFactor
	card = p.Schedule(card, 4, t0)
	want := int(math.RoundToEven(6 * ease))
	if card.Interval != want {
		t.Errorf("Expected interval %d, got %d", want, card.Interval)
	}
	if card.Repetitions != 3 {
		t.Errorf("Expected 3 repetitions, got %d", card.Repetitions)
	}
}

func TestScheduleFailureResets(t *testing.T) {
	p := DefaultParams()
	for q := 0; q < PassMark; q++ {
		card := freshCard()
		card.Repetitions = 7
		card.Interval = 120
		got := p.Schedule(card, q, t0)
		if got.Repetitions != 0 || got.Interval != 0 {
			t.Errorf("quality %d: got repetitions=%d interval=%d, want 0/0", q, got.Repetitions, got.Interval)
		}
		if !got.NextReview.Equal(t0.Add(10 * time.Minute)) {
			t.Errorf("quality %d: next review %v, want ten minutes after %v", q, got.NextReview, t0)
		}
	}
}

func TestScheduleEaseNeverBelowFloor(t *testing.T) {
	p := DefaultParams()
	for q := Blackout; q <= Perfect; q++ {
		card := freshCard()
		for i := 0; i < 20; i++ {
			card = p.Schedule(card, q, t0)
			if card.EaseFactor < domain.MinEaseFactor {
				t.Fatalf("quality %d: ease dropped to %.3f", q, card.EaseFactor)
			}
			if card.Interval < 0 {
				t.Fatalf("quality %d: negative interval %d", q, card.Interval)
			}
		}
	}
}

func TestScheduleEaseAdjustment(t *testing.T) {
	testCases := []struct {
		quality int
		want    float64
	}{
		{5, 2.6},
		{4, 2.5},
		{3, 2.36},
		{2, 2.18},
		{1, 1.96},
		{0, 1.7},
	}
	p := DefaultParams()
	for _, tc := range testCases {
		got := p.Schedule(freshCard(), tc.quality, t0)
		if math.Abs(got.EaseFactor-tc.want) > 1e-9 {
			t.Errorf("quality %d: ease %.4f, want %.4f", tc.quality, got.EaseFactor, tc.want)
		}
	}
}

func TestScheduleKeepsTimeOfDay(t *testing.T) {
	p := DefaultParams()
	card := freshCard()
	card.Repetitions = 1
	got := p.Schedule(card, 5, t0)
	want := time.Date(2026, 3, 16, 14, 30, 0, 0, time.UTC)
	if !got.NextReview.Equal(want) {
		t.Errorf("Expected next review %v, got %v", want, got.NextReview)
	}
}

func TestScheduleDoesNotMutateInput(t *testing.T) {
	p := DefaultParams()
	card := freshCard()
	_ = p.Schedule(card, 5, t0)
	if card.Repetitions != 0 || card.Interval != 0 || card.EaseFactor != domain.InitialEaseFactor {
		t.Errorf("input card was modified: %+v", card)
	}
}

func TestValidateQuality(t *testing.T) {
	for q := 0; q <= 5; q++ {
		if err := ValidateQuality(q); err != nil {
			t.Errorf("quality %d should be valid: %v", q, err)
		}
	}
	for _, q := range []int{-1, 6, 42} {
		if err := ValidateQuality(q); !errors.Is(err, ErrInvalidQuality) {
			t.Errorf("quality %d: expected ErrInvalidQuality, got %v", q, err)
		}
	}
}
