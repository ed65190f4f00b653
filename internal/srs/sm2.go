package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Recall grades at the edges of the scale.
const (
	Blackout   = 0
	PassMark   = 3
	Perfect    = 5
	firstStep  = 1
	secondStep = 6
)

// ErrInvalidQuality is returned when a recall grade is outside 0..5.
var ErrInvalidQuality = errors.New("srs: quality must be between 0 and 5")

// ValidateQuality rejects grades outside 0..5. Schedule does not re-check,
// so callers validate at the boundary.
func ValidateQuality(quality int) error {
	if quality < Blackout || quality > Perfect {
		return fmt.Errorf("%w: got %d", ErrInvalidQuality, quality)
	}
	return nil
}

// Params holds the tunable parts of the SM-2 algorithm.
type Params struct {
	MinEase      float64       // ease factor floor
	RelearnDelay time.Duration // wait before a lapsed card is due again
}

// DefaultParams provides the classic SM-2 settings.
func DefaultParams() *Params {
	return &Params{
		MinEase:      domain.MinEaseFactor,
		RelearnDelay: 10 * time.Minute,
	}
}

// Schedule applies one review of the given quality to card and returns the
// updated copy. The caller's card is left untouched.
func (p *Params) Schedule(card domain.Card, quality int, now time.Time) domain.Card {
	c := card

	if quality < PassMark {
		c.Repetitions = 0
		c.Interval = 0
	} else {
		switch c.Repetitions {
		case 0:
			c.Interval = firstStep
		case 1:
			c.Interval = secondStep
		default:
			c.Interval = int(math.RoundToEven(float64(c.Interval) * c.EaseFactor))
		}
		c.Repetitions++
	}

	c.EaseFactor = p.nextEase(c.EaseFactor, quality)
	c.NextReview = p.nextReview(c.Interval, now)
	return c
}

// nextEase is the SM-2 ease adjustment, floored at MinEase.
func (p *Params) nextEase(ease float64, quality int) float64 {
	miss := float64(Perfect - quality)
	return math.Max(p.MinEase, ease+(0.1-miss*(0.08+miss*0.02)))
}

// nextReview keeps the time of day when moving whole days forward.
func (p *Params) nextReview(interval int, now time.Time) time.Time {
	if interval == 0 {
		return now.Add(p.RelearnDelay)
	}
	return now.AddDate(0, 0, interval)
}
