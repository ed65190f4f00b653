// Package deck owns the stored card collection. Review scheduling, note
// imports and manual entry all go through one Service so there is a single
// copy of the deck.
package deck

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/srs"
)

var (
	ErrCardNotFound  = errors.New("deck: card not found")
	ErrInvalidCard   = errors.New("deck: card needs a front and a back")
	ErrInvalidCardID = errors.New("deck: malformed card id")
)

// Store is the persistence the deck needs.
type Store interface {
	InsertCard(card domain.Card) error
	FindCardByID(id string) (*domain.Card, error)
	HasFront(front string) (bool, error)
	GetAllCards() ([]domain.Card, error)
	SaveReview(card domain.Card, entry domain.ReviewLog) error
	DeleteAllCards() (int64, error)
}

// ReviewInput is a grade submitted for one card.
type ReviewInput struct {
	CardID  string `validate:"required,uuid4"`
	Quality int    `validate:"min=0,max=5"`
}

// Service coordinates card storage and the SM-2 scheduler.
type Service struct {
	store    Store
	params   *srs.Params
	validate *validator.Validate
	shuffle  bool
	now      func() time.Time

	rngMu sync.Mutex // guards rng
	rng   *rand.Rand

	importMu sync.Mutex // keeps the front lookup and insert of one import together
}

// Option configures a Service.
type Option func(*Service)

// WithShuffle sets whether review sessions are shuffled.
func WithShuffle(shuffle bool) Option {
	return func(s *Service) { s.shuffle = shuffle }
}

// WithRand sets the randomness used for shuffling sessions.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithParams overrides the scheduler parameters.
func WithParams(p *srs.Params) Option {
	return func(s *Service) { s.params = p }
}

// NewService creates a deck service over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		params:   srs.DefaultParams(),
		validate: validator.New(),
		shuffle:  true,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the current time according to the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// AddCard stores a manually entered card. Duplicate fronts are allowed.
func (s *Service) AddCard(front, back string) (*domain.Card, error) {
	front, back = strings.TrimSpace(front), strings.TrimSpace(back)
	if front == "" || back == "" {
		return nil, ErrInvalidCard
	}
	card := domain.NewCard(front, back, s.now())
	if err := s.store.InsertCard(card); err != nil {
		return nil, err
	}
	slog.Info("Card added", "card_id", card.ID)
	return &card, nil
}

// Import adds parsed cards whose front is not already in the deck and
// returns how many were added. Cards missing a front or a back are skipped,
// the same as AddCard would reject them.
func (s *Service) Import(parsed []domain.Card, sourceID int64) (int, error) {
	s.importMu.Lock()
	defer s.importMu.Unlock()

	now := s.now()
	added := 0
	for _, p := range parsed {
		if strings.TrimSpace(p.Front) == "" || strings.TrimSpace(p.Back) == "" {
			slog.Warn("Skipping incomplete card", "front", p.Front, "source_id", sourceID)
			continue
		}
		exists, err := s.store.HasFront(p.Front)
		if err != nil {
			return added, err
		}
		if exists {
			continue
		}
		card := domain.NewCard(p.Front, p.Back, now)
		card.Context = p.Context
		card.SourceID = sourceID
		if err := s.store.InsertCard(card); err != nil {
			return added, err
		}
		added++
	}
	if added > 0 {
		slog.Info("Imported cards", "added", added, "parsed", len(parsed), "source_id", sourceID)
	}
	return added, nil
}

// Card returns a single card by id.
func (s *Service) Card(id string) (*domain.Card, error) {
	card, err := s.store.FindCardByID(id)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, fmt.Errorf("%w: %s", ErrCardNotFound, id)
	}
	return card, nil
}

// Review grades a card and persists its new schedule. Invalid input is
// rejected before the scheduler runs.
func (s *Service) Review(in ReviewInput) (*domain.Card, error) {
	if err := srs.ValidateQuality(in.Quality); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCardID, in.CardID)
	}

	card, err := s.Card(in.CardID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	updated := s.params.Schedule(*card, in.Quality, now)
	entry := domain.ReviewLog{
		CardID:     updated.ID,
		ReviewedAt: now,
		Quality:    in.Quality,
		Interval:   updated.Interval,
		EaseFactor: updated.EaseFactor,
	}
	if err := s.store.SaveReview(updated, entry); err != nil {
		return nil, err
	}
	slog.Debug("Card reviewed",
		"card_id", updated.ID,
		"quality", in.Quality,
		"interval", updated.Interval,
		"ease", updated.EaseFactor,
	)
	return &updated, nil
}

// All returns every card in insertion order.
func (s *Service) All() ([]domain.Card, error) {
	return s.store.GetAllCards()
}

// Due returns the cards due now, in insertion order.
func (s *Service) Due() ([]domain.Card, error) {
	cards, err := s.store.GetAllCards()
	if err != nil {
		return nil, err
	}
	return srs.DueCards(cards, s.now()), nil
}

// Session returns the due cards ready for a review session.
func (s *Service) Session() ([]domain.Card, error) {
	due, err := s.Due()
	if err != nil {
		return nil, err
	}
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return srs.BuildSession(due, s.shuffle, s.rng), nil
}

// Stats summarises the deck.
func (s *Service) Stats() (domain.DeckStats, error) {
	cards, err := s.store.GetAllCards()
	if err != nil {
		return domain.DeckStats{}, err
	}
	return srs.Statistics(cards, s.now()), nil
}

// Clear deletes every card.
func (s *Service) Clear() (int64, error) {
	n, err := s.store.DeleteAllCards()
	if err != nil {
		return 0, err
	}
	slog.Warn("Deck cleared", "deleted", n)
	return n, nil
}
