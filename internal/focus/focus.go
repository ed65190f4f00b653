// Package focus plans work/break cycles and summarises completed sessions.
// Nothing here sleeps: callers decide how to run the timeline.
package focus

import (
	"errors"
	"math/rand"
	"time"
)

// Kind is the type of a session.
type Kind string

const (
	Work       Kind = "work"
	ShortBreak Kind = "short_break"
	LongBreak  Kind = "long_break"
)

var ErrInvalidPlan = errors.New("focus: durations and counts must be positive")

var breakSuggestions = []string{
	"Stretch your arms and legs",
	"Walk around for a few minutes",
	"Drink a glass of water",
	"Look away from screen (20-20-20 rule)",
	"Do some deep breathing exercises",
	"Quick meditation (2-3 minutes)",
	"Light snack - fruits or nuts",
	"Step outside for fresh air",
	"Do 10 jumping jacks",
	"Close your eyes and relax",
}

var ambientSounds = []string{
	"Rain sounds - gentle rainfall",
	"Coffee shop ambiance",
	"Forest birds chirping",
	"Ocean waves crashing",
	"White noise - steady hum",
	"Fireplace crackling",
	"Thunderstorm distant",
	"Piano instrumental",
}

// Settings are the session lengths.
type Settings struct {
	Work  time.Duration
	Short time.Duration
	Long  time.Duration
	Every int // sessions before a long break
}

// DefaultSettings returns 25/5/15 minutes with a long break every fourth session.
func DefaultSettings() Settings {
	return Settings{
		Work:  25 * time.Minute,
		Short: 5 * time.Minute,
		Long:  15 * time.Minute,
		Every: 4,
	}
}

func (s Settings) valid() bool {
	return s.Work > 0 && s.Short > 0 && s.Long > 0 && s.Every > 0
}

// Segment is one scheduled or completed session.
type Segment struct {
	Kind       Kind
	Number     int // work session number; breaks carry the number of the session they follow
	Start      time.Time
	End        time.Time
	Suggestion string
}

func (s Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Planner builds timelines. The zero value is not usable; use NewPlanner.
type Planner struct {
	settings Settings
	rng      *rand.Rand
}

// NewPlanner returns a planner drawing suggestions from rng. A nil rng uses
// a time-seeded source.
func NewPlanner(settings Settings, rng *rand.Rand) (*Planner, error) {
	if !settings.valid() {
		return nil, ErrInvalidPlan
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Planner{settings: settings, rng: rng}, nil
}

// Plan lays out cycles back to back from start. Each cycle is a work
// session followed by a break, except the last one. A break after every
// Every-th session is long.
func (p *Planner) Plan(cycles int, start time.Time) ([]Segment, error) {
	if cycles <= 0 {
		return nil, ErrInvalidPlan
	}
	segments := make([]Segment, 0, 2*cycles-1)
	at := start
	for n := 1; n <= cycles; n++ {
		work := Segment{Kind: Work, Number: n, Start: at, End: at.Add(p.settings.Work)}
		segments = append(segments, work)
		at = work.End
		if n == cycles {
			break
		}

		kind, length := ShortBreak, p.settings.Short
		if n%p.settings.Every == 0 {
			kind, length = LongBreak, p.settings.Long
		}
		brk := Segment{Kind: kind, Number: n, Start: at, End: at.Add(length), Suggestion: p.Suggestion()}
		segments = append(segments, brk)
		at = brk.End
	}
	return segments, nil
}

// Suggestion picks something to do during a break.
func (p *Planner) Suggestion() string {
	return breakSuggestions[p.rng.Intn(len(breakSuggestions))]
}

// Ambience picks a background sound for the run.
func (p *Planner) Ambience() string {
	return ambientSounds[p.rng.Intn(len(ambientSounds))]
}

// Stats summarise a session log.
type Stats struct {
	WorkSessions int
	Breaks       int
	FocusMinutes int
	Performance  string
}

// Summarize counts sessions and focus time over log.
func Summarize(log []Segment) Stats {
	var st Stats
	var focus time.Duration
	for _, s := range log {
		if s.Kind == Work {
			st.WorkSessions++
			focus += s.Duration()
		} else {
			st.Breaks++
		}
	}
	st.FocusMinutes = int(focus / time.Minute)
	st.Performance = Performance(st.FocusMinutes)
	return st
}

// Performance labels a total focus time in minutes.
func Performance(minutes int) string {
	switch {
	case minutes >= 120:
		return "excellent"
	case minutes >= 60:
		return "great"
	case minutes >= 25:
		return "good start"
	default:
		return "just getting started"
	}
}
