// Package planner divides study hours across subjects ahead of an exam.
package planner

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// GoalCredit is the hours credited to a subject each time one of its daily
// goals is completed, whatever the goal allocated.
const GoalCredit = 0.5

// goalDateLayout is the date part of a goal id.
const goalDateLayout = "20060102"

// PriorityWeight maps a priority to its share multiplier. Unknown
// priorities count as medium.
func PriorityWeight(p domain.Priority) float64 {
	switch p {
	case domain.PriorityHigh:
		return 3
	case domain.PriorityMedium:
		return 2
	case domain.PriorityLow:
		return 1
	default:
		return 2
	}
}

// DaysUntilExam returns the whole days from now until exam, never negative.
// ok is false when no exam date is set.
func DaysUntilExam(exam *time.Time, now time.Time) (days int, ok bool) {
	if exam == nil {
		return 0, false
	}
	d := int(math.Floor(exam.Sub(now).Hours() / 24))
	return max(0, d), true
}

// DailyAllocation returns the hours subject should get today: its priority
// share of hoursPerDay, capped by the pace that finishes it exactly on the
// deadline. The result is not clamped at zero for over-completed subjects.
func DailyAllocation(subject domain.Subject, all []domain.Subject, daysLeft int, hoursPerDay float64) float64 {
	if daysLeft <= 0 {
		return 0
	}

	var totalWeight float64
	for _, s := range all {
		totalWeight += PriorityWeight(s.Priority)
	}
	if totalWeight == 0 {
		return 0
	}

	remaining := subject.HoursNeeded - subject.HoursCompleted
	fairShare := hoursPerDay * PriorityWeight(subject.Priority) / totalWeight
	paceNeeded := remaining / float64(daysLeft)
	return math.Min(fairShare, paceNeeded)
}

// GoalID identifies the goal for a subject on a given day.
func GoalID(subjectID int64, day time.Time) string {
	return fmt.Sprintf("%d-%s", subjectID, day.Format(goalDateLayout))
}

// ParseGoalID extracts the subject id from a goal id.
func ParseGoalID(goalID string) (int64, error) {
	idPart, datePart, found := strings.Cut(goalID, "-")
	if !found {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGoalID, goalID)
	}
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGoalID, goalID)
	}
	if _, err := time.Parse(goalDateLayout, datePart); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidGoalID, goalID)
	}
	return id, nil
}

// GenerateDailyGoals builds one goal for every subject with a positive
// allocation today. Regenerating on the same day yields the same ids.
func GenerateDailyGoals(subjects []domain.Subject, daysLeft int, hoursPerDay float64, today time.Time) []domain.DailyGoal {
	var goals []domain.DailyGoal
	for _, s := range subjects {
		hours := DailyAllocation(s, subjects, daysLeft, hoursPerDay)
		if hours <= 0 {
			continue
		}
		goals = append(goals, domain.DailyGoal{
			ID:        GoalID(s.ID, today),
			SubjectID: s.ID,
			Subject:   s.Name,
			Hours:     roundTo(hours, 1),
			Tasks:     Tasks(s.Name, hours),
			Date:      today,
		})
	}
	return goals
}

// Tasks writes the to-do lines for a subject given its allocation.
func Tasks(name string, hours float64) []string {
	switch {
	case hours >= 2:
		return []string{
			fmt.Sprintf("Study %s theory (1 hour)", name),
			fmt.Sprintf("Practice %s problems (1 hour)", name),
		}
	case hours >= 1:
		return []string{fmt.Sprintf("Study %s key concepts (%.1f hour)", name, hours)}
	default:
		return []string{fmt.Sprintf("Quick review of %s (%d min)", name, int(hours*60))}
	}
}

// WeeklyReview lays out the seven days starting at today. Weekends are
// practice days; each weekday focuses on up to two subjects taken from a
// window that starts at i mod n and does not wrap past the end of the list.
func WeeklyReview(subjects []domain.Subject, today time.Time) []domain.WeeklyDay {
	plan := make([]domain.WeeklyDay, 0, 7)
	n := len(subjects)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		entry := domain.WeeklyDay{Day: day.Weekday().String(), Date: day}

		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			entry.Activity = "Complete practice tests and review weak areas"
			entry.Focus = "All subjects"
			plan = append(plan, entry)
			continue
		}

		entry.Activity = "Daily study sessions"
		entry.Focus = "No subjects"
		if n > 0 {
			start := i % n
			end := min(start+2, n)
			names := make([]string, 0, end-start)
			for _, s := range subjects[start:end] {
				names = append(names, s.Name)
			}
			entry.Focus = strings.Join(names, ", ")
		}
		plan = append(plan, entry)
	}
	return plan
}

// ProgressSummary reports completion per subject. Subjects are expected to
// have positive HoursNeeded; zero needs report 0%.
func ProgressSummary(subjects []domain.Subject) []domain.Progress {
	summary := make([]domain.Progress, 0, len(subjects))
	for _, s := range subjects {
		var completion float64
		if s.HoursNeeded > 0 {
			completion = s.HoursCompleted / s.HoursNeeded * 100
		}
		summary = append(summary, domain.Progress{
			Subject:        s.Name,
			Completion:     roundTo(completion, 1),
			HoursCompleted: s.HoursCompleted,
			HoursTotal:     s.HoursNeeded,
		})
	}
	return summary
}

func roundTo(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}
