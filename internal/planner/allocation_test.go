package planner

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/conorfennell/studydeck/internal/domain"
)

// Monday.
var today = time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

func TestPriorityWeight(t *testing.T) {
	testCases := []struct {
		priority domain.Priority
		want     float64
	}{
		{domain.PriorityHigh, 3},
		{domain.PriorityMedium, 2},
		{domain.PriorityLow, 1},
		{"urgent", 2},
		{"", 2},
	}
	for _, tc := range testCases {
		if got := PriorityWeight(tc.priority); got != tc.want {
			t.Errorf("PriorityWeight(%q) = %v, want %v", tc.priority, got, tc.want)
		}
	}
}

func TestDaysUntilExam(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		if _, ok := DaysUntilExam(nil, today); ok {
			t.Error("Expected ok=false without an exam date")
		}
	})

	t.Run("future", func(t *testing.T) {
		exam := time.Date(2026, 10, 29, 0, 0, 0, 0, time.UTC)
		days, ok := DaysUntilExam(&exam, today)
		if !ok || days != 9 {
			t.Errorf("Expected 9 days, got %d (ok=%v)", days, ok)
		}
	})

	t.Run("past is floored at zero", func(t *testing.T) {
		exam := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
		days, ok := DaysUntilExam(&exam, today)
		if !ok || days != 0 {
			t.Errorf("Expected 0 days, got %d (ok=%v)", days, ok)
		}
	})
}

func TestDailyAllocation(t *testing.T) {
	t.Run("single subject limited by pace", func(t *testing.T) {
		s := domain.Subject{ID: 1, Name: "Physics", Priority: domain.PriorityHigh, HoursNeeded: 20}
		got := DailyAllocation(s, []domain.Subject{s}, 10, 3)
		if got != 2 {
			t.Errorf("Expected 2 hours, got %v", got)
		}
	})

	t.Run("zero days left", func(t *testing.T) {
		s := domain.Subject{ID: 1, Priority: domain.PriorityHigh, HoursNeeded: 20}
		if got := DailyAllocation(s, []domain.Subject{s}, 0, 3); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})

	t.Run("no subjects", func(t *testing.T) {
		s := domain.Subject{ID: 1, Priority: domain.PriorityHigh, HoursNeeded: 20}
		if got := DailyAllocation(s, nil, 10, 3); got != 0 {
			t.Errorf("Expected 0, got %v", got)
		}
	})

	t.Run("priority ordering", func(t *testing.T) {
		subjects := []domain.Subject{
			{ID: 1, Priority: domain.PriorityHigh, HoursNeeded: 100},
			{ID: 2, Priority: domain.PriorityMedium, HoursNeeded: 100},
			{ID: 3, Priority: domain.PriorityLow, HoursNeeded: 100},
		}
		high := DailyAllocation(subjects[0], subjects, 10, 6)
		medium := DailyAllocation(subjects[1], subjects, 10, 6)
		low := DailyAllocation(subjects[2], subjects, 10, 6)
		if !(high > medium && medium > low) {
			t.Errorf("Expected high > medium > low, got %v %v %v", high, medium, low)
		}
		if high != 3 || medium != 2 || low != 1 {
			t.Errorf("Expected fair shares 3/2/1, got %v/%v/%v", high, medium, low)
		}
	})

	t.Run("over completed subject goes negative", func(t *testing.T) {
		s := domain.Subject{ID: 1, Priority: domain.PriorityLow, HoursNeeded: 5, HoursCompleted: 7}
		if got := DailyAllocation(s, []domain.Subject{s}, 4, 3); got != -0.5 {
			t.Errorf("Expected -0.5, got %v", got)
		}
	})
}

func TestGenerateDailyGoals(t *testing.T) {
	subjects := []domain.Subject{
		{ID: 1, Name: "Maths", Priority: domain.PriorityHigh, HoursNeeded: 40},
		{ID: 2, Name: "History", Priority: domain.PriorityLow, HoursNeeded: 2},
		{ID: 3, Name: "Biology", Priority: domain.PriorityMedium, HoursNeeded: 10, HoursCompleted: 10},
	}
	goals := GenerateDailyGoals(subjects, 10, 6, today)

	if len(goals) != 2 {
		t.Fatalf("Expected 2 goals, got %d", len(goals))
	}
	if goals[0].ID != "1-20261019" || goals[1].ID != "2-20261019" {
		t.Errorf("unexpected goal ids %q, %q", goals[0].ID, goals[1].ID)
	}
	if goals[0].Hours != 3 {
		t.Errorf("Expected Maths to get 3 hours, got %v", goals[0].Hours)
	}
	if len(goals[0].Tasks) != 2 {
		t.Errorf("Expected two tasks for Maths, got %v", goals[0].Tasks)
	}
	if goals[1].Hours != 0.2 || goals[1].Tasks[0] != "Quick review of History (12 min)" {
		t.Errorf("unexpected History goal %+v", goals[1])
	}

	again := GenerateDailyGoals(subjects, 10, 6, today.Add(5*time.Hour))
	if again[0].ID != goals[0].ID {
		t.Error("Expected same-day regeneration to keep goal ids")
	}
}

func TestTasks(t *testing.T) {
	testCases := []struct {
		hours float64
		want  []string
	}{
		{2.5, []string{"Study Go theory (1 hour)", "Practice Go problems (1 hour)"}},
		{1.5, []string{"Study Go key concepts (1.5 hour)"}},
		{0.75, []string{"Quick review of Go (45 min)"}},
	}
	for _, tc := range testCases {
		got := Tasks("Go", tc.hours)
		if len(got) != len(tc.want) {
			t.Fatalf("hours %v: got %v", tc.hours, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Errorf("hours %v: task %d = %q, want %q", tc.hours, i, got[i], tc.want[i])
			}
		}
	}
}

func TestParseGoalID(t *testing.T) {
	id, err := ParseGoalID("12-20261019")
	if err != nil || id != 12 {
		t.Fatalf("Expected id 12, got %d (%v)", id, err)
	}
	for _, bad := range []string{"", "12", "x-20261019", "12-notadate"} {
		if _, err := ParseGoalID(bad); !errors.Is(err, ErrInvalidGoalID) {
			t.Errorf("%q: expected ErrInvalidGoalID, got %v", bad, err)
		}
	}
}

func TestWeeklyReview(t *testing.T) {
	subjects := []domain.Subject{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	plan := WeeklyReview(subjects, today)

	if len(plan) != 7 {
		t.Fatalf("Expected 7 days, got %d", len(plan))
	}
	// Monday 19th .. Sunday 25th; i%3 windows: 0:A,B 1:B,C 2:C 3:A,B 4:B,C
	wantFocus := []string{"A, B", "B, C", "C", "A, B", "B, C", "All subjects", "All subjects"}
	for i, day := range plan {
		if day.Focus != wantFocus[i] {
			t.Errorf("day %d (%s): focus %q, want %q", i, day.Day, day.Focus, wantFocus[i])
		}
	}
	if plan[5].Day != "Saturday" || plan[5].Activity != "Complete practice tests and review weak areas" {
		t.Errorf("unexpected Saturday entry %+v", plan[5])
	}

	empty := WeeklyReview(nil, today)
	if empty[0].Focus != "No subjects" {
		t.Errorf("Expected 'No subjects', got %q", empty[0].Focus)
	}
}

func TestProgressSummary(t *testing.T) {
	summary := ProgressSummary([]domain.Subject{
		{Name: "Maths", HoursNeeded: 30, HoursCompleted: 10},
		{Name: "Art", HoursNeeded: 4, HoursCompleted: 5},
	})
	if math.Abs(summary[0].Completion-33.3) > 1e-9 {
		t.Errorf("Expected 33.3%%, got %v", summary[0].Completion)
	}
	if summary[1].Completion != 125 {
		t.Errorf("Expected over-completion 125%%, got %v", summary[1].Completion)
	}
}
