package planner

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/studydeck/internal/domain"
)

const (
	examDateKey    = "exam_date"
	examDateLayout = "2006-01-02"
)

var (
	ErrSubjectNotFound   = errors.New("planner: subject not found")
	ErrInvalidSubject    = errors.New("planner: invalid subject")
	ErrExamDateUnset     = errors.New("planner: exam date not set")
	ErrInvalidExamDate   = errors.New("planner: exam date must be YYYY-MM-DD")
	ErrInvalidGoalID     = errors.New("planner: invalid goal id")
	ErrGoalAlreadyMarked = errors.New("planner: goal already completed")
)

// Store is the persistence the planner needs.
type Store interface {
	InsertSubject(s domain.Subject) (int64, error)
	GetAllSubjects() ([]domain.Subject, error)
	FindSubjectByID(id int64) (*domain.Subject, error)
	CompleteGoal(goalID string, subjectID int64, credit float64, at time.Time) (bool, error)
	GetCompletedGoals() (map[string]bool, error)
	GetSetting(key string) (string, bool, error)
	SetSetting(key, value string) error
}

// SubjectInput is the user supplied part of a new subject.
type SubjectInput struct {
	Name        string  `validate:"required"`
	Priority    string  `validate:"omitempty,max=32"`
	HoursNeeded float64 `validate:"gt=0"`
}

// Service applies the allocation engine to the persisted study plan.
type Service struct {
	store       Store
	validate    *validator.Validate
	hoursPerDay float64
	now         func() time.Time
}

// NewService creates a planner that spreads hoursPerDay across subjects.
func NewService(store Store, hoursPerDay float64) *Service {
	return &Service{
		store:       store,
		validate:    validator.New(),
		hoursPerDay: hoursPerDay,
		now:         time.Now,
	}
}

// WithClock replaces the time source, mostly for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HoursPerDay returns the daily study budget.
func (s *Service) HoursPerDay() float64 {
	return s.hoursPerDay
}

// AddSubject validates and stores a new subject with no hours completed.
func (s *Service) AddSubject(in SubjectInput) (*domain.Subject, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubject, err)
	}

	priority := domain.Priority(strings.ToLower(strings.TrimSpace(in.Priority)))
	if priority == "" {
		priority = domain.PriorityMedium
	}
	subject := domain.Subject{
		Name:        in.Name,
		Priority:    priority,
		HoursNeeded: in.HoursNeeded,
	}
	id, err := s.store.InsertSubject(subject)
	if err != nil {
		return nil, err
	}
	subject.ID = id
	slog.Info("Subject added", "id", id, "name", subject.Name, "priority", subject.Priority)
	return &subject, nil
}

// Subjects lists subjects in creation order.
func (s *Service) Subjects() ([]domain.Subject, error) {
	return s.store.GetAllSubjects()
}

// SetExamDate stores the exam date given as YYYY-MM-DD.
func (s *Service) SetExamDate(date string) error {
	if _, err := time.ParseInLocation(examDateLayout, date, time.Local); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidExamDate, date)
	}
	return s.store.SetSetting(examDateKey, date)
}

// ExamDate returns the stored exam date, or nil when none is set.
func (s *Service) ExamDate() (*time.Time, error) {
	raw, ok, err := s.store.GetSetting(examDateKey)
	if err != nil || !ok {
		return nil, err
	}
	exam, err := time.ParseInLocation(examDateLayout, raw, s.now().Location())
	if err != nil {
		return nil, fmt.Errorf("%w: stored value %q", ErrInvalidExamDate, raw)
	}
	return &exam, nil
}

// DaysUntilExam returns the days left, or ErrExamDateUnset.
func (s *Service) DaysUntilExam() (int, error) {
	exam, err := s.ExamDate()
	if err != nil {
		return 0, err
	}
	days, ok := DaysUntilExam(exam, s.now())
	if !ok {
		return 0, ErrExamDateUnset
	}
	return days, nil
}

// DailyGoals returns today's goals, flagging the ones already completed.
func (s *Service) DailyGoals() ([]domain.DailyGoal, error) {
	days, err := s.DaysUntilExam()
	if err != nil {
		return nil, err
	}
	subjects, err := s.store.GetAllSubjects()
	if err != nil {
		return nil, err
	}
	completed, err := s.store.GetCompletedGoals()
	if err != nil {
		return nil, err
	}

	goals := GenerateDailyGoals(subjects, days, s.hoursPerDay, s.now())
	for i := range goals {
		goals[i].Completed = completed[goals[i].ID]
	}
	return goals, nil
}

// CompleteGoal records goalID as done and credits its subject GoalCredit
// hours. Completing the same goal again returns ErrGoalAlreadyMarked.
func (s *Service) CompleteGoal(goalID string) error {
	subjectID, err := ParseGoalID(goalID)
	if err != nil {
		return err
	}
	subject, err := s.store.FindSubjectByID(subjectID)
	if err != nil {
		return err
	}
	if subject == nil {
		return fmt.Errorf("%w: id %d", ErrSubjectNotFound, subjectID)
	}

	credited, err := s.store.CompleteGoal(goalID, subjectID, GoalCredit, s.now())
	if err != nil {
		return err
	}
	if !credited {
		return fmt.Errorf("%w: %s", ErrGoalAlreadyMarked, goalID)
	}
	slog.Info("Goal completed", "goal_id", goalID, "subject", subject.Name, "credit_hours", GoalCredit)
	return nil
}

// WeeklyReview returns the seven day plan starting today.
func (s *Service) WeeklyReview() ([]domain.WeeklyDay, error) {
	subjects, err := s.store.GetAllSubjects()
	if err != nil {
		return nil, err
	}
	return WeeklyReview(subjects, s.now()), nil
}

// Progress returns completion per subject.
func (s *Service) Progress() ([]domain.Progress, error) {
	subjects, err := s.store.GetAllSubjects()
	if err != nil {
		return nil, err
	}
	return ProgressSummary(subjects), nil
}
