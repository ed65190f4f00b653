package domain

import "time"

// Priority is the importance a subject is given when dividing study time.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Subject is a body of material to study before the exam.
type Subject struct {
	ID             int64
	Name           string
	Priority       Priority
	HoursNeeded    float64
	HoursCompleted float64
}

// DailyGoal is the study allocated to one subject for one day.
// Goals are derived from subject state and never stored; only the ids
// of completed goals are.
type DailyGoal struct {
	ID        string
	SubjectID int64
	Subject   string
	Hours     float64
	Tasks     []string
	Date      time.Time
	Completed bool
}

// WeeklyDay is one entry of the seven day review plan.
type WeeklyDay struct {
	Day      string
	Date     time.Time
	Activity string
	Focus    string
}

// Progress reports how far a subject has come.
type Progress struct {
	Subject        string
	Completion     float64 // percent, rounded to one decimal
	HoursCompleted float64
	HoursTotal     float64
}
