package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/conorfennell/studydeck/internal/deck"
	"github.com/conorfennell/studydeck/internal/focus"
	"github.com/conorfennell/studydeck/internal/parser"
	"github.com/conorfennell/studydeck/internal/planner"
)

var errUsage = errors.New("invalid arguments, see --help")

func (a *app) sync(ctx context.Context) error {
	results, err := a.syncer.Run(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		fmt.Fprintf(a.out, "%s: %d cards parsed, %d added, %d errors\n", res.Path, res.ParsedCards, res.AddedCards, len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(a.out, "  - %v\n", e)
		}
	}
	return nil
}

func (a *app) source(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		if len(args) != 2 {
			return errUsage
		}
		src, err := a.syncer.AddSource(args[1])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added %s source %d: %s\n", src.Type, src.ID, src.Path)
	case "list":
		sources, err := a.syncer.Sources()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tPATH\tLAST SCANNED")
		for _, s := range sources {
			scanned := "never"
			if s.LastScanned.Valid {
				scanned = s.LastScanned.Time.Local().Format(time.DateTime)
			}
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", s.ID, s.Type, s.Path, scanned)
		}
		return tw.Flush()
	case "remove":
		if len(args) != 2 {
			return errUsage
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid source id %q", args[1])
		}
		if err := a.syncer.RemoveSource(id); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Removed source %d\n", id)
	default:
		return errUsage
	}
	return nil
}

func (a *app) card(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "add":
		if len(args) != 3 {
			return errUsage
		}
		c, err := a.deck.AddCard(args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added card %s\n", c.ID)
	case "list":
		cards, err := a.deck.All()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tFRONT\tINTERVAL\tEASE\tNEXT REVIEW")
		for _, c := range cards {
			fmt.Fprintf(tw, "%s\t%s\t%dd\t%.2f\t%s\n", c.ID, c.Front, c.Interval, c.EaseFactor, c.NextReview.Local().Format(time.DateTime))
		}
		return tw.Flush()
	case "import":
		if len(args) != 2 {
			return errUsage
		}
		parsed, err := parser.ParseFile(args[1])
		if err != nil {
			return err
		}
		added, err := a.deck.Import(parsed, 0)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Found %d cards, added %d.\n", len(parsed), added)
	case "clear":
		n, err := a.deck.Clear()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted %d cards\n", n)
	default:
		return errUsage
	}
	return nil
}

func (a *app) review(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "due":
		session, err := a.deck.Session()
		if err != nil {
			return err
		}
		if len(session) == 0 {
			fmt.Fprintln(a.out, "No cards due.")
			return nil
		}
		for _, c := range session {
			fmt.Fprintf(a.out, "%s  %s\n", c.ID, c.Front)
		}
	case "grade":
		if len(args) != 3 {
			return errUsage
		}
		quality, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid quality %q", args[2])
		}
		c, err := a.deck.Review(deck.ReviewInput{CardID: args[1], Quality: quality})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s\nAnswer: %s\nNext review in %d days (%s), ease %.2f\n",
			c.Front, c.Back, c.Interval, c.NextReview.Local().Format(time.DateTime), c.EaseFactor)
	default:
		return errUsage
	}
	return nil
}

func (a *app) stats() error {
	st, err := a.deck.Stats()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Total cards: %d\nDue now: %d\nMastered: %d (%.1f%%)\n", st.Total, st.Due, st.Mastered, st.MasteryPercentage)
	return nil
}

func (a *app) plan(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "subject":
		if len(args) != 4 {
			return errUsage
		}
		hours, err := strconv.ParseFloat(args[3], 64)
		if err != nil {
			return fmt.Errorf("invalid hours %q", args[3])
		}
		s, err := a.planner.AddSubject(planner.SubjectInput{Name: args[1], Priority: args[2], HoursNeeded: hours})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added subject %d: %s (%s, %.1fh)\n", s.ID, s.Name, s.Priority, s.HoursNeeded)
	case "exam":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.planner.SetExamDate(args[1]); err != nil {
			return err
		}
		days, err := a.planner.DaysUntilExam()
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Exam set for %s, %d days left\n", args[1], days)
	case "goals":
		goals, err := a.planner.DailyGoals()
		if err != nil {
			return err
		}
		if len(goals) == 0 {
			fmt.Fprintln(a.out, "No goals for today.")
		}
		for _, g := range goals {
			mark := " "
			if g.Completed {
				mark = "x"
			}
			fmt.Fprintf(a.out, "[%s] %s  %s %.1fh\n", mark, g.ID, g.Subject, g.Hours)
			for _, task := range g.Tasks {
				fmt.Fprintf(a.out, "      - %s\n", task)
			}
		}
	case "complete":
		if len(args) != 2 {
			return errUsage
		}
		if err := a.planner.CompleteGoal(args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Completed %s (+%.1fh)\n", args[1], planner.GoalCredit)
	case "weekly":
		days, err := a.planner.WeeklyReview()
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
		for _, d := range days {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Day, d.Date.Format("Jan 2"), d.Activity, d.Focus)
		}
		return tw.Flush()
	case "progress":
		progress, err := a.planner.Progress()
		if err != nil {
			return err
		}
		for _, p := range progress {
			fmt.Fprintf(a.out, "%-20s %5.1f%%  %.1f/%.1fh\n", p.Subject, p.Completion, p.HoursCompleted, p.HoursTotal)
		}
	default:
		return errUsage
	}
	return nil
}

// focus prints the timeline of a focus run starting now. The timer itself
// is left to the user.
func (a *app) focus(args []string) error {
	cycles := a.cfg.Focus.Cycles
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid cycles %q", args[0])
		}
		cycles = n
	}

	p, err := focus.NewPlanner(focus.Settings{
		Work:  a.cfg.Focus.Work,
		Short: a.cfg.Focus.Short,
		Long:  a.cfg.Focus.Long,
		Every: a.cfg.Focus.Every,
	}, nil)
	if err != nil {
		return err
	}
	segments, err := p.Plan(cycles, time.Now())
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Background: %s\n", p.Ambience())
	for _, s := range segments {
		label := strings.ReplaceAll(string(s.Kind), "_", " ")
		fmt.Fprintf(a.out, "%s  %-11s %3.0f min", s.Start.Format("15:04"), label, s.Duration().Minutes())
		if s.Suggestion != "" {
			fmt.Fprintf(a.out, "  %s", s.Suggestion)
		}
		fmt.Fprintln(a.out)
	}
	st := focus.Summarize(segments)
	fmt.Fprintf(a.out, "%d focus sessions, %d breaks, %d minutes of focus: %s\n", st.WorkSessions, st.Breaks, st.FocusMinutes, st.Performance)
	return nil
}
