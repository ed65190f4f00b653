package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yuin/goldmark"

	"github.com/conorfennell/studydeck/internal/deck"
	"github.com/conorfennell/studydeck/internal/planner"
	"github.com/conorfennell/studydeck/internal/srs"
	"github.com/conorfennell/studydeck/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// Server holds the dependencies for the HTTP server.
type Server struct {
	deck      *deck.Service
	planner   *planner.Service
	syncer    *sync.Syncer
	router    *http.ServeMux
	templates *template.Template
}

// NewServer creates and configures a new server.
func NewServer(d *deck.Service, p *planner.Service, syncer *sync.Syncer) (*Server, error) {
	tpl, err := template.New("").Funcs(template.FuncMap{"markdown": renderMarkdown}).ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		deck:      d,
		planner:   p,
		syncer:    syncer,
		router:    http.NewServeMux(),
		templates: tpl,
	}
	if err := s.routes(); err != nil {
		return nil, err
	}
	return s, nil
}

// renderMarkdown turns card text into HTML. Raw HTML in notes is not
// passed through.
func renderMarkdown(src string) template.HTML {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(buf.String())
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("failed to create sub-filesystem for static assets: %w", err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("GET /static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("GET /", fileServer)

	// HTMX-based review routes
	s.router.HandleFunc("GET /deck", s.handleGetDeck())
	s.router.HandleFunc("GET /review/next", s.handleGetNextReview())
	s.router.HandleFunc("GET /review/answer/{id}", s.handleShowAnswer())
	s.router.HandleFunc("POST /review/{id}", s.handlePostReview())

	// Source management
	s.router.HandleFunc("GET /sources", s.handleGetSources())
	s.router.HandleFunc("POST /sources", s.handlePostSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())

	// Study planner
	s.router.HandleFunc("GET /plan", s.handleGetPlan())
	s.router.HandleFunc("POST /plan/subjects", s.handlePostSubject())
	s.router.HandleFunc("POST /plan/exam", s.handlePostExam())
	s.router.HandleFunc("GET /plan/goals", s.handleGetGoals())
	s.router.HandleFunc("POST /plan/goals/{id}/complete", s.handleCompleteGoal())
	s.router.HandleFunc("GET /plan/weekly", s.handleGetWeekly())
	s.router.HandleFunc("GET /plan/progress", s.handleGetProgress())
	return nil
}

// render executes a named template, logging failures that happen after
// headers were written.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("Error rendering template", "template", name, "error", err)
	}
}

// fail maps service errors to HTTP status codes.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, deck.ErrCardNotFound), errors.Is(err, planner.ErrSubjectNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, srs.ErrInvalidQuality),
		errors.Is(err, deck.ErrInvalidCard),
		errors.Is(err, deck.ErrInvalidCardID),
		errors.Is(err, planner.ErrInvalidSubject),
		errors.Is(err, planner.ErrInvalidExamDate),
		errors.Is(err, planner.ErrInvalidGoalID),
		errors.Is(err, planner.ErrExamDateUnset):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, planner.ErrGoalAlreadyMarked), errors.Is(err, sync.ErrSourceExists):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// handleGetDeck renders the deck view, showing the number of due cards.
func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.deck.Stats()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "deck", stats)
	}
}

// handleGetNextReview renders the front of the next due card.
func (s *Server) handleGetNextReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderNext(w, r)
	}
}

func (s *Server) renderNext(w http.ResponseWriter, r *http.Request) {
	session, err := s.deck.Session()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if len(session) == 0 {
		stats, err := s.deck.Stats()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "deck", stats)
		return
	}
	s.render(w, "card_front", session[0])
}

// handleShowAnswer renders the back of a card.
func (s *Server) handleShowAnswer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		card, err := s.deck.Card(r.PathValue("id"))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "card_back", card)
	}
}

// handlePostReview grades a card and renders the next one.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		grade, err := strconv.Atoi(r.PostFormValue("grade"))
		if err != nil {
			http.Error(w, "Invalid grade", http.StatusBadRequest)
			return
		}
		if _, err := s.deck.Review(deck.ReviewInput{CardID: r.PathValue("id"), Quality: grade}); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderNext(w, r)
	}
}

// handleGetSources renders the sources management page.
func (s *Server) handleGetSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderSources(w, r, "sources")
	}
}

func (s *Server) renderSources(w http.ResponseWriter, r *http.Request, name string) {
	sources, err := s.syncer.Sources()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, name, map[string]any{"Sources": sources})
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path := r.PostFormValue("path")
		if path == "" {
			http.Error(w, "Path cannot be empty", http.StatusBadRequest)
			return
		}
		if _, err := s.syncer.AddSource(path); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderSources(w, r, "source_list")
	}
}

// handleDeleteSource deletes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			http.Error(w, "Invalid source ID", http.StatusBadRequest)
			return
		}
		if err := s.syncer.RemoveSource(id); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderSources(w, r, "source_list")
	}
}

// handlePostSync runs a sync in the foreground and re-renders the list.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := s.syncer.Run(r.Context())
		if err != nil {
			s.fail(w, r, err)
			return
		}
		added := 0
		for _, res := range results {
			added += res.AddedCards
		}
		s.render(w, "sync_success", map[string]any{"Sources": len(results), "Added": added})
		s.renderSources(w, r, "source_list")
	}
}

// handleGetPlan renders the planner page.
func (s *Server) handleGetPlan() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		subjects, err := s.planner.Subjects()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		data := map[string]any{
			"Subjects":    subjects,
			"HoursPerDay": s.planner.HoursPerDay(),
			"ExamDate":    "",
			"DaysLeft":    0,
			"Goals":       nil,
		}

		exam, err := s.planner.ExamDate()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if exam != nil {
			days, err := s.planner.DaysUntilExam()
			if err != nil {
				s.fail(w, r, err)
				return
			}
			goals, err := s.planner.DailyGoals()
			if err != nil {
				s.fail(w, r, err)
				return
			}
			data["ExamDate"] = exam.Format("2006-01-02")
			data["DaysLeft"] = days
			data["Goals"] = goals
		}
		s.render(w, "plan", data)
	}
}

// handlePostSubject adds a subject and re-renders the subject list.
func (s *Server) handlePostSubject() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hours, err := strconv.ParseFloat(r.PostFormValue("hours"), 64)
		if err != nil {
			http.Error(w, "Invalid hours", http.StatusBadRequest)
			return
		}
		_, err = s.planner.AddSubject(planner.SubjectInput{
			Name:        r.PostFormValue("name"),
			Priority:    r.PostFormValue("priority"),
			HoursNeeded: hours,
		})
		if err != nil {
			s.fail(w, r, err)
			return
		}
		subjects, err := s.planner.Subjects()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "subject_list", map[string]any{"Subjects": subjects})
	}
}

// handlePostExam stores the exam date and re-renders today's goals.
func (s *Server) handlePostExam() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.planner.SetExamDate(r.PostFormValue("date")); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderGoals(w, r)
	}
}

// handleGetGoals renders today's goals.
func (s *Server) handleGetGoals() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderGoals(w, r)
	}
}

func (s *Server) renderGoals(w http.ResponseWriter, r *http.Request) {
	goals, err := s.planner.DailyGoals()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	days, err := s.planner.DaysUntilExam()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.render(w, "goal_list", map[string]any{"Goals": goals, "DaysLeft": days})
}

// handleCompleteGoal marks a goal done and re-renders today's goals.
func (s *Server) handleCompleteGoal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.planner.CompleteGoal(r.PathValue("id")); err != nil {
			s.fail(w, r, err)
			return
		}
		s.renderGoals(w, r)
	}
}

// handleGetWeekly renders the seven day plan.
func (s *Server) handleGetWeekly() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := s.planner.WeeklyReview()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "weekly", days)
	}
}

// handleGetProgress renders completion per subject.
func (s *Server) handleGetProgress() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		progress, err := s.planner.Progress()
		if err != nil {
			s.fail(w, r, err)
			return
		}
		s.render(w, "progress", progress)
	}
}
