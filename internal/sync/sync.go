package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/conorfennell/studydeck/internal/deck"
	"github.com/conorfennell/studydeck/internal/domain"
	"github.com/conorfennell/studydeck/internal/gitsource"
	"github.com/conorfennell/studydeck/internal/parser"
	"github.com/conorfennell/studydeck/internal/storage"
)

// ErrSourceExists is returned when adding a path that is already a source.
var ErrSourceExists = errors.New("sync: source already exists")

// noteExtensions are the files scanned for cards.
var noteExtensions = map[string]bool{".md": true, ".txt": true}

// Result summarises one source reconciliation.
type Result struct {
	SourceID    int64
	Path        string
	ParsedCards int
	AddedCards  int
	Errors      []error
}

// Syncer imports cards from every configured note source into the deck.
type Syncer struct {
	db       *storage.DB
	deck     *deck.Service
	reposDir string
	progress io.Writer
}

// New returns a Syncer that checks git sources out under reposDir.
func New(db *storage.DB, d *deck.Service, reposDir string) *Syncer {
	return &Syncer{db: db, deck: d, reposDir: reposDir}
}

// WithProgress sends git clone/pull progress to w.
func (s *Syncer) WithProgress(w io.Writer) *Syncer {
	s.progress = w
	return s
}

// AddSource registers a local directory or git URL.
func (s *Syncer) AddSource(path string) (*storage.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("source path cannot be empty")
	}
	existing, err := s.db.FindSourceByPath(path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceExists, path)
	}

	sourceType := storage.SourceLocal
	if gitsource.IsGitURL(path) {
		sourceType = storage.SourceGit
	}
	id, err := s.db.InsertSource(path, sourceType)
	if err != nil {
		return nil, err
	}
	slog.Info("Source added", "id", id, "type", sourceType, "path", path)
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// Run iterates over all sources and reconciles them. A failing source is
// logged and skipped; only failure to list sources aborts the run.
func (s *Syncer) Run(ctx context.Context) ([]Result, error) {
	slog.Info("Starting sync process for all sources...")
	sources, err := s.db.GetAllSources()
	if err != nil {
		return nil, fmt.Errorf("failed to get sources: %w", err)
	}

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with 'studydeck source add <path/or/url.git>'")
		return nil, nil
	}

	var results []Result
	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		slog.Info("Syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

		dir := source.Path
		if source.Type == storage.SourceGit {
			localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
			if err != nil {
				slog.Error("Error determining local path for git repo", "url", source.Path, "error", err)
				continue
			}
			if err := gitsource.Sync(ctx, source.Path, localRepoPath, s.progress); err != nil {
				slog.Error("Error syncing git repo", "url", source.Path, "error", err)
				continue
			}
			dir = localRepoPath
		}

		res, err := s.reconcile(source, dir)
		if err != nil {
			slog.Error("Error reconciling source", "path", dir, "error", err)
			continue
		}
		results = append(results, res)
	}
	slog.Info("Sync process complete.")
	return results, nil
}

// reconcile parses every note under dir and imports the new cards. Cards
// whose notes disappeared are kept: only a bulk clear removes cards.
func (s *Syncer) reconcile(source storage.Source, dir string) (Result, error) {
	res := Result{SourceID: source.ID, Path: dir}
	var parsedCards []domain.Card

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !noteExtensions[strings.ToLower(filepath.Ext(d.Name()))] {
			return nil
		}
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			res.Errors = append(res.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		parsedCards = append(parsedCards, fileCards...)
		return nil
	})
	if walkErr != nil {
		return res, fmt.Errorf("walking %s: %w", dir, walkErr)
	}

	res.ParsedCards = len(parsedCards)
	added, err := s.deck.Import(parsedCards, source.ID)
	res.AddedCards = added
	if err != nil {
		res.Errors = append(res.Errors, fmt.Errorf("importing cards: %w", err))
	}

	if err := s.db.UpdateSourceLastScanned(source.ID, s.deck.Now()); err != nil {
		slog.Warn("Failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	slog.Info("reconciliation complete",
		"path", dir,
		"parsed_cards", res.ParsedCards,
		"added_cards", res.AddedCards,
		"errors", len(res.Errors),
	)
	return res, nil
}

// Sources lists the configured sources.
func (s *Syncer) Sources() ([]storage.Source, error) {
	return s.db.GetAllSources()
}

// RemoveSource deletes a source; its cards stay in the deck.
func (s *Syncer) RemoveSource(id int64) error {
	return s.db.DeleteSource(id)
}
