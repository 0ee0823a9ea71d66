package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jwulff/storytrack/internal/mixdown"
	"github.com/jwulff/storytrack/internal/story"
)

var (
	// ErrDuplicate is returned when a generation is already in the story.
	ErrDuplicate = errors.New("generation already in story")
	// ErrOrderMismatch is returned when a reorder does not name exactly the
	// story's items.
	ErrOrderMismatch = errors.New("generation ids do not match story items")
)

// Store provides read-write access to the local story database.
type Store struct {
	db *sql.DB
}

var _ story.Store = (*Store)(nil)

// DefaultDBPath returns the default database path.
func DefaultDBPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "storytrack", "stories.sqlite")
}

// Open opens (creating if needed) the database at path with WAL.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateStory inserts an empty story.
func (s *Store) CreateStory(ctx context.Context, name, description string) (story.Story, error) {
	id := uuid.NewString()
	now := nowUnix()
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO stories (id, name, description, createdAt, updatedAt)
		VALUES (?, ?, ?, ?, ?)
	`, id, name, description, now, now); err != nil {
		return story.Story{}, fmt.Errorf("insert story: %w", err)
	}
	return s.GetStory(ctx, id)
}

// ImportGeneration registers an audio file so it can be placed in stories.
func (s *Store) ImportGeneration(ctx context.Context, g story.Generation, audioPath string) (story.Generation, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if g.Duration <= 0 {
		return story.Generation{}, fmt.Errorf("generation %s: duration must be positive", g.ID)
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (id, profileName, text, duration, audioPath, createdAt)
		VALUES (?, ?, ?, ?, ?, ?)
	`, g.ID, g.ProfileName, g.Text, g.Duration, audioPath, nowUnix()); err != nil {
		return story.Generation{}, fmt.Errorf("insert generation: %w", err)
	}
	return g, nil
}

// ListStories returns story summaries, most recently updated first.
func (s *Store) ListStories(ctx context.Context) ([]story.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.name, s.description, COUNT(i.id)
		FROM stories s
		LEFT JOIN story_items i ON i.storyId = s.id
		GROUP BY s.id
		ORDER BY s.updatedAt DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	var out []story.Summary
	for rows.Next() {
		var sum story.Summary
		if err := rows.Scan(&sum.ID, &sum.Name, &sum.Description, &sum.ItemCount); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetStory returns a story with its items ordered by start time.
func (s *Store) GetStory(ctx context.Context, id string) (story.Story, error) {
	var st story.Story
	var createdAt, updatedAt float64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, createdAt, updatedAt
		FROM stories
		WHERE id = ?
	`, id).Scan(&st.ID, &st.Name, &st.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return story.Story{}, fmt.Errorf("story %s: %w", id, story.ErrNotFound)
	}
	if err != nil {
		return story.Story{}, fmt.Errorf("scan story: %w", err)
	}
	st.CreatedAt = timeFromUnix(createdAt)
	st.UpdatedAt = timeFromUnix(updatedAt)

	rows, err := s.db.QueryContext(ctx, `
		SELECT i.id, i.storyId, i.generationId, i.startTimeMs, i.track, i.createdAt,
		       g.duration, g.profileName, g.text
		FROM story_items i
		JOIN generations g ON g.id = i.generationId
		WHERE i.storyId = ?
		ORDER BY i.startTimeMs ASC, i.createdAt ASC
	`, id)
	if err != nil {
		return story.Story{}, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	st.Items = []story.Item{}
	for rows.Next() {
		var it story.Item
		var itemCreated float64
		if err := rows.Scan(&it.ID, &it.StoryID, &it.GenerationID, &it.StartTimeMs, &it.Track,
			&itemCreated, &it.Duration, &it.ProfileName, &it.Text); err != nil {
			return story.Story{}, fmt.Errorf("scan item: %w", err)
		}
		it.CreatedAt = timeFromUnix(itemCreated)
		st.Items = append(st.Items, it)
	}
	if err := rows.Err(); err != nil {
		return story.Story{}, err
	}
	return st, nil
}

// ReorderItems lays the items out back to back from zero in the given order.
// Tracks are kept.
func (s *Store) ReorderItems(ctx context.Context, storyID string, generationIDs []string) (story.Story, error) {
	current, err := s.GetStory(ctx, storyID)
	if err != nil {
		return story.Story{}, err
	}
	have := story.GenerationIDs(current.Items)
	want := slices.Clone(generationIDs)
	slices.Sort(have)
	slices.Sort(want)
	if !slices.Equal(have, want) {
		return story.Story{}, ErrOrderMismatch
	}

	durations := make(map[string]float64, len(current.Items))
	for _, it := range current.Items {
		durations[it.GenerationID] = it.DurationMs()
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var cursor int64
		for _, id := range generationIDs {
			if _, err := tx.ExecContext(ctx, `
				UPDATE story_items SET startTimeMs = ? WHERE storyId = ? AND generationId = ?
			`, cursor, storyID, id); err != nil {
				return fmt.Errorf("update item: %w", err)
			}
			cursor += int64(math.Round(durations[id]))
		}
		return touch(ctx, tx, storyID)
	})
	if err != nil {
		return story.Story{}, err
	}
	return s.GetStory(ctx, storyID)
}

// MoveItem places one item at pos.
func (s *Store) MoveItem(ctx context.Context, storyID, generationID string, pos story.Position) (story.Story, error) {
	if pos.StartTimeMs < 0 {
		return story.Story{}, fmt.Errorf("start time %d is negative", pos.StartTimeMs)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE story_items SET startTimeMs = ?, track = ? WHERE storyId = ? AND generationId = ?
		`, pos.StartTimeMs, pos.Track, storyID, generationID)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("item %s: %w", generationID, story.ErrNotFound)
		}
		return touch(ctx, tx, storyID)
	})
	if err != nil {
		return story.Story{}, err
	}
	return s.GetStory(ctx, storyID)
}

// AddItem appends a generation after the last clip, on track 0.
func (s *Store) AddItem(ctx context.Context, storyID, generationID string) (story.Story, error) {
	current, err := s.GetStory(ctx, storyID)
	if err != nil {
		return story.Story{}, err
	}
	if current.Has(generationID) {
		return story.Story{}, ErrDuplicate
	}
	var exists int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM generations WHERE id = ?`, generationID).Scan(&exists); err != nil {
		return story.Story{}, fmt.Errorf("query generation: %w", err)
	}
	if exists == 0 {
		return story.Story{}, fmt.Errorf("generation %s: %w", generationID, story.ErrNotFound)
	}

	var end float64
	for _, it := range current.Items {
		end = math.Max(end, it.EndMs())
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO story_items (id, storyId, generationId, startTimeMs, track, createdAt)
			VALUES (?, ?, ?, ?, 0, ?)
		`, uuid.NewString(), storyID, generationID, int64(math.Ceil(end)), nowUnix()); err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		return touch(ctx, tx, storyID)
	})
	if err != nil {
		return story.Story{}, err
	}
	return s.GetStory(ctx, storyID)
}

// RemoveItem deletes a generation from the story.
func (s *Store) RemoveItem(ctx context.Context, storyID, generationID string) (story.Story, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM story_items WHERE storyId = ? AND generationId = ?
		`, storyID, generationID)
		if err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("item %s: %w", generationID, story.ErrNotFound)
		}
		return touch(ctx, tx, storyID)
	})
	if err != nil {
		return story.Story{}, err
	}
	return s.GetStory(ctx, storyID)
}

// ExportAudio mixes the story into a WAV file and returns its bytes.
func (s *Store) ExportAudio(ctx context.Context, storyID string) ([]byte, error) {
	if _, err := s.GetStory(ctx, storyID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT i.generationId, i.startTimeMs, g.audioPath
		FROM story_items i
		JOIN generations g ON g.id = i.generationId
		WHERE i.storyId = ?
		ORDER BY i.startTimeMs ASC
	`, storyID)
	if err != nil {
		return nil, fmt.Errorf("query clips: %w", err)
	}
	var clips []mixdown.Clip
	for rows.Next() {
		var c clipRow
		if err := rows.Scan(&c.GenerationID, &c.StartTimeMs, &c.AudioPath); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan clip: %w", err)
		}
		clips = append(clips, mixdown.Clip{Path: c.AudioPath, StartMs: c.StartTimeMs})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	f, err := os.CreateTemp("", "storytrack-export-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if err := mixdown.Render(f, clips); err != nil {
		return nil, fmt.Errorf("render story: %w", err)
	}
	data, err := os.ReadFile(f.Name())
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	slog.Info("Exported story", "story", storyID, "clips", len(clips), "bytes", len(data))
	return data, nil
}

// ListGenerations returns every imported generation, newest first.
func (s *Store) ListGenerations(ctx context.Context) ([]story.Generation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, profileName, text, duration
		FROM generations
		ORDER BY createdAt DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query generations: %w", err)
	}
	defer rows.Close()

	var out []story.Generation
	for rows.Next() {
		var g story.Generation
		if err := rows.Scan(&g.ID, &g.ProfileName, &g.Text, &g.Duration); err != nil {
			return nil, fmt.Errorf("scan generation: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// AudioURL returns a file URL for the generation's audio, or "" when the
// generation is unknown.
func (s *Store) AudioURL(generationID string) string {
	var path string
	err := s.db.QueryRow(`SELECT audioPath FROM generations WHERE id = ?`, generationID).Scan(&path)
	if err != nil {
		return ""
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return (&url.URL{Scheme: "file", Path: abs}).String()
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func touch(ctx context.Context, tx *sql.Tx, storyID string) error {
	if _, err := tx.ExecContext(ctx, `UPDATE stories SET updatedAt = ? WHERE id = ?`, nowUnix(), storyID); err != nil {
		return fmt.Errorf("touch story: %w", err)
	}
	return nil
}

func nowUnix() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}
