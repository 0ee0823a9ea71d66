// Package db is a local SQLite story store. It implements story.Store so the
// editor can run without the voice server.
package db

// schema is applied on every open.
const schema = `
	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		createdAt REAL NOT NULL,
		updatedAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS generations (
		id TEXT PRIMARY KEY,
		profileName TEXT NOT NULL,
		text TEXT NOT NULL,
		duration REAL NOT NULL,
		audioPath TEXT NOT NULL,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS story_items (
		id TEXT PRIMARY KEY,
		storyId TEXT NOT NULL REFERENCES stories(id) ON DELETE CASCADE,
		generationId TEXT NOT NULL REFERENCES generations(id) ON DELETE CASCADE,
		startTimeMs INTEGER NOT NULL,
		track INTEGER NOT NULL DEFAULT 0,
		createdAt REAL NOT NULL,
		UNIQUE(storyId, generationId)
	);

	CREATE INDEX IF NOT EXISTS idx_story_items_story ON story_items(storyId, startTimeMs);
`

// clipRow is an item joined with its audio file, for export.
type clipRow struct {
	GenerationID string
	StartTimeMs  int64
	AudioPath    string
}
