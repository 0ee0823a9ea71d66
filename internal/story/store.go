package story

import "context"

// Store is the story-store collaborator. Every mutation returns the
// store-confirmed story.
type Store interface {
	ListStories(ctx context.Context) ([]Summary, error)
	GetStory(ctx context.Context, id string) (Story, error)
	ReorderItems(ctx context.Context, storyID string, generationIDs []string) (Story, error)
	MoveItem(ctx context.Context, storyID, generationID string, pos Position) (Story, error)
	AddItem(ctx context.Context, storyID, generationID string) (Story, error)
	RemoveItem(ctx context.Context, storyID, generationID string) (Story, error)
	ExportAudio(ctx context.Context, storyID string) ([]byte, error)
	ListGenerations(ctx context.Context) ([]Generation, error)
	AudioURL(generationID string) string
}
