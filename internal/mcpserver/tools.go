package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jwulff/storytrack/internal/story"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	h := handlers{svc: svc}
	srv.AddTool(mcp.NewTool(
		"list_stories",
		mcp.WithDescription("List stories with their item counts."),
	), h.listStories)

	srv.AddTool(mcp.NewTool(
		"get_story",
		mcp.WithDescription("Fetch a story with its items in playback order."),
		mcp.WithString("story_id",
			mcp.Required(),
			mcp.Description("Story identifier."),
		),
	), h.getStory)

	srv.AddTool(mcp.NewTool(
		"list_generations",
		mcp.WithDescription("List generations that can be placed in a story."),
		mcp.WithString("query",
			mcp.Description("Optional case-insensitive filter on profile name or text."),
		),
	), h.listGenerations)

	srv.AddTool(mcp.NewTool(
		"reorder_items",
		mcp.WithDescription("Move an item to another item's rank. Items are laid out back to back from time zero afterwards; tracks are kept."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story identifier.")),
		mcp.WithString("active_id", mcp.Required(), mcp.Description("Generation id of the item to move.")),
		mcp.WithString("over_id", mcp.Required(), mcp.Description("Generation id whose rank the item takes.")),
	), h.reorderItems)

	srv.AddTool(mcp.NewTool(
		"move_item",
		mcp.WithDescription("Place an item at a start time on a track."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story identifier.")),
		mcp.WithString("generation_id", mcp.Required(), mcp.Description("Generation id of the item to move.")),
		mcp.WithNumber("start_time_ms", mcp.Required(), mcp.Description("New start time in milliseconds.")),
		mcp.WithNumber("track", mcp.Description("Track number; 0 is the main track. Defaults to the current track.")),
	), h.moveItem)

	srv.AddTool(mcp.NewTool(
		"add_item",
		mcp.WithDescription("Append a generation to the end of a story."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story identifier.")),
		mcp.WithString("generation_id", mcp.Required(), mcp.Description("Generation to append.")),
	), h.addItem)

	srv.AddTool(mcp.NewTool(
		"remove_item",
		mcp.WithDescription("Remove a generation from a story."),
		mcp.WithString("story_id", mcp.Required(), mcp.Description("Story identifier.")),
		mcp.WithString("generation_id", mcp.Required(), mcp.Description("Generation to remove.")),
	), h.removeItem)
}

type handlers struct {
	svc *Service
}

func (h handlers) listStories(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sums, err := h.svc.ListStories(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(map[string]any{"stories": sums, "count": len(sums)})
}

func (h handlers) getStory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("story_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	dto, err := h.svc.GetStory(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(dto)
}

func (h handlers) listGenerations(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	gens, err := h.svc.ListGenerations(ctx, request.GetString("query", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(map[string]any{"generations": gens, "count": len(gens)})
}

func (h handlers) reorderItems(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		StoryID  string `json:"story_id"`
		ActiveID string `json:"active_id"`
		OverID   string `json:"over_id"`
	}
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}
	dto, err := h.svc.ReorderItems(ctx, args.StoryID, args.ActiveID, args.OverID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(dto)
}

func (h handlers) moveItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, err := request.RequireString("story_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	genID, err := request.RequireString("generation_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	start, err := request.RequireFloat("start_time_ms")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pos := story.Position{StartTimeMs: int64(start)}
	if _, ok := request.GetArguments()["track"]; ok {
		pos.Track = request.GetInt("track", 0)
	} else {
		dto, err := h.svc.GetStory(ctx, storyID)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for _, it := range dto.Items {
			if it.GenerationID == genID {
				pos.Track = it.Track
			}
		}
	}

	dto, err := h.svc.MoveItem(ctx, storyID, genID, pos)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(dto)
}

func (h handlers) addItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, genID, errResult := storyAndGeneration(request)
	if errResult != nil {
		return errResult, nil
	}
	dto, err := h.svc.AddItem(ctx, storyID, genID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(dto)
}

func (h handlers) removeItem(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	storyID, genID, errResult := storyAndGeneration(request)
	if errResult != nil {
		return errResult, nil
	}
	dto, err := h.svc.RemoveItem(ctx, storyID, genID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toJSONResult(dto)
}

func storyAndGeneration(request mcp.CallToolRequest) (string, string, *mcp.CallToolResult) {
	storyID, err := request.RequireString("story_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	genID, err := request.RequireString("generation_id")
	if err != nil {
		return "", "", mcp.NewToolResultError(err.Error())
	}
	return storyID, genID, nil
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
