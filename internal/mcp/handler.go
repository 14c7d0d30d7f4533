package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	mcp "github.com/mark3labs/mcp-go/mcp"
	mcp_server "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"movie-workflow/internal/script"
	"movie-workflow/internal/workflow"
)

// Handler processes MCP requests
type Handler struct {
	server    *mcp_server.MCPServer
	processor *workflow.Processor
	logger    *zap.Logger
	toolNames []string
}

// NewHandler creates a new handler
func NewHandler(server *mcp_server.MCPServer, processor *workflow.Processor, logger *zap.Logger) *Handler {
	return &Handler{
		server:    server,
		processor: processor,
		logger:    logger,
		toolNames: make([]string, 0),
	}
}

// RegisterTools registers all tools with the MCP server
func (h *Handler) RegisterTools() {
	// Register segment_script tool
	segmentTool := mcp.NewTool("segment_script",
		mcp.WithDescription("Split a movie script into ordered scenes with estimated durations"),
		mcp.WithString("script", mcp.Required(), mcp.Description("The raw script text, paragraphs separated by blank lines")),
	)

	h.server.AddTool(segmentTool, h.handleSegmentScript)
	h.toolNames = append(h.toolNames, "segment_script")

	// Register render_movie tool
	renderMovieTool := mcp.NewTool("render_movie",
		mcp.WithDescription("Render a full movie from a script and optional image/video assets"),
		mcp.WithString("script", mcp.Required(), mcp.Description("The raw script text")),
		mcp.WithString("output_path", mcp.Required(), mcp.Description("Path of the final output file")),
		mcp.WithString("images", mcp.Description("Comma separated image asset paths")),
		mcp.WithString("clips", mcp.Description("Comma separated video asset paths")),
		mcp.WithString("voice_profile", mcp.Description("Narration voice profile name")),
		mcp.WithString("resolution", mcp.Description("Output resolution, e.g. 1920x1080")),
		mcp.WithNumber("frame_rate", mcp.Description("Output frame rate")),
	)

	h.server.AddTool(renderMovieTool, h.handleRenderMovie)
	h.toolNames = append(h.toolNames, "render_movie")

	// Register render_character_clip tool
	characterTool := mcp.NewTool("render_character_clip",
		mcp.WithDescription("Render a short animated character clip from a single image"),
		mcp.WithString("image_path", mcp.Required(), mcp.Description("Path of the character image")),
		mcp.WithString("name", mcp.Description("Character name used in the output file name")),
		mcp.WithNumber("duration", mcp.Description("Clip duration in seconds")),
		mcp.WithString("resolution", mcp.Description("Clip resolution, e.g. 1280x720")),
	)

	h.server.AddTool(characterTool, h.handleRenderCharacterClip)
	h.toolNames = append(h.toolNames, "render_character_clip")

	h.logger.Info("MCP tools registered",
		zap.Int("tool_count", len(h.toolNames)))
}

// GetToolNames 返回已注册的工具名称列表
func (h *Handler) GetToolNames() []string {
	return h.toolNames
}

// handleSegmentScript handles script segmentation
func (h *Handler) handleSegmentScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scriptText, err := request.RequireString("script")
	if err != nil {
		h.logger.Error("Missing script parameter", zap.Error(err))
		return mcp.NewToolResultError("Missing required parameter: script"), nil
	}

	scenes := script.Segment(scriptText)

	resultJSON, err := json.MarshalIndent(scenes, "", "  ")
	if err != nil {
		h.logger.Error("Failed to serialize result", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(resultJSON)), nil
}

// handleRenderMovie handles full movie rendering
func (h *Handler) handleRenderMovie(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	scriptText, err := request.RequireString("script")
	if err != nil {
		h.logger.Error("Missing script parameter", zap.Error(err))
		return mcp.NewToolResultError("Missing required parameter: script"), nil
	}

	outputPath, err := request.RequireString("output_path")
	if err != nil {
		h.logger.Error("Missing output_path parameter", zap.Error(err))
		return mcp.NewToolResultError("Missing required parameter: output_path"), nil
	}

	params := workflow.MovieParams{
		Script:       scriptText,
		Images:       splitPaths(request.GetString("images", "")),
		Clips:        splitPaths(request.GetString("clips", "")),
		VoiceProfile: request.GetString("voice_profile", ""),
		Resolution:   request.GetString("resolution", ""),
		FrameRate:    int(request.GetFloat("frame_rate", 0)),
		OutputPath:   outputPath,
	}

	result, err := h.processor.RenderMovie(ctx, params)
	if err != nil {
		h.logger.Error("Failed to render movie", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render movie: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(`{"status": "done", "file": %q}`, result)), nil
}

// handleRenderCharacterClip handles character clip rendering
func (h *Handler) handleRenderCharacterClip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	imagePath, err := request.RequireString("image_path")
	if err != nil {
		h.logger.Error("Missing image_path parameter", zap.Error(err))
		return mcp.NewToolResultError("Missing required parameter: image_path"), nil
	}

	result, err := h.processor.RenderCharacterClip(ctx, workflow.CharacterParams{
		ImagePath:  imagePath,
		Name:       request.GetString("name", "character"),
		Duration:   request.GetFloat("duration", 0),
		Resolution: request.GetString("resolution", ""),
	})
	if err != nil {
		h.logger.Error("Failed to render character clip", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("Failed to render character clip: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(`{"status": "done", "file": %q}`, result)), nil
}

// splitPaths 拆分逗号分隔的路径列表
func splitPaths(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	var paths []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
