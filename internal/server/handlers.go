package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ironsheep/inline-resize/internal/imaging"
	"github.com/ironsheep/inline-resize/internal/source"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "resize_run", "cache_keys").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("tool failed", slog.String("tool", params.Name), slog.String("error", err.Error()))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "resize_run":
		return s.handleResizeRun(ctx, args)
	case "cache_keys":
		return s.handleCacheKeys(args)
	case "cache_set_max_age":
		return s.handleCacheSetMaxAge(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs tolerates an absent arguments object.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	return json.Unmarshal(args, v)
}

// === Run ===

type resizeRunArgs struct {
	Src     string   `json:"src"`
	Dest    string   `json:"dest"`
	Exclude []string `json:"exclude"`
}

// RunResult is returned by resize_run.
type RunResult struct {
	RunID        string   `json:"run_id"`
	Generation   uint64   `json:"generation"`
	Collected    int      `json:"collected"`
	Text         int      `json:"text"`
	TextCached   int      `json:"text_cached"`
	Images       int      `json:"images"`
	Outputs      int      `json:"outputs"`
	Written      []string `json:"written"`
	Evicted      []string `json:"evicted"`
	CacheEntries int      `json:"cache_entries"`
}

func (s *Server) handleResizeRun(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a resizeRunArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Src == "" || a.Dest == "" {
		return nil, errors.New("src and dest are required")
	}
	exclude := a.Exclude
	if exclude == nil {
		exclude = s.exclude
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()

	report, err := source.Build(ctx, s.pipeline, source.Target{Src: a.Src, Dest: a.Dest, Exclude: exclude})
	if err != nil {
		return nil, err
	}
	return RunResult{
		RunID:        report.Stats.RunID,
		Generation:   report.Stats.Generation,
		Collected:    report.Collected,
		Text:         report.Stats.Text,
		TextCached:   report.Stats.TextCached,
		Images:       report.Stats.Images,
		Outputs:      report.Stats.Outputs,
		Written:      report.Written,
		Evicted:      report.Stats.Evicted,
		CacheEntries: s.store.Len(),
	}, nil
}

// === Cache ===

// CacheEntry describes one cached payload.
type CacheEntry struct {
	Key        string `json:"key"`
	Generation uint64 `json:"generation"`
	Bytes      int    `json:"bytes"`
}

// CacheListing is returned by cache_keys and cache_set_max_age.
type CacheListing struct {
	Generation uint64       `json:"generation"`
	MaxAge     int          `json:"max_age"`
	Entries    []CacheEntry `json:"entries"`
}

func (s *Server) listing() CacheListing {
	entries := s.store.Entries()
	out := CacheListing{
		Generation: s.store.Generation(),
		MaxAge:     s.store.MaxAge(),
		Entries:    make([]CacheEntry, 0, len(entries)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, CacheEntry{Key: e.Key, Generation: e.Generation, Bytes: len(e.Data)})
	}
	return out
}

func (s *Server) handleCacheKeys(args json.RawMessage) (interface{}, error) {
	var ignored struct{}
	if err := decodeArgs(args, &ignored); err != nil {
		return nil, err
	}
	return s.listing(), nil
}

type cacheSetMaxAgeArgs struct {
	MaxAge *int `json:"max_age"`
}

func (s *Server) handleCacheSetMaxAge(args json.RawMessage) (interface{}, error) {
	var a cacheSetMaxAgeArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.MaxAge == nil {
		return nil, errors.New("max_age is required")
	}
	if *a.MaxAge < 0 {
		return nil, fmt.Errorf("max_age must not be negative, got %d", *a.MaxAge)
	}
	s.store.SetMaxAge(*a.MaxAge)
	return s.listing(), nil
}

// === Images ===

type imageDimensionsArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageDimensionsArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	return imaging.LoadImageInfo(a.Path)
}
