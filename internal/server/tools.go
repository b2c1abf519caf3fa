package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "resize_run",
			Description: "Run one build: rewrite image references in text assets under src and write them plus every requested image variant to dest. Runs share the server's cache.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"src": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the project root",
					},
					"dest": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the output directory",
					},
					"exclude": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Optional glob patterns relative to src. Defaults to the configured excludes",
					},
				},
				"required": []string{"src", "dest"},
			},
		},
		{
			Name:        "cache_keys",
			Description: "List the cache keys with the generation each was last used in, plus the current generation and max age.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
		{
			Name:        "cache_set_max_age",
			Description: "Set how many runs an unused cache entry survives before it is evicted.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"max_age": map[string]interface{}{
						"type":        "integer",
						"description": "Number of runs; 0 evicts entries as soon as a run does not use them",
						"minimum":     0,
					},
				},
				"required": []string{"max_age"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width, height and format of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
