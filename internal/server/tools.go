package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func handleSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"handle": map[string]interface{}{
				"type":        "string",
				"description": "7-digit image handle, e.g. \"0042137\"",
				"pattern":     "^[0-9]{7}$",
			},
		},
		"required": []string{"handle"},
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Handles
		{
			Name:        "bip_handle_for_title",
			Description: "Find the album of a music track by title and return the image handle of its cover art. Fails with AssetNotFound when the track is unknown or its album has no usable art.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"title": map[string]interface{}{
						"type":        "string",
						"description": "Exact track title",
					},
				},
				"required": []string{"title"},
			},
		},
		{
			Name:        "bip_resolve_handle",
			Description: "Return the image handle for a catalog album id, allocating one on first use. The same album always maps to the same handle within a session.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"asset": map[string]interface{}{
						"type":        "integer",
						"description": "Album id in the catalog",
					},
				},
				"required": []string{"asset"},
			},
		},
		{
			Name:        "bip_is_valid_handle",
			Description: "Report whether a handle was issued in this session.",
			InputSchema: handleSchema(),
		},

		// Transfers
		{
			Name:        "bip_image_properties",
			Description: "Return the image-properties XML for a handle: native encoding, pixel size and byte size, plus the JPEG and PNG variants the server can render.",
			InputSchema: handleSchema(),
		},
		{
			Name:        "bip_thumbnail",
			Description: "Render the fixed-size JPEG thumbnail for a handle and return it base64-encoded.",
			InputSchema: handleSchema(),
		},
		{
			Name:        "bip_image",
			Description: "Render the image for a handle as negotiated by an image-descriptor XML document and return it base64-encoded. An empty descriptor returns the native size as JPEG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"handle": map[string]interface{}{
						"type":        "string",
						"description": "7-digit image handle",
						"pattern":     "^[0-9]{7}$",
					},
					"descriptor": map[string]interface{}{
						"type":        "string",
						"description": "image-descriptor XML, e.g. <image-descriptor version=\"1.0\"><image encoding=\"JPEG\" pixel=\"200*200\"/></image-descriptor>",
						"default":     "",
					},
				},
				"required": []string{"handle"},
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
