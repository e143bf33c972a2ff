package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/ironsheep/bip-coverart/internal/bip"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "bip_thumbnail").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// ToolError is the data payload of a failed tool call.
type ToolError struct {
	// Kind names the failure class, e.g. "SizeExceeded".
	Kind string `json:"kind"`

	// Detail is the Go error string.
	Detail string `json:"detail"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000
// and a ToolError as data.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.logger.Printf("Tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed",
			ToolError{Kind: bip.Kind(err), Detail: err.Error()})
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

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Handles
	case "bip_handle_for_title":
		return s.handleHandleForTitle(ctx, args)
	case "bip_resolve_handle":
		return s.handleResolveHandle(ctx, args)
	case "bip_is_valid_handle":
		return s.handleIsValidHandle(args)

	// Transfers
	case "bip_image_properties":
		return s.handleImageProperties(ctx, args)
	case "bip_thumbnail":
		return s.handleThumbnail(ctx, args)
	case "bip_image":
		return s.handleImage(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// HandleResult reports a resolved image handle.
type HandleResult struct {
	Handle bip.Handle `json:"handle"`
}

// ValidityResult reports whether a handle was issued.
type ValidityResult struct {
	Handle bip.Handle `json:"handle"`
	Valid  bool       `json:"valid"`
}

// PropertiesResult carries an image-properties document.
type PropertiesResult struct {
	Handle bip.Handle `json:"handle"`
	XML    string     `json:"xml"`
}

// ImageResult carries encoded image bytes.
type ImageResult struct {
	Handle   bip.Handle `json:"handle"`
	MimeType string     `json:"mime_type"`
	Bytes    int        `json:"bytes"`
	Data     string     `json:"data"` // base64
}

// === Handle Handlers ===

type titleArgs struct {
	Title string `json:"title"`
}

func (s *Server) handleHandleForTitle(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a titleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	h, err := s.resp.HandleForTitle(ctx, a.Title)
	if err != nil {
		return nil, err
	}
	return &HandleResult{Handle: h}, nil
}

type assetArgs struct {
	Asset int64 `json:"asset"`
}

func (s *Server) handleResolveHandle(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a assetArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h, err := s.resp.ResolveHandle(ctx, bip.AssetID(a.Asset))
	if err != nil {
		return nil, err
	}
	return &HandleResult{Handle: h}, nil
}

type handleArgs struct {
	Handle string `json:"handle"`
}

func (s *Server) handleIsValidHandle(args json.RawMessage) (interface{}, error) {
	var a handleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h := bip.Handle(a.Handle)
	return &ValidityResult{Handle: h, Valid: s.resp.IsValidHandle(h)}, nil
}

// === Transfer Handlers ===

func (s *Server) handleImageProperties(ctx context.Context, args json.RawMessage) (interface{}, error) {
	h, err := parseHandleArgs(args)
	if err != nil {
		return nil, err
	}
	doc, err := s.resp.EncodeProperties(ctx, h)
	if err != nil {
		return nil, err
	}
	return &PropertiesResult{Handle: h, XML: string(doc)}, nil
}

func (s *Server) handleThumbnail(ctx context.Context, args json.RawMessage) (interface{}, error) {
	h, err := parseHandleArgs(args)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.resp.FetchThumbnail(ctx, h, &buf); err != nil {
		return nil, err
	}
	return imageResult(h, bip.EncodingJPEG, buf.Bytes()), nil
}

type imageArgs struct {
	Handle     string `json:"handle"`
	Descriptor string `json:"descriptor"`
}

func (s *Server) handleImage(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	h, err := bip.ParseHandle(a.Handle)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.resp.FetchImage(ctx, h, []byte(a.Descriptor), &buf); err != nil {
		return nil, err
	}
	return imageResult(h, sniffEncoding(buf.Bytes()), buf.Bytes()), nil
}

func parseHandleArgs(args json.RawMessage) (bip.Handle, error) {
	var a handleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return "", err
	}
	return bip.ParseHandle(a.Handle)
}

func imageResult(h bip.Handle, enc bip.Encoding, data []byte) *ImageResult {
	return &ImageResult{
		Handle:   h,
		MimeType: enc.MimeType(),
		Bytes:    len(data),
		Data:     base64.StdEncoding.EncodeToString(data),
	}
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

// sniffEncoding tells PNG output from JPEG by its signature.
func sniffEncoding(data []byte) bip.Encoding {
	if bytes.HasPrefix(data, pngMagic) {
		return bip.EncodingPNG
	}
	return bip.EncodingJPEG
}
